// SPDX-License-Identifier: BSD-3-Clause

package mtce_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/u-mtc/u-mtc/service/mtce"
)

func TestNameReturnsConfiguredName(t *testing.T) {
	c := mtce.New(mtce.WithName("test-controller"), mtce.WithHostname("controller-0"))
	assert.Equal(t, "test-controller", c.Name())
}

func TestRunRejectsEmptyName(t *testing.T) {
	c := mtce.New(mtce.WithName(""), mtce.WithHostname("controller-0"))
	err := c.Run(context.Background(), nil)
	require.ErrorIs(t, err, mtce.ErrNameEmpty)
}

func TestRunRejectsEmptyHostname(t *testing.T) {
	c := mtce.New(mtce.WithHostname(""))
	err := c.Run(context.Background(), nil)
	require.ErrorIs(t, err, mtce.ErrHostnameEmpty)
}
