// SPDX-License-Identifier: BSD-3-Clause

package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/u-mtc/u-mtc/service/config"
)

func TestNewRequiresPorts(t *testing.T) {
	_, err := config.New()
	require.ErrorIs(t, err, config.ErrMissingRequiredKeys)
}

func TestNewWithRequiredKeysSucceeds(t *testing.T) {
	cfg, err := config.New(
		config.WithAgentPort(2112),
		config.WithHBSCmdPort(2116),
		config.WithHBSEventPort(2134),
	)
	require.NoError(t, err)
	assert.Equal(t, 2112, cfg.Agent.MtcAgentPort)
	assert.Equal(t, 10, cfg.Agent.OfflineThreshold)
}

func TestOptionsOverrideDefaults(t *testing.T) {
	cfg, err := config.New(
		config.WithAgentPort(2112),
		config.WithHBSCmdPort(2116),
		config.WithHBSEventPort(2134),
		config.WithSwactTimeout(45*time.Second),
		config.WithMNFAThreshold(3),
	)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.Timeouts.SwactTimeout)
	assert.Equal(t, 3, cfg.Agent.MNFAThreshold)
}

func TestValidateReportsMissingKeys(t *testing.T) {
	cfg := config.Default()
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrMissingRequiredKeys)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load("/nonexistent/mtced.conf")
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrDecodeFailed)
}
