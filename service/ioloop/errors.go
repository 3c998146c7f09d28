// SPDX-License-Identifier: BSD-3-Clause

package ioloop

import "errors"

var (
	// ErrHostnameTooLong indicates a hostname does not fit in the fixed header.
	ErrHostnameTooLong = errors.New("hostname exceeds message header length")
	// ErrMessageTruncated indicates a datagram was shorter than the fixed header.
	ErrMessageTruncated = errors.New("message shorter than fixed header")
	// ErrReceiverClosed indicates a send/receive was attempted on a closed receiver.
	ErrReceiverClosed = errors.New("UDP receiver closed")
)
