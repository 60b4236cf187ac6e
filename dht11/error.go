// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dht11

import "errors"

var (
	// ErrUnbound is returned when the Dev has no data pin.
	ErrUnbound = errors.New("dht11: no data pin bound")
	// ErrInvalidPin is recorded when Bind is given a pin that is out of range
	// or that the host does not have.
	ErrInvalidPin = errors.New("dht11: invalid data pin")
	// ErrHandshakeTimeout is returned when the sensor did not answer the
	// start signal, or when a pulse exceeded Opts.PulseTimeout.
	ErrHandshakeTimeout = errors.New("dht11: sensor did not respond")
	// ErrChecksumMismatch is returned when the fifth byte of a frame is not
	// the sum of the first four.
	ErrChecksumMismatch = errors.New("dht11: checksum mismatch")
)
