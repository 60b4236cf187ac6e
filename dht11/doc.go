// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package dht11 reads an Aosong DHT11 temperature/humidity sensor by
// bit-banging its single-wire protocol on one GPIO line.
//
// The host pulls the line low for 18ms to wake the sensor, then listens. The
// sensor acknowledges with an 80µs low pulse followed by an 80µs high pulse
// and transmits 40 bits. Each bit starts with a 50µs low pulse; the length of
// the following high pulse encodes the value (about 27µs for 0, 70µs for 1).
// The fifth byte is the sum of the first four.
//
// The sensor must not be sampled more than once every two seconds. Dev caches
// the last frame and only talks to the sensor once the cache is stale.
//
// Range: 0°C - 50°C, 20% - 90%RH
//
// Accuracy: +/- 2°C, +/- 5%RH
//
// For detailed information, refer to the Aosong DHT11 datasheet.
//
// A command line tool is available in cmd/dht11.
package dht11
