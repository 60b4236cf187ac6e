// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sensorline is a container for single-wire sensor drivers and the
// tooling around them.
//
// The driver lives in dht11, a scripted sensor for tests in dht11/dht11test
// and a command line tool in cmd/dht11.
package sensorline
