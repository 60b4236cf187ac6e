// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dht11

import (
	"fmt"

	"github.com/GermanBionicSystems/sensorline/common"
	"periph.io/x/conn/v3/physic"
)

// Frame is the 5 byte payload of one transaction, in transmission order.
type Frame [5]byte

const (
	humidityInt = iota
	humidityFrac
	temperatureInt
	temperatureFrac
	checksum
)

// Checksum returns the expected value of the last byte.
func (f Frame) Checksum() byte {
	return common.Sum8(f[:checksum])
}

// Valid returns true if the last byte matches the checksum.
func (f Frame) Valid() bool {
	return f.Checksum() == f[checksum]
}

// Humidity returns the relative humidity in percent.
func (f Frame) Humidity() float64 {
	return float64(f[humidityInt]) + float64(f[humidityFrac])/10.0
}

// Temperature returns the temperature in degrees Celsius.
func (f Frame) Temperature() float64 {
	return float64(f[temperatureInt]) + float64(f[temperatureFrac])/10.0
}

// env converts the frame without going through floating point.
func (f Frame) env(e *physic.Env) {
	e.Temperature = physic.ZeroCelsius +
		physic.Temperature(f[temperatureInt])*physic.Celsius +
		physic.Temperature(f[temperatureFrac])*(physic.Celsius/10)
	e.Humidity = physic.RelativeHumidity(f[humidityInt])*physic.PercentRH +
		physic.RelativeHumidity(f[humidityFrac])*(physic.PercentRH/10)
	e.Pressure = 0
}

func (f Frame) String() string {
	return fmt.Sprintf("%.1f°C %.1f%%RH (sum %#02x/%#02x)", f.Temperature(), f.Humidity(), f[checksum], f.Checksum())
}
