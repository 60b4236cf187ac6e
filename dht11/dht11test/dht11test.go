// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package dht11test implements a scripted DHT11 sensor on a fake GPIO line.
//
// Sensor is both the data pin and the clock of a dht11.Dev. Time is virtual:
// it only moves when the driver sleeps or polls the line, so a full
// transaction runs in microseconds of real time.
package dht11test

import (
	"errors"
	"strconv"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

// Fault selects how a reply deviates from a well-formed transmission.
type Fault int

const (
	// NoFault transmits the reply data.
	NoFault Fault = iota
	// NoResponse leaves the line high: the sensor never acknowledges.
	NoResponse
	// NoReady acknowledges but keeps the line low instead of sending the
	// ready pulse.
	NoReady
	// Stuck holds the line low forever at the start of bit Reply.StuckAt.
	Stuck
)

func (f Fault) String() string {
	switch f {
	case NoFault:
		return "NoFault"
	case NoResponse:
		return "NoResponse"
	case NoReady:
		return "NoReady"
	case Stuck:
		return "Stuck"
	default:
		return "Fault(" + strconv.Itoa(int(f)) + ")"
	}
}

// Reply is the sensor's answer to one start signal.
type Reply struct {
	Data    [5]byte
	Fault   Fault
	StuckAt int
}

// Measure returns a well-formed reply with a correct checksum.
func Measure(humidityInt, humidityFrac, temperatureInt, temperatureFrac byte) Reply {
	return Reply{Data: [5]byte{
		humidityInt, humidityFrac, temperatureInt, temperatureFrac,
		humidityInt + humidityFrac + temperatureInt + temperatureFrac,
	}}
}

// Waveform timings of the sensor side.
const (
	ackDelay  = 20 * time.Microsecond
	ackLow    = 80 * time.Microsecond
	ackHigh   = 80 * time.Microsecond
	bitLow    = 50 * time.Microsecond
	zeroHigh  = 26 * time.Microsecond
	oneHigh   = 70 * time.Microsecond
	minWake   = 18 * time.Millisecond
	powerUp   = time.Second
	forever   = time.Duration(-1)
	frameBits = 40
)

type pulse struct {
	l gpio.Level
	d time.Duration
}

func (r Reply) waveform() []pulse {
	w := []pulse{{gpio.High, ackDelay}}
	switch r.Fault {
	case NoResponse:
		return []pulse{{gpio.High, forever}}
	case NoReady:
		return append(w, pulse{gpio.Low, forever})
	}
	w = append(w, pulse{gpio.Low, ackLow}, pulse{gpio.High, ackHigh})
	for i := range frameBits {
		if r.Fault == Stuck && i == r.StuckAt {
			return append(w, pulse{gpio.Low, forever})
		}
		w = append(w, pulse{gpio.Low, bitLow})
		if r.Data[i/8]&(1<<(7-i%8)) != 0 {
			w = append(w, pulse{gpio.High, oneHigh})
		} else {
			w = append(w, pulse{gpio.High, zeroHigh})
		}
	}
	return append(w, pulse{gpio.Low, bitLow})
}

// Sensor is a DHT11 wired to a fake GPIO pin. It implements gpio.PinIO and
// the dht11.Clock interface.
//
// After a low pulse of at least 18ms followed by a switch to input, the
// sensor transmits the next queued Reply. The last Reply is repeated once the
// queue is empty; with nothing queued the sensor does not respond. Start
// signals sent during the first second after New are ignored.
type Sensor struct {
	gpiotest.Pin
	// Poll is the virtual time consumed by each Read.
	Poll time.Duration

	now     time.Time
	powerOn time.Time
	replies []Reply
	last    Reply
	starts  int
	lowAt   time.Time
	woken   bool
	// wave is non-nil while the sensor drives the line.
	wave   []pulse
	origin time.Time
}

// New returns an idle sensor on GPIO number, powered on at the current
// virtual time.
func New(number int) *Sensor {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return &Sensor{
		Pin:     gpiotest.Pin{N: "GPIO" + strconv.Itoa(number), Num: number, L: gpio.High},
		Poll:    time.Microsecond,
		now:     now,
		powerOn: now,
		last:    Reply{Fault: NoResponse},
	}
}

// Queue appends replies for the next start signals.
func (s *Sensor) Queue(r ...Reply) {
	s.Lock()
	defer s.Unlock()
	s.replies = append(s.replies, r...)
}

// Starts returns the number of start signals the sensor answered.
func (s *Sensor) Starts() int {
	s.Lock()
	defer s.Unlock()
	return s.starts
}

// PinByNumber resolves GPIO numbers for dht11.Opts.Pins. Only the sensor's
// own number resolves.
func (s *Sensor) PinByNumber(number int) gpio.PinIO {
	if number != s.Num {
		return nil
	}
	return s
}

// Now implements dht11.Clock.
func (s *Sensor) Now() time.Time {
	s.Lock()
	defer s.Unlock()
	return s.now
}

// Sleep implements dht11.Clock by advancing virtual time.
func (s *Sensor) Sleep(d time.Duration) {
	s.Advance(d)
}

// Advance moves virtual time forward.
func (s *Sensor) Advance(d time.Duration) {
	s.Lock()
	defer s.Unlock()
	s.now = s.now.Add(d)
}

// Out implements gpio.PinOut. The host driving the line interrupts any
// transmission in progress.
func (s *Sensor) Out(l gpio.Level) error {
	s.Lock()
	defer s.Unlock()
	s.wave = nil
	s.woken = false
	if l == gpio.Low {
		s.lowAt = s.now
	} else if !s.lowAt.IsZero() {
		s.woken = s.now.Sub(s.lowAt) >= minWake && s.lowAt.Sub(s.powerOn) >= powerUp
		s.lowAt = time.Time{}
	}
	s.L = l
	return nil
}

// In implements gpio.PinIn. Releasing the line after a wake pulse starts a
// transmission.
func (s *Sensor) In(pull gpio.Pull, edge gpio.Edge) error {
	s.Lock()
	defer s.Unlock()
	if edge != gpio.NoEdge {
		return errors.New("dht11test: edge detection not supported")
	}
	s.P = pull
	s.L = gpio.High
	s.lowAt = time.Time{}
	if !s.woken {
		return nil
	}
	s.woken = false
	s.starts++
	if len(s.replies) != 0 {
		s.last = s.replies[0]
		s.replies = s.replies[1:]
	}
	s.wave = s.last.waveform()
	s.origin = s.now
	return nil
}

// Read implements gpio.PinIn. Every call consumes Poll of virtual time.
func (s *Sensor) Read() gpio.Level {
	s.Lock()
	defer s.Unlock()
	l := s.level()
	s.now = s.now.Add(s.Poll)
	return l
}

// level must be called with the lock held.
func (s *Sensor) level() gpio.Level {
	if s.wave == nil {
		return s.L
	}
	t := s.now.Sub(s.origin)
	for _, p := range s.wave {
		if p.d < 0 || t < p.d {
			return p.l
		}
		t -= p.d
	}
	return gpio.High
}

func (s *Sensor) String() string {
	return s.N
}

var _ gpio.PinIO = &Sensor{}
