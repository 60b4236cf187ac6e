// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dht11test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/gpio"
)

func TestMeasure(t *testing.T) {
	r := Measure(60, 5, 23, 7)
	if diff := cmp.Diff([5]byte{60, 5, 23, 7, 95}, r.Data); diff != "" {
		t.Errorf("Measure() mismatch (-want +got):\n%s", diff)
	}
	if r.Fault != NoFault {
		t.Errorf("Measure() fault %s", r.Fault)
	}
}

// wake sends a start signal the way the driver does.
func wake(s *Sensor) {
	_ = s.Out(gpio.Low)
	s.Advance(18 * time.Millisecond)
	_ = s.Out(gpio.High)
	s.Advance(20 * time.Microsecond)
	_ = s.In(gpio.Float, gpio.NoEdge)
}

// levelAt returns the line level at offset d after the switch to input.
func levelAt(s *Sensor, start time.Time, d time.Duration) gpio.Level {
	s.Advance(start.Add(d).Sub(s.Now()))
	return s.Read()
}

func TestWaveform(t *testing.T) {
	s := New(4)
	s.Queue(Reply{Data: [5]byte{0x80, 0, 0, 0, 0x80}})
	s.Advance(time.Second)
	wake(s)
	if s.Starts() != 1 {
		t.Fatalf("Starts() = %d, want 1", s.Starts())
	}
	start := s.Now()
	want := []struct {
		at time.Duration
		l  gpio.Level
	}{
		{10 * time.Microsecond, gpio.High},
		{40 * time.Microsecond, gpio.Low},
		{120 * time.Microsecond, gpio.High},
		// First bit is a 1: low 180-230, high 230-300.
		{200 * time.Microsecond, gpio.Low},
		{270 * time.Microsecond, gpio.High},
		// Second bit is a 0: low 300-350, high 350-376.
		{320 * time.Microsecond, gpio.Low},
		{360 * time.Microsecond, gpio.High},
		{390 * time.Microsecond, gpio.Low},
		// Idle after the transmission.
		{time.Second, gpio.High},
	}
	for _, w := range want {
		if l := levelAt(s, start, w.at); l != w.l {
			t.Errorf("level at %s = %s, want %s", w.at, l, w.l)
		}
	}
}

func TestWarmUp(t *testing.T) {
	s := New(4)
	s.Queue(Measure(1, 0, 1, 0))
	wake(s)
	if s.Starts() != 0 {
		t.Fatal("sensor answered during its first second")
	}
	s.Advance(time.Second)
	wake(s)
	if s.Starts() != 1 {
		t.Fatal("sensor did not answer after warm up")
	}
}

func TestShortWake(t *testing.T) {
	s := New(4)
	s.Advance(time.Second)
	s.Queue(Measure(1, 0, 1, 0))
	_ = s.Out(gpio.Low)
	s.Advance(time.Millisecond)
	_ = s.Out(gpio.High)
	_ = s.In(gpio.Float, gpio.NoEdge)
	if s.Starts() != 0 {
		t.Fatal("sensor answered a 1ms wake pulse")
	}
}

func TestFaults(t *testing.T) {
	for _, tc := range []struct {
		name  string
		reply Reply
		at    time.Duration
		want  gpio.Level
	}{
		{"no response", Reply{Fault: NoResponse}, 40 * time.Microsecond, gpio.High},
		{"no ready", Reply{Fault: NoReady}, 120 * time.Microsecond, gpio.Low},
		{"stuck", Reply{Fault: Stuck, StuckAt: 0}, time.Second, gpio.Low},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := New(4)
			s.Advance(time.Second)
			s.Queue(tc.reply)
			wake(s)
			if l := levelAt(s, s.Now(), tc.at); l != tc.want {
				t.Errorf("level at %s = %s, want %s", tc.at, l, tc.want)
			}
		})
	}
}

func TestRepeatLastReply(t *testing.T) {
	s := New(4)
	s.Advance(time.Second)
	wake(s)
	if l := levelAt(s, s.Now(), 40*time.Microsecond); l != gpio.High {
		t.Error("sensor with nothing queued responded")
	}
	s.Queue(Reply{Fault: NoReady})
	for range 2 {
		wake(s)
		if l := levelAt(s, s.Now(), 120*time.Microsecond); l != gpio.Low {
			t.Error("last reply was not repeated")
		}
	}
}

func TestPinByNumber(t *testing.T) {
	s := New(7)
	if s.PinByNumber(7) == nil {
		t.Error("own number did not resolve")
	}
	if s.PinByNumber(8) != nil {
		t.Error("foreign number resolved")
	}
	if s.String() != "GPIO7" || s.Number() != 7 {
		t.Errorf("unexpected pin identity %s/%d", s, s.Number())
	}
	if err := s.In(gpio.Float, gpio.BothEdges); err == nil {
		t.Error("edge detection accepted")
	}
}
