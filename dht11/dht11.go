// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dht11

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
)

const (
	// MaxPin is the highest GPIO number accepted by Bind.
	MaxPin = 29
	// StalenessWindow is the minimum interval between two transactions. A
	// cached frame younger than this is returned without touching the line.
	StalenessWindow = 2 * time.Second
	// Failure is returned by Temperature and Humidity when no valid reading
	// is available.
	Failure = -1.0

	bits = 8 * len(Frame{})
)

// Protocol timings. Changing any of these breaks the handshake.
const (
	warmUp        = time.Second
	wakeLow       = 18 * time.Millisecond
	wakeRelease   = 20 * time.Microsecond
	responseDelay = 40 * time.Microsecond
	readyDelay    = 80 * time.Microsecond
	bitSample     = 40 * time.Microsecond
)

// Clock is the time source used for the protocol delays. clock.Clock from
// github.com/benbjohnson/clock satisfies it.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// Opts holds the configuration options for the device.
type Opts struct {
	// Clock provides the protocol delays and the cache timestamps. Defaults to
	// the wall clock.
	Clock Clock
	// Pins resolves a GPIO number passed to Bind. Defaults to the gpioreg
	// registry, which requires host.Init() to have been called.
	Pins func(number int) gpio.PinIO
	// PowerOn is the instant the sensor was powered. The sensor ignores start
	// signals during its first second. Zero means the moment New was called.
	PowerOn time.Time
	// PulseTimeout bounds every busy wait on the line. 0 means wait forever,
	// which hangs the caller if the sensor never releases the line.
	PulseTimeout time.Duration
}

// DefaultOpts holds the default configuration options for the device.
var DefaultOpts = Opts{}

// Dev is a DHT11 sensor on one data line.
//
// All methods are safe for concurrent use; transactions are serialized.
type Dev struct {
	opts  Opts
	clk   Clock
	pins  func(number int) gpio.PinIO
	boot  time.Time
	mu    sync.Mutex
	pin   gpio.PinIO
	num   int
	frame Frame
	// lastProbe is zero until a frame has been captured.
	lastProbe    time.Time
	valid        bool
	err          error
	transactions int

	stop chan struct{}
	wg   sync.WaitGroup
}

// New returns an unbound Dev. Call Bind before reading. The Opts can be nil.
func New(opts *Opts) *Dev {
	if opts == nil {
		opts = &DefaultOpts
	}
	d := &Dev{opts: *opts, clk: opts.Clock, pins: opts.Pins, num: -1}
	if d.clk == nil {
		d.clk = clock.New()
	}
	if d.pins == nil {
		d.pins = func(number int) gpio.PinIO {
			return gpioreg.ByName(strconv.Itoa(number))
		}
	}
	d.boot = opts.PowerOn
	if d.boot.IsZero() {
		d.boot = d.clk.Now()
	}
	d.err = ErrUnbound
	return d
}

// Bind attaches the sensor to the GPIO number. It may be called again to move
// the sensor to another pin.
//
// A number outside [0, MaxPin] is ignored and the current binding is kept.
// Bind does not return an error; use Bound to check the result and Err for
// the cause.
func (d *Dev) Bind(number int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if number < 0 || number > MaxPin {
		d.err = fmt.Errorf("%w: %d is not in [0, %d]", ErrInvalidPin, number, MaxPin)
		return
	}
	d.release()
	p := d.pins(number)
	if p == nil {
		d.err = fmt.Errorf("%w: no GPIO%d on this host", ErrInvalidPin, number)
		return
	}
	if err := p.In(gpio.Float, gpio.NoEdge); err != nil {
		d.err = fmt.Errorf("dht11: %w", err)
		return
	}
	d.pin = p
	d.num = number
	d.lastProbe = time.Time{}
	d.valid = false
	d.err = nil
}

// Unbind releases the data pin. It is a no-op if the Dev is not bound.
func (d *Dev) Unbind() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.release()
}

// release must be called with mu held.
func (d *Dev) release() {
	if d.pin == nil {
		return
	}
	_ = d.pin.In(gpio.Float, gpio.NoEdge)
	_ = d.pin.Halt()
	d.pin = nil
	d.num = -1
	d.valid = false
	d.err = ErrUnbound
}

// Bound returns the GPIO number in use and whether the Dev is bound.
func (d *Dev) Bound() (int, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.num, d.pin != nil
}

// Temperature returns the temperature in degrees Celsius, or Failure.
func (d *Dev) Temperature() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.refresh() != nil {
		return Failure
	}
	return d.frame.Temperature()
}

// Humidity returns the relative humidity in percent, or Failure.
func (d *Dev) Humidity() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.refresh() != nil {
		return Failure
	}
	return d.frame.Humidity()
}

// Sense implements physic.SenseEnv. It follows the same caching rules as
// Temperature and Humidity but reports why a reading is unavailable. The
// pressure is always 0.
func (d *Dev) Sense(e *physic.Env) error {
	e.Temperature = 0
	e.Pressure = 0
	e.Humidity = 0

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.refresh(); err != nil {
		return err
	}
	d.frame.env(e)
	return nil
}

// SenseContinuous implements physic.SenseEnv. It returns a channel that
// receives a measurement every interval; failed readings are skipped. The
// minimum interval is StalenessWindow. Call Halt to stop.
func (d *Dev) SenseContinuous(interval time.Duration) (<-chan physic.Env, error) {
	if interval < StalenessWindow {
		return nil, fmt.Errorf("dht11: invalid interval %s, minimum %s", interval, StalenessWindow)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop != nil {
		return nil, errors.New("dht11: sense continuous already running")
	}
	stop := make(chan struct{})
	d.stop = stop
	ch := make(chan physic.Env)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer close(ch)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				var e physic.Env
				if err := d.Sense(&e); err != nil {
					continue
				}
				select {
				case ch <- e:
				case <-stop:
					return
				}
			}
		}
	}()
	return ch, nil
}

// Halt stops a running SenseContinuous. It implements conn.Resource; the
// data pin stays bound.
func (d *Dev) Halt() error {
	d.mu.Lock()
	stop := d.stop
	d.stop = nil
	d.mu.Unlock()
	if stop != nil {
		close(stop)
		d.wg.Wait()
	}
	return nil
}

// Precision implements physic.SenseEnv.
func (d *Dev) Precision(e *physic.Env) {
	e.Temperature = physic.Celsius
	e.Pressure = 0
	e.Humidity = physic.PercentRH
}

// Frame returns the last captured frame and whether it is valid. It never
// triggers a transaction.
func (d *Dev) Frame() (Frame, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frame, d.valid
}

// Transactions returns the number of transactions attempted on the line.
func (d *Dev) Transactions() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.transactions
}

// Err returns the cause of the last failure, or nil if the last query
// succeeded.
func (d *Dev) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

func (d *Dev) String() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pin == nil {
		return "dht11{unbound}"
	}
	return fmt.Sprintf("dht11{%s}", d.pin)
}

// refresh runs a transaction if the cache is stale. A failed transaction
// invalidates the cache even if the previous frame was good.
//
// Must be called with mu held.
func (d *Dev) refresh() error {
	if d.pin == nil {
		d.err = ErrUnbound
		return d.err
	}
	if d.lastProbe.IsZero() || d.clk.Now().Sub(d.lastProbe) > StalenessWindow {
		d.err = d.transact()
		d.valid = d.err == nil
	}
	if !d.valid {
		return d.err
	}
	return nil
}

// transact runs one full exchange with the sensor.
func (d *Dev) transact() error {
	d.transactions++
	if err := d.startSignal(); err != nil {
		return err
	}
	if err := d.awaitResponse(); err != nil {
		return err
	}
	var f Frame
	if err := d.captureFrame(&f); err != nil {
		return err
	}
	d.lastProbe = d.clk.Now()
	if !f.Valid() {
		return fmt.Errorf("%w: got %#02x, want %#02x", ErrChecksumMismatch, f[checksum], f.Checksum())
	}
	d.frame = f
	return nil
}

// startSignal wakes the sensor and leaves the line as an input.
func (d *Dev) startSignal() error {
	if err := d.pin.Out(gpio.High); err != nil {
		return fmt.Errorf("dht11: %w", err)
	}
	if up := d.clk.Now().Sub(d.boot); up < warmUp {
		d.clk.Sleep(warmUp - up)
	}
	if err := d.pin.Out(gpio.Low); err != nil {
		return fmt.Errorf("dht11: %w", err)
	}
	d.clk.Sleep(wakeLow)
	if err := d.pin.Out(gpio.High); err != nil {
		return fmt.Errorf("dht11: %w", err)
	}
	d.clk.Sleep(wakeRelease)
	if err := d.pin.In(gpio.Float, gpio.NoEdge); err != nil {
		return fmt.Errorf("dht11: %w", err)
	}
	return nil
}

// awaitResponse checks the low then high acknowledge pulses. There is no
// retry: any deviation fails the transaction.
func (d *Dev) awaitResponse() error {
	d.clk.Sleep(responseDelay)
	if d.pin.Read() != gpio.Low {
		return fmt.Errorf("%w: no acknowledge", ErrHandshakeTimeout)
	}
	d.clk.Sleep(readyDelay)
	if d.pin.Read() != gpio.High {
		return fmt.Errorf("%w: no ready pulse", ErrHandshakeTimeout)
	}
	if !d.waitWhile(gpio.High) {
		return fmt.Errorf("%w: ready pulse too long", ErrHandshakeTimeout)
	}
	return nil
}

// captureFrame samples 40 bits, most significant bit first.
func (d *Dev) captureFrame(f *Frame) error {
	*f = Frame{}
	for i := range bits {
		if !d.waitWhile(gpio.Low) {
			return fmt.Errorf("%w: bit %d never started", ErrHandshakeTimeout, i)
		}
		d.clk.Sleep(bitSample)
		if d.pin.Read() == gpio.High {
			f[i/8] |= 1 << (7 - i%8)
		}
		if !d.waitWhile(gpio.High) {
			return fmt.Errorf("%w: bit %d never ended", ErrHandshakeTimeout, i)
		}
	}
	return nil
}

// waitWhile polls the line until it leaves level l. It returns false only if
// Opts.PulseTimeout is set and elapsed first.
func (d *Dev) waitWhile(l gpio.Level) bool {
	if d.opts.PulseTimeout <= 0 {
		for d.pin.Read() == l {
		}
		return true
	}
	deadline := d.clk.Now().Add(d.opts.PulseTimeout)
	for d.pin.Read() == l {
		if d.clk.Now().After(deadline) {
			return false
		}
	}
	return true
}

var _ conn.Resource = &Dev{}
var _ physic.SenseEnv = &Dev{}
