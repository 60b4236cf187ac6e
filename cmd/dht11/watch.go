// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/GermanBionicSystems/sensorline/dht11"
	"github.com/GermanBionicSystems/sensorline/gauge"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newWatchCmd(a *app) *cobra.Command {
	var interval time.Duration
	var count int
	var showGauge bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print a reading every interval until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval < dht11.StalenessWindow {
				return fmt.Errorf("interval %s is shorter than the sensor minimum %s", interval, dht11.StalenessWindow)
			}
			d, err := a.sensor()
			if err != nil {
				return err
			}
			defer d.Unbind()

			var gauges []*gauge.Dev
			if showGauge {
				if gauges, err = a.gauges(); err != nil {
					return err
				}
				defer func() {
					for _, g := range gauges {
						_ = g.Halt()
					}
				}()
			}

			ticker := a.clock.Ticker(interval)
			defer ticker.Stop()
			ctx := cmd.Context()
			for n := 0; count <= 0 || n < count; {
				select {
				case <-ctx.Done():
					a.log.Debug("interrupted", zap.Int("readings", n))
					return nil
				case <-ticker.C:
					if a.advance != nil {
						a.advance(interval)
					}
					if err := a.show(d, gauges); err != nil {
						continue
					}
					n++
				}
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 3*time.Second, "time between readings, at least 2s")
	cmd.Flags().IntVar(&count, "count", 0, "stop after this many readings, 0 for no limit")
	cmd.Flags().BoolVar(&showGauge, "gauge", false, "draw colored bars when stdout is a terminal")
	return cmd
}

// gauges returns the temperature and humidity bars, or none when stdout is
// not a terminal.
func (a *app) gauges() ([]*gauge.Dev, error) {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		a.log.Info("stdout is not a terminal, gauges disabled")
		return nil, nil
	}
	t, err := gauge.New(&gauge.Opts{Width: 25, Min: 0, Max: 50})
	if err != nil {
		return nil, err
	}
	h, err := gauge.New(&gauge.Opts{Width: 25, Min: 0, Max: 100})
	if err != nil {
		return nil, err
	}
	return []*gauge.Dev{t, h}, nil
}

// show prints one reading, as text or on the gauges.
func (a *app) show(d *dht11.Dev, gauges []*gauge.Dev) error {
	if len(gauges) != 2 {
		return a.report(d)
	}
	t, h := d.Temperature(), d.Humidity()
	if t == dht11.Failure || h == dht11.Failure {
		a.log.Warn("reading failed", zap.Stringer("dev", d), zap.Error(d.Err()))
		return d.Err()
	}
	if err := gauges[0].Show("temperature", "°C", t); err != nil {
		return err
	}
	return gauges[1].Show("humidity", "%", h)
}
