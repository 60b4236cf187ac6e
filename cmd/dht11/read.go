// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/GermanBionicSystems/sensorline/dht11"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/physic"
)

func newReadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "read",
		Short: "Print one reading",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.sensor()
			if err != nil {
				return err
			}
			defer d.Unbind()
			return a.report(d)
		},
	}
}

// report prints the current reading of d.
func (a *app) report(d *dht11.Dev) error {
	var e physic.Env
	if err := d.Sense(&e); err != nil {
		a.log.Warn("reading failed", zap.Stringer("dev", d), zap.Int("transactions", d.Transactions()), zap.Error(err))
		return err
	}
	f, _ := d.Frame()
	a.log.Debug("frame", zap.Stringer("frame", f), zap.Stringer("temperature", e.Temperature), zap.Stringer("humidity", e.Humidity))
	_, err := fmt.Fprintf(a.out, "temperature=%.1f°C humidity=%.1f%%\n", f.Temperature(), f.Humidity())
	return err
}
