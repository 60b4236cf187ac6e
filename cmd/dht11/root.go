// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/GermanBionicSystems/sensorline/dht11"
	"github.com/GermanBionicSystems/sensorline/dht11/dht11test"
	"github.com/benbjohnson/clock"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"periph.io/x/host/v3"
)

// app holds the state shared by the subcommands.
type app struct {
	v     *viper.Viper
	log   *zap.Logger
	out   io.Writer
	clock clock.Clock
	open  opener

	// advance moves a simulated sensor's clock along with the wall clock. It
	// is nil for real hardware.
	advance func(d time.Duration)
}

// opener returns a Dev bound to the configured pin.
type opener func(a *app) (*dht11.Dev, error)

func newApp(open opener) *app {
	return &app{v: viper.New(), clock: clock.New(), open: open}
}

func newRootCmd(a *app) *cobra.Command {
	var cfgFile string
	root := &cobra.Command{
		Use:   "dht11",
		Short: "Read a DHT11 temperature/humidity sensor",
		Long: `dht11 reads an Aosong DHT11 sensor wired to a single GPIO line.

The sensor is sampled at most once every two seconds; faster queries are
answered from the last frame.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.out = cmd.OutOrStdout()
			if err := a.initConfig(cfgFile); err != nil {
				return err
			}
			return a.initLogger()
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is dht11.yaml)")
	root.PersistentFlags().Int("pin", 4, "GPIO number of the sensor data line")
	root.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	root.PersistentFlags().Bool("simulate", false, "Use a simulated sensor instead of the hardware")
	_ = a.v.BindPFlags(root.PersistentFlags())

	root.AddCommand(newReadCmd(a), newWatchCmd(a))
	return root
}

// initConfig reads in config file and ENV variables if set.
func (a *app) initConfig(cfgFile string) error {
	a.v.SetEnvPrefix("DHT11")
	a.v.AutomaticEnv()
	if cfgFile != "" {
		a.v.SetConfigFile(cfgFile)
	} else {
		a.v.SetConfigName("dht11")
		a.v.AddConfigPath("/etc/dht11/")
		a.v.AddConfigPath("$HOME/.dht11/")
		a.v.AddConfigPath(".")
	}
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("config: %w", err)
		}
	}
	return nil
}

func (a *app) initLogger() error {
	if a.log != nil {
		return nil
	}
	cfg := zap.NewProductionConfig()
	if a.v.GetBool("verbose") {
		cfg = zap.NewDevelopmentConfig()
	}
	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	a.log = l
	if f := a.v.ConfigFileUsed(); f != "" {
		a.log.Debug("using config file", zap.String("file", f))
	}
	return nil
}

// sensor opens the sensor and logs the outcome.
func (a *app) sensor() (*dht11.Dev, error) {
	d, err := a.open(a)
	if err != nil {
		a.log.Error("cannot open sensor", zap.Int("pin", a.v.GetInt("pin")), zap.Error(err))
		return nil, err
	}
	a.log.Debug("sensor ready", zap.Stringer("dev", d))
	return d, nil
}

// openSensor binds a Dev on the host GPIO registry, or on a simulated sensor
// when --simulate is set.
func openSensor(a *app) (*dht11.Dev, error) {
	pin := a.v.GetInt("pin")
	var d *dht11.Dev
	if a.v.GetBool("simulate") {
		s := dht11test.New(pin)
		s.Queue(dht11test.Measure(45, 0, 21, 5), dht11test.Measure(46, 0, 21, 7), dht11test.Measure(46, 0, 21, 8))
		a.advance = s.Advance
		d = dht11.New(&dht11.Opts{Clock: s, Pins: s.PinByNumber, PulseTimeout: time.Millisecond})
	} else {
		if _, err := host.Init(); err != nil {
			return nil, err
		}
		d = dht11.New(nil)
	}
	d.Bind(pin)
	if _, ok := d.Bound(); !ok {
		return nil, d.Err()
	}
	return d, nil
}
