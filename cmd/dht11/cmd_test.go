// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/GermanBionicSystems/sensorline/dht11"
	"github.com/benbjohnson/clock"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
)

// run executes the command line with a quiet logger and returns its output.
func run(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	a.log = zap.NewNop()
	var out bytes.Buffer
	root := newRootCmd(a)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRead(t *testing.T) {
	out, err := run(t, newApp(openSensor), "read", "--simulate", "--pin", "7")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff("temperature=21.5°C humidity=45.0%\n", out); diff != "" {
		t.Errorf("read output mismatch (-want +got):\n%s", diff)
	}
}

func TestReadInvalidPin(t *testing.T) {
	_, err := run(t, newApp(openSensor), "read", "--simulate", "--pin", "30")
	if !errors.Is(err, dht11.ErrInvalidPin) {
		t.Errorf("read --pin 30 = %v, want %v", err, dht11.ErrInvalidPin)
	}
}

func TestReadFromEnv(t *testing.T) {
	t.Setenv("DHT11_SIMULATE", "true")
	t.Setenv("DHT11_PIN", "99")
	if _, err := run(t, newApp(openSensor), "read"); err == nil {
		t.Error("read accepted DHT11_PIN=99")
	}
}

func TestConfigFile(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "dht11.yaml")
	if err := os.WriteFile(cfg, []byte("pin: 17\nsimulate: true\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	a := newApp(openSensor)
	if _, err := run(t, a, "read", "--config", cfg); err != nil {
		t.Fatal(err)
	}
	if got := a.v.GetInt("pin"); got != 17 {
		t.Errorf("pin = %d, want 17 from %s", got, cfg)
	}

	if _, err := run(t, newApp(openSensor), "read", "--config", filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing config file accepted")
	}
}

func TestWatch(t *testing.T) {
	mock := clock.NewMock()
	a := newApp(openSensor)
	a.clock = mock
	done := make(chan error, 1)
	var out string
	go func() {
		var err error
		out, err = run(t, a, "watch", "--simulate", "--interval", "3s", "--count", "3")
		done <- err
	}()
	for finished := false; !finished; {
		mock.Add(3 * time.Second)
		select {
		case err := <-done:
			if err != nil {
				t.Fatal(err)
			}
			finished = true
		case <-time.After(10 * time.Millisecond):
		}
	}
	want := []string{
		"temperature=21.5°C humidity=45.0%",
		"temperature=21.7°C humidity=46.0%",
		"temperature=21.8°C humidity=46.0%",
	}
	if diff := cmp.Diff(want, strings.Split(strings.TrimSpace(out), "\n")); diff != "" {
		t.Errorf("watch output mismatch (-want +got):\n%s", diff)
	}
}

func TestWatchShortInterval(t *testing.T) {
	if _, err := run(t, newApp(openSensor), "watch", "--simulate", "--interval", "1s"); err == nil {
		t.Error("watch accepted a 1s interval")
	}
}
