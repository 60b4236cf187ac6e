// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// dht11 reads temperature and humidity from a DHT11 sensor.
//
// Usage:
//
//	dht11 read --pin 4
//	dht11 watch --pin 4 --interval 5s --gauge
//
// Flags can also be set with DHT11_* environment variables or a dht11.yaml
// file in /etc/dht11, $HOME/.dht11 or the working directory.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd(newApp(openSensor)).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "dht11:", err)
		os.Exit(1)
	}
}
