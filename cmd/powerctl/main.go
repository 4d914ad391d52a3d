// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

// powerctl drives the modem's power and sleep commands: functionality
// level, auto-sleep, and power-down.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/warthog618/sim800/device"
	"github.com/warthog618/sim800/serial"
)

func main() {
	dev := flag.String("d", "/dev/ttyUSB0", "path to modem device")
	baud := flag.Int("b", 115200, "baud rate")
	flag.Parse()
	action := flag.Arg(0)
	if action == "" {
		fmt.Fprintln(os.Stderr, "usage: powerctl [-d dev] [-b baud] sleep|wake|minimal|full|down")
		os.Exit(2)
	}

	port, err := serial.New(serial.WithPort(*dev), serial.WithBaud(*baud))
	if err != nil {
		log.Fatal(err)
	}
	defer port.Close()

	d, err := device.Open(port)
	if err != nil {
		log.Fatal(err)
	}
	defer d.Close()

	ctx := context.Background()
	p := d.Power()
	switch action {
	case "sleep":
		err = p.EnableAutoSleep(ctx)
	case "wake":
		err = p.Wake(ctx)
	case "minimal":
		err = p.MinimumFunctionality(ctx)
	case "full":
		err = p.FullFunctionality(ctx)
	case "down":
		err = p.PowerDown(ctx, 1)
	default:
		log.Fatalf("unknown action %q", action)
	}
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("ok")
}
