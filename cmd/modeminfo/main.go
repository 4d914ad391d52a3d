// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

// modeminfo collects and displays information about a connected SIM800
// modem: signal, SIM identity, operator, firmware, battery, and location.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/warthog618/sim800/device"
	"github.com/warthog618/sim800/serial"
)

var version = "undefined"

func main() {
	dev := flag.String("d", "/dev/ttyUSB0", "path to modem device")
	baud := flag.Int("b", 115200, "baud rate")
	timeout := flag.Duration("t", 5*time.Second, "command timeout period")
	verbose := flag.Bool("v", false, "log modem interactions")
	vsn := flag.Bool("version", false, "report version and exit")
	flag.Parse()
	if *vsn {
		fmt.Printf("%s %s\n", os.Args[0], version)
		os.Exit(0)
	}

	port, err := serial.New(serial.WithPort(*dev), serial.WithBaud(*baud))
	if err != nil {
		log.Fatal(err)
	}
	defer port.Close()

	opts := []device.Option{device.WithTimeout(*timeout)}
	if *verbose {
		opts = append(opts, device.WithLogger(log.New(os.Stderr, "", log.LstdFlags)))
	}
	d, err := device.Open(port, opts...)
	if err != nil {
		log.Fatal(err)
	}
	defer d.Close()

	info, err := d.InfoAll(context.Background())
	if err != nil {
		log.Fatal(err)
	}
	for k, v := range info {
		fmt.Printf("%s: %v\n", k, v)
	}
}
