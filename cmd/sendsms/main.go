// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

// sendsms sends a single SMS text message through the modem, without
// bringing up a GPRS session.
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

func main() {
	dev := flag.String("d", "/dev/ttyUSB0", "path to modem device")
	baud := flag.Int("b", 115200, "baud rate")
	number := flag.String("n", "", "destination number")
	timeout := flag.Duration("t", 30*time.Second, "send timeout")
	flag.Parse()
	text := flag.Arg(0)
	if *number == "" || text == "" {
		fmt.Fprintln(os.Stderr, "usage: sendsms -n <number> \"message text\"")
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

	ok := d.SMS().Send(context.Background(), *number, text, *timeout)
	if !ok {
		log.Fatal("send failed")
	}
	fmt.Println("sent")
}
