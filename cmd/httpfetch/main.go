// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

// httpfetch opens a data session over the modem's GPRS bearer and issues
// a single HTTP GET or POST, printing the status and body.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/warthog618/sim800/device"
	"github.com/warthog618/sim800/serial"
)

func main() {
	dev := flag.String("d", "/dev/ttyUSB0", "path to modem device")
	baud := flag.Int("b", 115200, "baud rate")
	apn := flag.String("apn", "", "GPRS access point name")
	url := flag.String("url", "", "URL to fetch")
	method := flag.String("method", "GET", "GET or POST")
	body := flag.String("body", "", "request body, for POST")
	contentType := flag.String("content-type", "text/plain", "request content type, for POST")
	verbose := flag.Bool("v", false, "log modem interactions")
	flag.Parse()
	if *apn == "" || *url == "" {
		fmt.Fprintln(os.Stderr, "usage: httpfetch -apn <apn> -url <url> [-method GET|POST] [-body <text>]")
		os.Exit(2)
	}

	port, err := serial.New(serial.WithPort(*dev), serial.WithBaud(*baud))
	if err != nil {
		log.Fatal(err)
	}
	defer port.Close()

	opts := []device.Option{}
	if *verbose {
		opts = append(opts, device.WithLogger(log.New(os.Stderr, "", log.LstdFlags)))
	}
	d, err := device.Open(port, opts...)
	if err != nil {
		log.Fatal(err)
	}
	defer d.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	s, err := d.Session(ctx, *apn)
	if err != nil {
		log.Fatal(err)
	}
	defer s.Exit(ctx)

	switch *method {
	case "GET":
		r, err := s.HTTPGet(ctx, *url, nil)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println("status:", r.Status)
		_, _ = io.WriteString(os.Stdout, string(r.Body)+"\n")
	case "POST":
		r, err := s.HTTPPost(ctx, *url, []byte(*body), *contentType, nil)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println("status:", r.Status)
		_, _ = io.WriteString(os.Stdout, string(r.Body)+"\n")
	default:
		log.Fatalf("unsupported method %q", *method)
	}
}
