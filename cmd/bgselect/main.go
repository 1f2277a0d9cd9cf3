// Copyright (C) 2020 the Efibootguard Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Command bgselect runs boot-config selection against the machine's config
// partitions and prints the resulting loader parameters. Intended to run
// from an initramfs, before the root fs is chosen.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/earlchew/efibootguard/pkg/bootsel"
	"github.com/earlchew/efibootguard/pkg/hostdisk"
	"github.com/earlchew/efibootguard/pkg/log"
)

// must run as root - block devices and mounts are not accessible otherwise
func main() {
	logFile := flag.String("log", "", "also write log to this file")
	flag.Parse()

	log.AddConsoleLog(0)
	if *logFile != "" {
		if err := log.AddFileLog(*logFile); err != nil {
			log.Logf("cannot log to %s: %s", *logFile, err)
		}
	}
	log.FlushMemLog()
	defer log.Finalize()

	vols, platform, err := hostdisk.Discover()
	if err != nil {
		log.Fatalf("discovering config partitions: %s", err)
	}
	defer platform.Release()

	params, verdict := bootsel.Select(platform, vols)
	log.Logf("verdict: %s", verdict)
	if verdict == bootsel.ConfigError {
		platform.Release()
		log.Finalize()
		os.Exit(1)
	}

	fmt.Printf("kernel=%s\n", params.PayloadPath)
	fmt.Printf("args=%s\n", params.PayloadOptions)
	fmt.Printf("watchdog=%d\n", int(params.Timeout.Seconds()))
}
