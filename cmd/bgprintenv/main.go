// Copyright (C) 2020 the Efibootguard Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Command bgprintenv decodes and prints boot environment records, either
// from files given on the command line or from the machine's config
// partitions. It never writes anything.
package main

import (
	"flag"
	"fmt"
	"os"
	fp "path/filepath"

	"github.com/earlchew/efibootguard/pkg/bootenv"
	"github.com/earlchew/efibootguard/pkg/hostdisk"
	"github.com/earlchew/efibootguard/pkg/log"
)

var verbose = flag.Bool("v", false, "also dump the userdata area")

func main() {
	flag.Parse()

	log.AddConsoleLog(0)
	log.FlushMemLog()

	files := flag.Args()
	if len(files) == 0 {
		vols, platform, err := hostdisk.Discover()
		if err != nil {
			log.Fatalf("discovering config partitions: %s", err)
		}
		defer platform.Release()
		for _, v := range vols {
			files = append(files, fp.Join(v.Root, hostdisk.ConfigFileName))
		}
	}
	if len(files) == 0 {
		log.Fatalf("no config partitions found")
	}

	bad := false
	for _, file := range files {
		if !printEnv(file) {
			bad = true
		}
	}
	if bad {
		os.Exit(1)
	}
}

// decode one file; returns false if unreadable or invalid
func printEnv(file string) bool {
	fmt.Printf("%s:\n", file)
	buf, err := os.ReadFile(file)
	if err != nil {
		fmt.Printf("  unreadable: %s\n", err)
		return false
	}
	env, err := bootenv.Decode(buf)
	if err != nil {
		fmt.Printf("  %s\n", err)
		return false
	}
	ok := true
	if err := bootenv.Validate(buf); err != nil {
		fmt.Printf("  WARNING: %s\n", err)
		ok = false
	}
	env.TerminateStrings()

	fmt.Printf("  revision:    %d\n", env.Revision)
	fmt.Printf("  ustate:      %s\n", env.UState)
	fmt.Printf("  in_progress: %v\n", env.InProgress)
	fmt.Printf("  watchdog:    %ds\n", env.WatchdogSec)
	fmt.Printf("  kernel:      %s\n", env.Kernel())
	fmt.Printf("  args:        %s\n", env.Params())
	fmt.Printf("  crc32:       %08x\n", env.CRC)
	if *verbose {
		fmt.Printf("  userdata:    %x\n", env.UserData)
	}
	return ok
}
