// Copyright (C) 2020 the Efibootguard Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package bootsel

import (
	"time"

	"github.com/earlchew/efibootguard/pkg/log"
)

// Select inspects the config partitions among volumes, chooses the record
// to boot with, and records the consequences of that choice on disk. On
// Success or PartiallyCorrupted the returned params are freshly owned; on
// ConfigError they are nil and the caller's previous parameters stand.
func Select(p Platform, volumes []Volume) (*LoaderParams, Verdict) {
	errored := false

	if len(volumes) == 0 {
		log.Logf("no volumes available for config partitions")
		return nil, ConfigError
	}

	indices, err := p.EnumerateConfigParts(volumes)
	if err != nil {
		log.Logf("could not enumerate config partitions: %s", err)
		return nil, ConfigError
	}

	indices = p.FilterConfigParts(volumes, indices)

	if len(indices) != NumConfigParts {
		log.Logf("unexpected config partitions: found %d, but expected %d",
			len(indices), NumConfigParts)
		// Not treated as fatal: we may still find a valid config.
		errored = true
	}

	// Find all the viable configs, and place the most preferred in
	// rank[0], with the next preferred in rank[1]. rank[envSlots-1] is
	// scratch for each volume read, taken from the reserve pool whenever
	// sift has left it empty.
	var pool [envSlots]candidate
	var rank [envSlots]*candidate
	reserve := pool[:]

	for _, ix := range indices {
		if ix < 0 || ix >= len(volumes) {
			log.Logf("enumeration produced bad volume index %d", ix)
			errored = true
			continue
		}
		scratch := rank[envSlots-1]
		if scratch == nil {
			scratch, reserve = &reserve[0], reserve[1:]
			rank[envSlots-1] = scratch
		}
		scratch.vol = volumes[ix]

		log.Logf("reading config file on volume %d", scratch.vol.Index)

		readErr, err := readConfig(p, scratch.vol, &scratch.env)
		errored = errored || readErr
		if err != nil {
			log.Logf("could not read environment file on config partition %d", ix)
			continue
		}

		// enforce NUL-termination of strings
		scratch.env.TerminateStrings()

		// Sift the most recently read config data to compare it to the
		// ones already read.
		sift(p, rank[:])
	}

	latest, terr, err := transition(p, rank[0], rank[1])
	errored = errored || terr
	if err != nil {
		return nil, ConfigError
	}

	bglp := &LoaderParams{
		PayloadPath:    latest.env.Kernel(),
		PayloadOptions: latest.env.Params(),
		Timeout:        time.Duration(latest.env.WatchdogSec) * time.Second,
	}

	log.Logf("choosing config on volume %d", latest.vol.Index)
	log.Logf("config revision: %d", latest.env.Revision)
	log.Logf(" ustate: %s", latest.env.UState)
	log.Logf(" kernel: %s", bglp.PayloadPath)
	log.Logf(" args: %s", bglp.PayloadOptions)
	log.Logf(" timeout: %s", bglp.Timeout)

	if errored {
		return bglp, PartiallyCorrupted
	}
	return bglp, Success
}
