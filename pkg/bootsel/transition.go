// Copyright (C) 2020 the Efibootguard Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package bootsel

import (
	"github.com/earlchew/efibootguard/pkg/bootenv"
	"github.com/earlchew/efibootguard/pkg/log"
)

// saveConfig writes env back to its volume: open read-write, one full
// record write, close. A short write is an error. The record's crc is
// recomputed through the platform seam before the buffer is handed to the
// file layer.
func saveConfig(p Platform, env *candidate) error {
	fh, err := p.OpenConfig(env.vol, true)
	if err != nil {
		log.Logf("could not open environment file on config partition %d: %s",
			env.vol.Index, err)
		return err
	}

	buf, err := env.env.Encode(p.CRC32)
	if err == nil {
		var n int
		n, err = fh.Write(buf)
		if err == nil && n != len(buf) {
			err = EShortWrite
		}
	}
	if err != nil {
		log.Logf("cannot write environment to file: %s", err)
		_ = fh.Close()
		return err
	}

	if err = fh.Close(); err != nil {
		log.Logf("could not close environment config file: %s", err)
		return err
	}
	return nil
}

// transition applies the update-state rules to the ranked candidates and
// returns the record to boot with.
//
// A leader in TESTING state was booted before and did not confirm: it is
// demoted on disk (FAILED, failed revision) and the runner-up - the
// configuration that was active before - takes its place. A leader in
// INSTALLED state has never been booted: it is marked TESTING on disk so
// the next boot can tell whether this one succeeded.
//
// Write-back failures degrade the verdict but never change the choice.
func transition(p Platform, next, prev *candidate) (choice *candidate, errored bool, err error) {
	// Assume we boot with the latest configuration. Environments that are
	// in_progress are ranked lower. Ensure that there is a most preferred
	// environment, and it is not still in_progress.
	if next == nil || next.env.InProgress {
		log.Logf("could not find any valid config partition")
		return nil, errored, ENoConfig
	}

	latest := next

	switch latest.env.UState {
	case bootenv.UStateTesting:
		// Already booted, so this indicates a failed update. Mark it
		// failed with a sunken revision.
		latest.env.UState = bootenv.UStateFailed
		latest.env.Revision = bootenv.RevisionFailed
		if err := saveConfig(p, latest); err != nil {
			errored = true
		}
		// We must boot with the configuration that was active before if
		// possible, otherwise give up.
		if prev == nil {
			log.Logf("could not find previous valid config partition")
			return nil, errored, ENoConfig
		}
		latest = prev

	case bootenv.UStateInstalled:
		// Never booted with this configuration; record that it is now
		// being tested.
		latest.env.UState = bootenv.UStateTesting
		if err := saveConfig(p, latest); err != nil {
			errored = true
		}
	}

	return latest, errored, nil
}
