// Copyright (C) 2020 the Efibootguard Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package bootsel

import (
	"github.com/earlchew/efibootguard/pkg/bootenv"
)

// candidate pairs a volume with the record read from it, for ranking.
type candidate struct {
	vol Volume
	env bootenv.EnvData
}

// Assign a rank to each of the update states. Prefer INSTALLED, then
// TESTING, over OK, but eschew FAILED and unknown.
func stateRank(env *bootenv.EnvData) uint {
	switch env.UState {
	case bootenv.UStateInstalled:
		return 0
	case bootenv.UStateTesting:
		return 1
	case bootenv.UStateOK:
		return 2
	}
	return 3
}

// swapNeeded reports whether rhs is preferred over lhs. Preferred is the
// configuration that is not in_progress, has the highest revision, and has
// the lower ranked state.
//
// If lhs and rhs are otherwise equal, prefer the copy on the boot volume,
// then the copy on the first occurring partition. This is relevant for
// scenarios where a backup is taken of the EFI System Partition, and the
// config is stored on the ESP.
func swapNeeded(p Platform, lhs, rhs *candidate) bool {
	switch {
	case rhs == nil:
		return false
	case lhs == nil:
		return true
	case lhs.env.InProgress != rhs.env.InProgress:
		return lhs.env.InProgress
	case lhs.env.Revision != rhs.env.Revision:
		return lhs.env.Revision < rhs.env.Revision
	}
	lrank := stateRank(&lhs.env)
	rrank := stateRank(&rhs.env)
	if lrank != rrank {
		return lrank > rrank
	}
	lboot := p.IsOnBootVolume(lhs.vol.DevPath)
	rboot := p.IsOnBootVolume(rhs.vol.DevPath)
	switch {
	case lboot != rboot:
		return rboot
	case lhs.vol.Index != rhs.vol.Index:
		return lhs.vol.Index > rhs.vol.Index
	}
	return false
}

// sift bubbles the most recently read candidate - in the last slot -
// leftward, so that after every insertion rank[0] is the most preferred
// candidate seen so far and rank[1] the runner-up.
func sift(p Platform, rank []*candidate) {
	for i := len(rank) - 2; i >= 0; i-- {
		if swapNeeded(p, rank[i], rank[i+1]) {
			rank[i], rank[i+1] = rank[i+1], rank[i]
		}
	}
}
