// Copyright (C) 2020 the Efibootguard Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package bootsel

import (
	"testing"

	"github.com/earlchew/efibootguard/pkg/bootenv"
)

func cand(ix int, devpath string, rev uint32, state bootenv.UState, inProgress bool) *candidate {
	return &candidate{
		vol: Volume{Index: ix, DevPath: devpath},
		env: bootenv.EnvData{Revision: rev, UState: state, InProgress: inProgress},
	}
}

// func swapNeeded(p Platform, lhs, rhs *candidate) bool
func TestSwapNeeded(t *testing.T) {
	p := newFakePlatform()
	p.bootDev = "disk0p1"

	cases := []struct {
		desc     string
		lhs, rhs *candidate
		swap     bool
	}{
		{"present beats absent", cand(0, "x", 1, bootenv.UStateOK, false), nil, false},
		{"absent loses to present", nil, cand(0, "x", 1, bootenv.UStateOK, false), true},
		{"both absent", nil, nil, false},
		{"in_progress loses",
			cand(0, "x", 9, bootenv.UStateOK, true),
			cand(1, "y", 1, bootenv.UStateOK, false), true},
		{"in_progress stays right",
			cand(0, "x", 1, bootenv.UStateOK, false),
			cand(1, "y", 9, bootenv.UStateOK, true), false},
		{"higher revision wins",
			cand(0, "x", 1, bootenv.UStateOK, false),
			cand(1, "y", 2, bootenv.UStateOK, false), true},
		{"failed revision sinks",
			cand(0, "x", bootenv.RevisionFailed, bootenv.UStateOK, false),
			cand(1, "y", 1, bootenv.UStateFailed, false), true},
		{"installed beats testing",
			cand(0, "x", 5, bootenv.UStateTesting, false),
			cand(1, "y", 5, bootenv.UStateInstalled, false), true},
		{"testing beats ok",
			cand(0, "x", 5, bootenv.UStateOK, false),
			cand(1, "y", 5, bootenv.UStateTesting, false), true},
		{"ok beats failed",
			cand(0, "x", 5, bootenv.UStateFailed, false),
			cand(1, "y", 5, bootenv.UStateOK, false), true},
		{"ok beats unknown",
			cand(0, "x", 5, bootenv.UState(200), false),
			cand(1, "y", 5, bootenv.UStateOK, false), true},
		{"boot volume wins tie",
			cand(0, "disk1p1", 5, bootenv.UStateOK, false),
			cand(1, "disk0p1", 5, bootenv.UStateOK, false), true},
		{"lower index wins full tie",
			cand(3, "a", 5, bootenv.UStateOK, false),
			cand(1, "b", 5, bootenv.UStateOK, false), true},
		{"identical: no swap",
			cand(1, "a", 5, bootenv.UStateOK, false),
			cand(1, "a", 5, bootenv.UStateOK, false), false},
	}
	for _, tc := range cases {
		if got := swapNeeded(p, tc.lhs, tc.rhs); got != tc.swap {
			t.Errorf("%s: swapNeeded = %v, want %v", tc.desc, got, tc.swap)
		}
	}
}

// revision dominates state rank
func TestRevisionBeatsState(t *testing.T) {
	p := newFakePlatform()
	lhs := cand(0, "x", 2, bootenv.UStateOK, false)
	rhs := cand(1, "y", 1, bootenv.UStateInstalled, false)
	if swapNeeded(p, lhs, rhs) {
		t.Error("lower-revision INSTALLED should not displace higher-revision OK")
	}
}

// func sift(p Platform, rank []*candidate)
func TestSiftMaintainsTopTwo(t *testing.T) {
	p := newFakePlatform()
	var rank [envSlots]*candidate

	insert := func(c *candidate) {
		rank[envSlots-1] = c
		sift(p, rank[:])
	}

	insert(cand(0, "a", 1, bootenv.UStateOK, false))
	insert(cand(1, "b", 3, bootenv.UStateOK, false))
	insert(cand(2, "c", 2, bootenv.UStateOK, false))

	if rank[0] == nil || rank[0].env.Revision != 3 {
		t.Fatalf("rank[0] should hold revision 3, have %+v", rank[0])
	}
	if rank[1] == nil || rank[1].env.Revision != 2 {
		t.Fatalf("rank[1] should hold revision 2, have %+v", rank[1])
	}
}

func TestStateRank(t *testing.T) {
	ranks := map[bootenv.UState]uint{
		bootenv.UStateInstalled: 0,
		bootenv.UStateTesting:   1,
		bootenv.UStateOK:        2,
		bootenv.UStateFailed:    3,
		bootenv.UState(42):      3,
	}
	for state, want := range ranks {
		e := &bootenv.EnvData{UState: state}
		if got := stateRank(e); got != want {
			t.Errorf("%s: rank %d, want %d", state, got, want)
		}
	}
}
