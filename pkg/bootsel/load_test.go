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
	"github.com/earlchew/efibootguard/pkg/log/testlog"
)

// func readConfig(p Platform, vol Volume, env *bootenv.EnvData) (bool, error)
func TestReadConfigGood(t *testing.T) {
	tlog := testlog.NewTestLog(t, true)
	defer tlog.Freeze()
	p := newFakePlatform()
	vol := p.addVolume(t, 0, "d0p1", env(t, 4, bootenv.UStateOK, false), false)

	var e bootenv.EnvData
	errored, err := readConfig(p, vol, &e)
	if err != nil || errored {
		t.Fatalf("errored=%v err=%v", errored, err)
	}
	if e.Revision != 4 || e.UState != bootenv.UStateOK {
		t.Errorf("bad decode: %+v", e)
	}
}

func TestReadConfigOpenFailure(t *testing.T) {
	tlog := testlog.NewTestLog(t, true)
	defer tlog.Freeze()
	p := newFakePlatform()
	vol := p.addVolume(t, 0, "d0p1", env(t, 4, bootenv.UStateOK, false), false)
	p.failAt["open"] = 1

	var e bootenv.EnvData
	errored, err := readConfig(p, vol, &e)
	if err == nil || !errored {
		t.Errorf("open failure: errored=%v err=%v, want both set", errored, err)
	}
}

func TestReadConfigReadFailure(t *testing.T) {
	tlog := testlog.NewTestLog(t, true)
	defer tlog.Freeze()
	p := newFakePlatform()
	vol := p.addVolume(t, 0, "d0p1", env(t, 4, bootenv.UStateOK, false), false)
	p.failAt["read"] = 1

	var e bootenv.EnvData
	errored, err := readConfig(p, vol, &e)
	if err == nil || !errored {
		t.Errorf("read failure: errored=%v err=%v, want both set", errored, err)
	}
}

func TestReadConfigShortFile(t *testing.T) {
	tlog := testlog.NewTestLog(t, true)
	defer tlog.Freeze()
	p := newFakePlatform()
	vol := p.addVolume(t, 0, "d0p1", env(t, 4, bootenv.UStateOK, false), false)
	p.vols[0].data = p.vols[0].data[:100]

	var e bootenv.EnvData
	errored, err := readConfig(p, vol, &e)
	if err != bootenv.EBadLength || !errored {
		t.Errorf("short file: errored=%v err=%v, want EBadLength", errored, err)
	}
}

func TestReadConfigBadCRC(t *testing.T) {
	tlog := testlog.NewTestLog(t, true)
	defer tlog.Freeze()
	p := newFakePlatform()
	vol := p.addVolume(t, 0, "d0p1", env(t, 4, bootenv.UStateOK, false), true)

	var e bootenv.EnvData
	errored, err := readConfig(p, vol, &e)
	if err != bootenv.EBadCRC || !errored {
		t.Errorf("corrupt file: errored=%v err=%v, want EBadCRC", errored, err)
	}
}

func TestReadConfigCRCSeamFailure(t *testing.T) {
	tlog := testlog.NewTestLog(t, true)
	defer tlog.Freeze()
	p := newFakePlatform()
	vol := p.addVolume(t, 0, "d0p1", env(t, 4, bootenv.UStateOK, false), false)
	p.failAt["crc"] = 1

	var e bootenv.EnvData
	errored, err := readConfig(p, vol, &e)
	if err != errInjected || !errored {
		t.Errorf("crc seam failure: errored=%v err=%v", errored, err)
	}
}

// A failed close after a successful read is a warning: the record is still
// usable, but the anomaly must surface in the errored flag.
func TestReadConfigCloseFailureAfterGoodRead(t *testing.T) {
	tlog := testlog.NewTestLog(t, true)
	defer tlog.Freeze()
	p := newFakePlatform()
	vol := p.addVolume(t, 0, "d0p1", env(t, 4, bootenv.UStateOK, false), false)
	p.failAt["close"] = 1

	var e bootenv.EnvData
	errored, err := readConfig(p, vol, &e)
	if err != nil {
		t.Fatalf("close-after-read failure must not discard the record: %s", err)
	}
	if !errored {
		t.Error("close failure must set the errored flag")
	}
	if e.Revision != 4 {
		t.Errorf("record not decoded: %+v", e)
	}
}

// A failed close on top of a failed read stays a hard error.
func TestReadConfigCloseAndReadFailure(t *testing.T) {
	tlog := testlog.NewTestLog(t, true)
	defer tlog.Freeze()
	p := newFakePlatform()
	vol := p.addVolume(t, 0, "d0p1", env(t, 4, bootenv.UStateOK, false), false)
	p.failAt["read"] = 1
	p.failAt["close"] = 1

	var e bootenv.EnvData
	errored, err := readConfig(p, vol, &e)
	if err == nil || !errored {
		t.Errorf("errored=%v err=%v, want both set", errored, err)
	}
}
