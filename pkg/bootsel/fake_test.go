// Copyright (C) 2020 the Efibootguard Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package bootsel

import (
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"testing"

	"github.com/earlchew/efibootguard/pkg/bootenv"
)

var errInjected = errors.New("injected failure")

// fakeVolume is the per-volume state behind fakePlatform: the raw config
// file content (nil means the volume has no config file at all) plus every
// write-back observed.
type fakeVolume struct {
	data   []byte
	writes [][]byte
}

// fakePlatform implements Platform in memory. Each failable seam
// (enumerate, open, read, write, shortwrite, close, crc) counts its calls
// and fails the k-th one when failAt[op] == k, so each injectable failure
// point can be exercised independently.
type fakePlatform struct {
	vols    map[int]*fakeVolume
	bootDev string //devpath identifying the boot volume
	failAt  map[string]int
	calls   map[string]int
	filter  func(vols []Volume, indices []int) []int
	opened  []*fakeFile
}

// assertNoOpenFiles fails the test if any file opened through the platform
// was left unclosed.
func (p *fakePlatform) assertNoOpenFiles(t *testing.T) {
	t.Helper()
	for i, f := range p.opened {
		if !f.closed {
			t.Errorf("file handle %d leaked (never closed)", i)
		}
	}
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		vols:   make(map[int]*fakeVolume),
		failAt: make(map[string]int),
		calls:  make(map[string]int),
	}
}

// fail reports whether this call to op is the one selected for injection.
func (p *fakePlatform) fail(op string) bool {
	p.calls[op]++
	return p.failAt[op] == p.calls[op]
}

func (p *fakePlatform) EnumerateConfigParts(vols []Volume) ([]int, error) {
	if p.fail("enumerate") {
		return nil, errInjected
	}
	var indices []int
	for i, v := range vols {
		if fv := p.vols[v.Index]; fv != nil && fv.data != nil {
			indices = append(indices, i)
		}
	}
	return indices, nil
}

func (p *fakePlatform) FilterConfigParts(vols []Volume, indices []int) []int {
	if p.filter != nil {
		return p.filter(vols, indices)
	}
	return indices
}

func (p *fakePlatform) IsOnBootVolume(devpath string) bool {
	return p.bootDev != "" && devpath == p.bootDev
}

func (p *fakePlatform) OpenConfig(vol Volume, write bool) (ConfigFile, error) {
	if p.fail("open") {
		return nil, errInjected
	}
	fv := p.vols[vol.Index]
	if fv == nil || fv.data == nil {
		return nil, fmt.Errorf("no config file on volume %d", vol.Index)
	}
	f := &fakeFile{p: p, fv: fv, write: write}
	p.opened = append(p.opened, f)
	return f, nil
}

func (p *fakePlatform) CRC32(buf []byte) (uint32, error) {
	if p.fail("crc") {
		return 0, errInjected
	}
	return crc32.ChecksumIEEE(buf), nil
}

type fakeFile struct {
	p      *fakePlatform
	fv     *fakeVolume
	write  bool
	off    int
	closed bool
}

func (f *fakeFile) Read(buf []byte) (int, error) {
	if f.p.fail("read") {
		return 0, errInjected
	}
	if f.off >= len(f.fv.data) {
		return 0, io.EOF
	}
	n := copy(buf, f.fv.data[f.off:])
	f.off += n
	return n, nil
}

func (f *fakeFile) Write(buf []byte) (int, error) {
	if f.p.fail("write") {
		return 0, errInjected
	}
	if f.p.fail("shortwrite") {
		f.fv.writes = append(f.fv.writes, append([]byte(nil), buf[:len(buf)/2]...))
		return len(buf) / 2, nil
	}
	if !f.write {
		return 0, errors.New("file not open for writing")
	}
	f.fv.writes = append(f.fv.writes, append([]byte(nil), buf...))
	return len(buf), nil
}

func (f *fakeFile) Close() error {
	if f.closed {
		return errors.New("double close")
	}
	f.closed = true
	if f.p.fail("close") {
		return errInjected
	}
	return nil
}

// env builds a record with the given shape; strings derive from the
// revision so tests can tell records apart by payload.
func env(t *testing.T, rev uint32, state bootenv.UState, inProgress bool) *bootenv.EnvData {
	t.Helper()
	e := &bootenv.EnvData{
		InProgress:  inProgress,
		UState:      state,
		WatchdogSec: uint16(30 + rev),
		Revision:    rev,
	}
	if err := e.SetKernel(fmt.Sprintf(`\EFI\kernel-rev%d`, rev)); err != nil {
		t.Fatal(err)
	}
	if err := e.SetParams(fmt.Sprintf("root=/dev/cfg%d ro", rev)); err != nil {
		t.Fatal(err)
	}
	return e
}

// addVolume encodes e onto volume index ix and returns the matching Volume.
// A nil e produces a volume without a config file; corrupt flips a byte
// after encoding.
func (p *fakePlatform) addVolume(t *testing.T, ix int, devpath string, e *bootenv.EnvData, corrupt bool) Volume {
	t.Helper()
	fv := &fakeVolume{}
	if e != nil {
		buf, err := e.Encode(bootenv.Checksum)
		if err != nil {
			t.Fatal(err)
		}
		if corrupt {
			buf[17] ^= 0xff
		}
		fv.data = buf
	}
	p.vols[ix] = fv
	return Volume{Index: ix, DevPath: devpath, Root: fmt.Sprintf("/vol%d", ix)}
}

// writesTo collects all write-backs observed across volumes, keyed by
// volume index.
func (p *fakePlatform) writesTo() map[int][][]byte {
	w := make(map[int][][]byte)
	for ix, fv := range p.vols {
		if len(fv.writes) > 0 {
			w[ix] = fv.writes
		}
	}
	return w
}

// decodeWrite decodes the only write-back on volume ix, failing the test
// unless there is exactly one and it validates.
func (p *fakePlatform) decodeWrite(t *testing.T, ix int) *bootenv.EnvData {
	t.Helper()
	fv := p.vols[ix]
	if fv == nil || len(fv.writes) != 1 {
		t.Fatalf("volume %d: expected exactly one write-back, have %v", ix, p.writesTo())
	}
	if err := bootenv.Validate(fv.writes[0]); err != nil {
		t.Fatalf("volume %d: write-back does not validate: %s", ix, err)
	}
	e, err := bootenv.Decode(fv.writes[0])
	if err != nil {
		t.Fatal(err)
	}
	return e
}
