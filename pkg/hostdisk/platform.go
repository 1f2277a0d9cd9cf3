// Copyright (C) 2020 the Efibootguard Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package hostdisk

import (
	"hash/crc32"
	"os"
	fp "path/filepath"

	"github.com/earlchew/efibootguard/pkg/bootsel"

	"golang.org/x/sys/unix"
)

var _ bootsel.Platform = (*HostPlatform)(nil)

func (p *HostPlatform) EnumerateConfigParts(vols []bootsel.Volume) ([]int, error) {
	var indices []int
	for i, v := range vols {
		if _, err := os.Stat(fp.Join(v.Root, ConfigFileName)); err == nil {
			indices = append(indices, i)
		}
	}
	return indices, nil
}

// FilterConfigParts drops config copies on removable media; a usb stick
// with a cloned ESP must not influence boot.
func (p *HostPlatform) FilterConfigParts(vols []bootsel.Volume, indices []int) []int {
	keep := indices[:0]
	for _, ix := range indices {
		if removable(parentDisk(vols[ix].DevPath)) {
			continue
		}
		keep = append(keep, ix)
	}
	return keep
}

func (p *HostPlatform) IsOnBootVolume(devpath string) bool {
	return p.bootDisk != "" && parentDisk(devpath) == p.bootDisk
}

func (p *HostPlatform) OpenConfig(vol bootsel.Volume, write bool) (bootsel.ConfigFile, error) {
	flags := os.O_RDONLY
	if write {
		flags = os.O_RDWR
	}
	f, err := os.OpenFile(fp.Join(vol.Root, ConfigFileName), flags, 0644)
	if err != nil {
		return nil, err
	}
	return &hostConfigFile{f: f, write: write}, nil
}

func (p *HostPlatform) CRC32(buf []byte) (uint32, error) {
	return crc32.ChecksumIEEE(buf), nil
}

// hostConfigFile syncs written records to the medium before close reports
// success; a write-back that only reached the page cache is not a
// write-back.
type hostConfigFile struct {
	f     *os.File
	write bool
}

func (h *hostConfigFile) Read(p []byte) (int, error)  { return h.f.Read(p) }
func (h *hostConfigFile) Write(p []byte) (int, error) { return h.f.Write(p) }

func (h *hostConfigFile) Close() error {
	if h.write {
		if err := unix.Fdatasync(int(h.f.Fd())); err != nil {
			h.f.Close()
			return err
		}
	}
	return h.f.Close()
}
