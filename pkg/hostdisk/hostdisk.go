// Copyright (C) 2020 the Efibootguard Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package hostdisk is a Linux bootsel.Platform for use from an initramfs
// or rescue environment. Config partitions are located by GPT partition
// type, mounted under a work dir, and the booted disk is derived from the
// kernel command line for filtering and tie-breaking.
package hostdisk

import (
	"os"
	fp "path/filepath"
	"strconv"
	"strings"

	"github.com/earlchew/efibootguard/pkg/bootsel"
	"github.com/earlchew/efibootguard/pkg/guid"
	"github.com/earlchew/efibootguard/pkg/log"

	"github.com/u-root/u-root/pkg/mount"
)

// Paths; package vars so tests can point them into a fixture tree.
var (
	SysBlockDir = "/sys/class/block"
	DevDir      = "/dev"
	ProcCmdline = "/proc/cmdline"
	MountRoot   = "/run/bootguard"
)

// The well-known environment file on each config partition.
var ConfigFileName = "BGENV.DAT"

// partition is one sysfs block partition entry.
type partition struct {
	name string //e.g. sda1
	disk string //parent, e.g. sda
	num  int    //partition number within the disk
}

// HostPlatform implements bootsel.Platform over partitions mounted by
// Discover. Release() undoes the mounts.
type HostPlatform struct {
	bootDisk string //disk holding the root fs from the kernel command line
	mounts   []string
}

// Discover locates config-capable partitions (ESP or basic-data type in
// the GPT), mounts them under MountRoot, and returns them as volumes ready
// for bootsel.Select. Partitions that cannot be identified or mounted are
// logged and skipped. Call Release on the returned platform when done.
func Discover() ([]bootsel.Volume, *HostPlatform, error) {
	p := &HostPlatform{bootDisk: bootDisk()}
	if p.bootDisk != "" {
		log.Logf("booted from disk %s", p.bootDisk)
	}

	var vols []bootsel.Volume
	for _, part := range listPartitions() {
		ptype, err := partitionType(part.disk, part.num)
		if err != nil {
			log.Logf("no partition type for %s: %s", part.name, err)
			continue
		}
		if ptype != guid.ESP && ptype != guid.BasicData {
			continue
		}
		mp := fp.Join(MountRoot, part.name)
		if err := os.MkdirAll(mp, 0755); err != nil {
			log.Logf("cannot create mountpoint %s: %s", mp, err)
			continue
		}
		if err := mount.Mount(fp.Join(DevDir, part.name), mp, "vfat", "", 0); err != nil {
			log.Logf("mount %s: %s", part.name, err)
			continue
		}
		p.mounts = append(p.mounts, mp)
		vols = append(vols, bootsel.Volume{
			Index:   len(vols),
			DevPath: part.name,
			Root:    mp,
		})
	}
	return vols, p, nil
}

// Release unmounts everything Discover mounted.
func (p *HostPlatform) Release() {
	for _, mp := range p.mounts {
		if err := mount.Unmount(mp, false, true); err != nil {
			log.Logf("umount %s: %s", mp, err)
		}
	}
	p.mounts = nil
}

// listPartitions returns the non-virtual partitions known to sysfs.
// /sys/class/block holds disks and partitions; partitions are the entries
// with a "partition" file.
func listPartitions() (parts []partition) {
	dir, err := os.ReadDir(SysBlockDir)
	if err != nil {
		log.Logf("error reading %s: %s", SysBlockDir, err)
		return
	}
	for _, entry := range dir {
		link, err := os.Readlink(fp.Join(SysBlockDir, entry.Name()))
		if err != nil || strings.Contains(link, "devices/virtual/block") {
			continue
		}
		numBytes, err := os.ReadFile(fp.Join(SysBlockDir, entry.Name(), "partition"))
		if err != nil {
			//a whole disk, not a partition
			continue
		}
		num, err := strconv.Atoi(strings.TrimSpace(string(numBytes)))
		if err != nil {
			log.Logf("unparseable partition number for %s: %s", entry.Name(), err)
			continue
		}
		parts = append(parts, partition{
			name: entry.Name(),
			disk: parentDisk(entry.Name()),
			num:  num,
		})
	}
	return
}

// parentDisk maps a partition name to the disk it resides on, via the
// sysfs path (…/block/sda/sda1).
func parentDisk(partName string) string {
	resolved, err := fp.EvalSymlinks(fp.Join(SysBlockDir, partName))
	if err != nil {
		return ""
	}
	return fp.Base(fp.Dir(resolved))
}

// removable reports whether the named disk claims removable media.
func removable(disk string) bool {
	data, err := os.ReadFile(fp.Join(SysBlockDir, disk, "removable"))
	return err == nil && strings.TrimSpace(string(data)) == "1"
}
