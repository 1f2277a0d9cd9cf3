// Copyright (C) 2020 the Efibootguard Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package bootsel chooses the boot configuration to use from the redundant
// copies stored on config partitions, and advances the A/B update state
// machine on disk as a consequence of that choice.
//
// The engine is host-agnostic: volumes are passed in, and every external
// operation - enumeration, filtering, file i/o, crc computation, the
// boot-volume predicate - goes through a Platform. pkg/hostdisk provides a
// Linux Platform; tests provide their own with injectable failures.
package bootsel

import (
	"errors"
	"time"
)

// Number of config partitions a correctly provisioned system carries. A
// deviation is logged and degrades the verdict, but selection continues
// with whatever is readable.
const NumConfigParts = 2

// Slots used while ranking: the top two candidates plus one scratch slot
// for the volume currently being read.
const envSlots = 3

var (
	ENoVolumes  = errors.New("no volumes available for config partitions")
	ENoConfig   = errors.New("no valid config partition")
	EShortWrite = errors.New("short write to environment file")
)

// Volume is one candidate partition. Index is stable for the duration of a
// boot; DevPath is an opaque device identity handed to the boot-volume
// predicate; Root locates the volume's files for the Platform.
type Volume struct {
	Index   int
	DevPath string
	Root    string
}

// LoaderParams is what selection hands to the loader. The strings are
// owned copies, independent of any volume-backed buffer.
type LoaderParams struct {
	PayloadPath    string
	PayloadOptions string
	Timeout        time.Duration
}

// Verdict summarizes a selection run.
type Verdict int

const (
	// A configuration was chosen and nothing anomalous happened.
	Success Verdict = iota
	// A configuration was chosen, but some copy was unreadable, a
	// write-back failed, or the partition count was off.
	PartiallyCorrupted
	// No viable configuration; loader parameters are untouched.
	ConfigError
)

func (v Verdict) String() string {
	switch v {
	case Success:
		return "SUCCESS"
	case PartiallyCorrupted:
		return "PARTIALLY_CORRUPTED"
	case ConfigError:
		return "CONFIG_ERROR"
	}
	return "INVALID"
}

// ConfigFile is an open environment file on one volume.
type ConfigFile interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Close() error
}

// Platform supplies the host services selection depends on. Each method is
// a seam a test harness can fail independently.
type Platform interface {
	// EnumerateConfigParts returns the indices (into vols) of volumes
	// that carry a config file.
	EnumerateConfigParts(vols []Volume) ([]int, error)

	// FilterConfigParts removes disallowed entries, e.g. partitions
	// residing on disks the firmware would not boot from. Returns the
	// surviving indices.
	FilterConfigParts(vols []Volume, indices []int) []int

	// IsOnBootVolume reports whether devpath identifies the volume the
	// firmware booted from.
	IsOnBootVolume(devpath string) bool

	// OpenConfig opens the environment file on vol, read-only or
	// read-write.
	OpenConfig(vol Volume, write bool) (ConfigFile, error)

	// CRC32 computes the checksum used by the record codec.
	CRC32(buf []byte) (uint32, error)
}
