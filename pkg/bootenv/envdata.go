// Copyright (C) 2020 the Efibootguard Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package bootenv holds the boot environment record stored on each config
// partition, and its binary codec. The on-disk layout is fixed-size,
// little-endian, with a trailing crc32 over all preceding bytes; string
// fields are UCS-2 code units, NUL terminated.
package bootenv

import (
	"unicode/utf16"
)

const (
	// Capacity of each string field, in 16-bit code units including the
	// terminating NUL.
	StringCodeUnits = 255

	// Size of the free-form user data area.
	UserDataSize = 220
)

// Update state of a configuration. Values are stable on-disk; anything
// above Failed decodes but ranks with Failed, below the other known states.
type UState uint8

const (
	UStateOK        UState = 0
	UStateInstalled UState = 1
	UStateTesting   UState = 2
	UStateFailed    UState = 3
)

func (u UState) String() string {
	switch u {
	case UStateOK:
		return "OK"
	case UStateInstalled:
		return "INSTALLED"
	case UStateTesting:
		return "TESTING"
	case UStateFailed:
		return "FAILED"
	}
	return "UNKNOWN"
}

// Revision given to a record known to be bad, so it sinks below every
// normal revision when candidates are ranked.
const RevisionFailed uint32 = 0

// EnvData mirrors the record stored on each config partition.
type EnvData struct {
	KernelFile   [StringCodeUnits]uint16
	KernelParams [StringCodeUnits]uint16
	InProgress   bool
	UState       UState
	WatchdogSec  uint16
	Revision     uint32
	UserData     [UserDataSize]byte
	CRC          uint32
}

// Kernel returns the payload path as a string, stopping at the first NUL.
func (e *EnvData) Kernel() string { return ucs2ToString(e.KernelFile[:]) }

// Params returns the payload options as a string, stopping at the first
// NUL.
func (e *EnvData) Params() string { return ucs2ToString(e.KernelParams[:]) }

// SetKernel stores s in the kernelfile field. Fails with EStringLen if
// s does not fit with its terminating NUL.
func (e *EnvData) SetKernel(s string) error {
	return stringToUcs2(e.KernelFile[:], s)
}

// SetParams stores s in the kernelparams field. Fails with EStringLen
// if s does not fit with its terminating NUL.
func (e *EnvData) SetParams(s string) error {
	return stringToUcs2(e.KernelParams[:], s)
}

// TerminateStrings forces a NUL in the last code unit of both string
// fields. Records read from disk pass through here before their strings are
// used.
func (e *EnvData) TerminateStrings() {
	e.KernelFile[StringCodeUnits-1] = 0
	e.KernelParams[StringCodeUnits-1] = 0
}

func ucs2ToString(units []uint16) string {
	end := len(units)
	for i, u := range units {
		if u == 0 {
			end = i
			break
		}
	}
	return string(utf16.Decode(units[:end]))
}

func stringToUcs2(dst []uint16, s string) error {
	units := utf16.Encode([]rune(s))
	if len(units) >= len(dst) {
		return EStringLen
	}
	n := copy(dst, units)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
	return nil
}
