// Copyright (C) 2020 the Efibootguard Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package guid handles uuid's encoded in the mixed-endianness format used
// by UEFI, notably the partition type guids in a GPT. For normal
// uuid-related functionality, use a different package - such as
// github.com/google/uuid .
package guid

import (
	"github.com/google/uuid"
)

// A mixed-endianness guid, as used by UEFI.
type MixedGuid [16]byte

// Converts MixedGuid to a uuid.UUID
func (m MixedGuid) ToStdEnc() (u uuid.UUID) {
	u[0], u[1], u[2], u[3] = m[3], m[2], m[1], m[0]
	u[4], u[5] = m[5], m[4]
	u[6], u[7] = m[7], m[6]
	copy(u[8:], m[8:])
	return
}

// Converts uuid.UUID to MixedGuid
func FromStdEnc(u uuid.UUID) (m MixedGuid) {
	m[0], m[1], m[2], m[3] = u[3], u[2], u[1], u[0]
	m[4], m[5] = u[5], u[4]
	m[6], m[7] = u[7], u[6]
	copy(m[8:], u[8:])
	return
}

// GPT partition type guids relevant to locating config partitions.
var (
	//EFI System Partition
	ESP = uuid.MustParse("C12A7328-F81F-11D2-BA4B-00A0C93EC93B")
	//Microsoft basic data, the type commonly given to extra FAT partitions
	BasicData = uuid.MustParse("EBD0A0A2-B9E5-4433-87C0-68B6B72699C7")
	//All zeros, an unused GPT entry
	Unused = uuid.UUID{}
)
