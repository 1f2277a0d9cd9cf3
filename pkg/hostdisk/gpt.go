// Copyright (C) 2020 the Efibootguard Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package hostdisk

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	fp "path/filepath"

	"github.com/earlchew/efibootguard/pkg/guid"

	"github.com/google/uuid"
)

// http://uefi.org - GPT header lives at LBA1, entries usually at LBA2
const (
	gptSignature  = "EFI PART"
	gptHeaderSize = 92
	sectorSize    = 512 //4k-native disks are not handled
)

var ENotGpt = errors.New("no gpt signature on disk")

// partitionType reads the GPT on disk and returns the partition type guid
// of the num'th partition (1-based, as in sysfs).
func partitionType(disk string, num int) (uuid.UUID, error) {
	f, err := os.Open(fp.Join(DevDir, disk))
	if err != nil {
		return uuid.UUID{}, err
	}
	defer f.Close()

	hdr := make([]byte, gptHeaderSize)
	if _, err := f.ReadAt(hdr, sectorSize); err != nil {
		return uuid.UUID{}, err
	}
	if string(hdr[:8]) != gptSignature {
		return uuid.UUID{}, ENotGpt
	}

	entriesLBA := binary.LittleEndian.Uint64(hdr[72:80])
	numEntries := binary.LittleEndian.Uint32(hdr[80:84])
	entrySize := binary.LittleEndian.Uint32(hdr[84:88])
	if num < 1 || uint32(num) > numEntries {
		return uuid.UUID{}, fmt.Errorf("partition %d out of range (1-%d)", num, numEntries)
	}
	if entrySize < 128 {
		return uuid.UUID{}, fmt.Errorf("implausible gpt entry size %d", entrySize)
	}

	ent := make([]byte, 16) //type guid is the first field of the entry
	off := int64(entriesLBA)*sectorSize + int64(num-1)*int64(entrySize)
	if _, err := f.ReadAt(ent, off); err != nil {
		return uuid.UUID{}, err
	}
	var m guid.MixedGuid
	copy(m[:], ent)
	return m.ToStdEnc(), nil
}
