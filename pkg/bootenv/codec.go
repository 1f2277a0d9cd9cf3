// Copyright (C) 2020 the Efibootguard Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package bootenv

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
)

// EnvDataSize is the exact on-disk length of an encoded EnvData.
const EnvDataSize = 2*2*StringCodeUnits + 1 + 1 + 2 + 4 + UserDataSize + 4

// Length of the region covered by the trailing checksum - everything but
// the checksum itself.
const crcCoverage = EnvDataSize - 4

var (
	EBadLength = errors.New("environment record has wrong size")
	EBadCRC    = errors.New("crc32 mismatch in environment record")
	EStringLen = errors.New("string too long for environment record field")
)

// ChecksumFunc computes a crc32 over buf. The firmware service backing it
// may fail, so it returns an error as well.
type ChecksumFunc func(buf []byte) (uint32, error)

// Checksum is the default ChecksumFunc, the IEEE crc32 used by the on-disk
// format. It cannot fail on a host.
func Checksum(buf []byte) (uint32, error) {
	return crc32.ChecksumIEEE(buf), nil
}

// CRCRegion returns the prefix of an encoded record that the trailing
// checksum covers. Panics if buf is shorter than a record.
func CRCRegion(buf []byte) []byte { return buf[:crcCoverage] }

// DecodeInto parses an encoded record into e. Fails with EBadLength unless
// buf is exactly EnvDataSize bytes. The stored checksum lands in e.CRC; the
// caller decides whether and how to verify it (see Validate).
func DecodeInto(buf []byte, e *EnvData) error {
	if len(buf) != EnvDataSize {
		return EBadLength
	}
	off := 0
	for i := range e.KernelFile {
		e.KernelFile[i] = binary.LittleEndian.Uint16(buf[off:])
		off += 2
	}
	for i := range e.KernelParams {
		e.KernelParams[i] = binary.LittleEndian.Uint16(buf[off:])
		off += 2
	}
	e.InProgress = buf[off] != 0
	off++
	e.UState = UState(buf[off])
	off++
	e.WatchdogSec = binary.LittleEndian.Uint16(buf[off:])
	off += 2
	e.Revision = binary.LittleEndian.Uint32(buf[off:])
	off += 4
	copy(e.UserData[:], buf[off:off+UserDataSize])
	off += UserDataSize
	e.CRC = binary.LittleEndian.Uint32(buf[off:])
	return nil
}

// Decode parses an encoded record. See DecodeInto.
func Decode(buf []byte) (*EnvData, error) {
	e := new(EnvData)
	if err := DecodeInto(buf, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Validate re-checks an encoded record: exact length and a matching
// trailing checksum. Returns EBadLength or EBadCRC.
func Validate(buf []byte) error {
	if len(buf) != EnvDataSize {
		return EBadLength
	}
	sum, _ := Checksum(CRCRegion(buf))
	if sum != binary.LittleEndian.Uint32(buf[crcCoverage:]) {
		return EBadCRC
	}
	return nil
}

// Encode writes the record in its on-disk form, computing the trailing
// checksum with fn and assigning it to e.CRC as well as the buffer. The
// returned buffer is written to disk in a single operation.
func (e *EnvData) Encode(fn ChecksumFunc) ([]byte, error) {
	buf := make([]byte, EnvDataSize)
	off := 0
	for _, u := range e.KernelFile {
		binary.LittleEndian.PutUint16(buf[off:], u)
		off += 2
	}
	for _, u := range e.KernelParams {
		binary.LittleEndian.PutUint16(buf[off:], u)
		off += 2
	}
	if e.InProgress {
		buf[off] = 1
	}
	off++
	buf[off] = uint8(e.UState)
	off++
	binary.LittleEndian.PutUint16(buf[off:], e.WatchdogSec)
	off += 2
	binary.LittleEndian.PutUint32(buf[off:], e.Revision)
	off += 4
	copy(buf[off:], e.UserData[:])
	off += UserDataSize
	sum, err := fn(CRCRegion(buf))
	if err != nil {
		return nil, err
	}
	e.CRC = sum
	binary.LittleEndian.PutUint32(buf[off:], sum)
	return buf, nil
}
