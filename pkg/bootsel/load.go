// Copyright (C) 2020 the Efibootguard Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package bootsel

import (
	"io"

	"github.com/earlchew/efibootguard/pkg/bootenv"
	"github.com/earlchew/efibootguard/pkg/log"
)

// readConfig loads the environment record from one volume into env.
//
// A non-nil error means the record is unusable and the volume must be
// skipped. errored is set on any anomaly, including a failed close after a
// successful read - in that one case err stays nil and the record is still
// ranked.
func readConfig(p Platform, vol Volume, env *bootenv.EnvData) (errored bool, err error) {
	fh, err := p.OpenConfig(vol, false)
	if err != nil {
		log.Logf("could not open environment file on volume %d: %s", vol.Index, err)
		return true, err
	}

	buf := make([]byte, bootenv.EnvDataSize)
	n, rerr := io.ReadFull(fh, buf)

	if cerr := fh.Close(); cerr != nil {
		log.Logf("could not close environment file on volume %d: %s", vol.Index, cerr)
		errored = true
		//only fail if the read did not succeed
	}

	if rerr != nil && rerr != io.ErrUnexpectedEOF {
		log.Logf("cannot read environment file on volume %d: %s", vol.Index, rerr)
		return true, rerr
	}
	if n != bootenv.EnvDataSize {
		log.Logf("environment file on volume %d has wrong size", vol.Index)
		return true, bootenv.EBadLength
	}

	if err = bootenv.DecodeInto(buf, env); err != nil {
		return true, err
	}

	sum, err := p.CRC32(bootenv.CRCRegion(buf))
	if err != nil {
		log.Logf("unable to compute crc32: %s", err)
		return true, err
	}
	if sum != env.CRC {
		log.Logf("crc32 error in environment data on volume %d", vol.Index)
		log.Logf("calculated: %x stored: %x", sum, env.CRC)
		return true, bootenv.EBadCRC
	}
	return errored, nil
}
