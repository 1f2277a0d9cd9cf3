// Copyright (C) 2020 the Efibootguard Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package hostdisk

import (
	"os"
	fp "path/filepath"
	"strings"

	"github.com/earlchew/efibootguard/pkg/log"

	"github.com/google/shlex"
)

// bootDisk names the disk holding the root filesystem given on the kernel
// command line, or "" if it cannot be determined.
func bootDisk() string {
	data, err := os.ReadFile(ProcCmdline)
	if err != nil {
		log.Logf("reading %s: %s", ProcCmdline, err)
		return ""
	}
	dev := rootArg(string(data))
	if dev == "" {
		return ""
	}
	resolved, err := fp.EvalSymlinks(dev)
	if err != nil {
		log.Logf("resolving root device %s: %s", dev, err)
		return ""
	}
	return parentDisk(fp.Base(resolved))
}

// rootArg extracts the root device path from a kernel command line,
// translating UUID=/PARTUUID=/LABEL= forms to their /dev/disk aliases.
func rootArg(cmdline string) string {
	args, err := shlex.Split(cmdline)
	if err != nil {
		log.Logf("unparseable kernel command line: %s", err)
		return ""
	}
	for _, arg := range args {
		val, ok := strings.CutPrefix(arg, "root=")
		if !ok {
			continue
		}
		switch {
		case strings.HasPrefix(val, "UUID="):
			return fp.Join(DevDir, "disk/by-uuid", val[len("UUID="):])
		case strings.HasPrefix(val, "PARTUUID="):
			return fp.Join(DevDir, "disk/by-partuuid", val[len("PARTUUID="):])
		case strings.HasPrefix(val, "LABEL="):
			return fp.Join(DevDir, "disk/by-label", val[len("LABEL="):])
		}
		return val
	}
	return ""
}
