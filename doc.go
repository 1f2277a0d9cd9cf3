// Copyright (C) 2020 the Efibootguard Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Subpackages implement the boot-configuration selector of a firmware boot
// guard: early in startup, several redundant copies of a boot environment
// record are read from dedicated config partitions, the best copy is chosen,
// and the A/B update state machine is advanced on disk before kernel
// parameters are handed to the loader.
//
// The selection engine itself (pkg/bootsel) is host-agnostic; all external
// operations - config partition enumeration and filtering, file i/o, crc
// computation, the boot-volume predicate - enter through a Platform object so
// that firmware, initramfs, and test environments can each supply their own.
//
//   - pkg/bootenv holds the on-disk environment record and its binary codec.
//   - pkg/bootsel ranks candidate records, drives update-state transitions,
//     and produces loader parameters.
//   - pkg/hostdisk is a Linux Platform: it locates config partitions via
//     sysfs and the GPT, mounts them, and resolves the booted disk.
//   - cmd/bgselect and cmd/bgprintenv are thin front ends intended to run
//     from an initramfs or a rescue shell.
package efibootguard
