// Copyright (C) 2020 the Efibootguard Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package log is a small logging mechanism allowing multiple stacked log
// sinks, outputting to one or more of: the console, a file, memory.
//
// By default, events are retained in memory so they can be re-played into
// new log sinks if/when they are added later on. This matters during early
// boot, where the selector may run before any console or file is usable.
package log

import (
	"fmt"
	"os"

	"github.com/earlchew/efibootguard/pkg/log/flags"
)

// Msgf is for use with messages suitable for display to the user. Short,
// non-technical. Use must be relatively infrequent.
func Msgf(f string, va ...interface{}) { FlaggedLogf(flags.EndUser, f, va...) }

// See Msgf
func Msg(message string) { Msgf("%s", message) }

// Logf is for use with more technical, or more trivial, messages.
func Logf(f string, va ...interface{}) { FlaggedLogf(flags.NA, f, va...) }

// See Logf
func Log(message string) { Logf("%s", message) }

// If the log stack includes a MemLog, this writes all of its content to
// stderr. no-op otherwise.
func DumpStderr() {
	l := FindInStack(MemLogIdent)
	if l != nil {
		ml := l.(*memLog)
		for _, e := range ml.Entries() {
			fmt.Fprintln(os.Stderr, e.String())
		}
	}
}
