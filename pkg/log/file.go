// Copyright (C) 2020 the Efibootguard Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package log

import (
	"fmt"
	"os"
)

type fileLog struct {
	f    *os.File
	next StackableLogger
}

var _ StackableLogger = (*fileLog)(nil)

// AddFileLog adds a fileLog to the stack, writing to the named file.
// Existing events are inserted.
func AddFileLog(fname string) error {
	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	fl := &fileLog{f: f}
	err = AddLogger(fl, true)
	if err != nil {
		f.Close()
		os.Remove(fname)
	}
	return err
}

func (l *fileLog) AddEntry(e LogEntry) {
	fmt.Fprintln(l.f, e.String())
	if l.next != nil {
		l.next.AddEntry(e)
	}
}

func (l *fileLog) ForwardTo(sl StackableLogger) {
	if l.next == nil || sl == nil {
		l.next = sl
	} else {
		panic("next already set")
	}
}

const FileLogIdent = "fileLog"

func (*fileLog) Ident() string           { return FileLogIdent }
func (l *fileLog) Next() StackableLogger { return l.next }

func (l *fileLog) Finalize() {
	if l.f != nil {
		l.f.Sync()
		l.f.Close()
		l.f = nil
	}
	if l.next != nil {
		l.next.Finalize()
	}
}
