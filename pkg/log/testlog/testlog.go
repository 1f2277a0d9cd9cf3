// Copyright (C) 2020 the Efibootguard Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package testlog hijacks the output of the log package. By default this
// output prints through testing functions but it can be stored in a buffer
// as well - for example, for analysis as part of the test.
package testlog

import (
	"bytes"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/earlchew/efibootguard/pkg/log"
	"github.com/earlchew/efibootguard/pkg/log/flags"
)

// Conforms to log.StackableLogger interface. Constructed via NewTestLog().
type TstLog struct {
	t             *testing.T    //log here if Buf is nil
	Buf           *bytes.Buffer //if non-nil, Msgf()/Logf() output goes here
	MsgCount      int           //counts entries logged via Msgf()
	LogCount      int           //counts entries logged via Logf()
	FatalCount    int           //counts entries logged via Fatalf()
	FatalIsNotErr bool          //if true, do not call t.Errorf() for Fatal()
	frozen        bool          //do not write any more to Buf
	mu            sync.Mutex
}

// Returns a new TstLog. If bufferLog is true, logging goes to a buffer
// rather than passing directly to t.Log()/t.Error(). Do not share one
// TstLog between tests - create a new one each time.
func NewTestLog(t *testing.T, bufferLog bool) (tlog *TstLog) {
	tlog = &TstLog{t: t}
	if bufferLog {
		tlog.Buf = new(bytes.Buffer)
	}
	log.NewLogStack(tlog)
	log.SetFatalAction(log.FailAction{Terminator: func() {}})
	return
}

var _ log.StackableLogger = (*TstLog)(nil)

func (tlog *TstLog) AddEntry(e log.LogEntry) {
	tlog.mu.Lock()
	defer tlog.mu.Unlock()
	if tlog.frozen {
		return
	}
	switch e.Flags {
	case flags.EndUser:
		tlog.MsgCount++
		e.Msg = "MSG:" + e.Msg
	case flags.Fatal:
		tlog.FatalCount++
		e.Msg = ">>FATAL()<< " + e.Msg
		if !tlog.FatalIsNotErr {
			tlog.t.Errorf("@%s: "+e.Msg, append([]interface{}{e.Time.Format(stampMilli)}, e.Args...)...)
			return
		}
	default:
		tlog.LogCount++
		e.Msg = "LOG:" + e.Msg
	}
	if tlog.Buf != nil {
		fmt.Fprintf(tlog.Buf, e.Msg+"\n", e.Args...)
	} else {
		tlog.t.Logf("@"+e.Time.Format(stampMilli)+": "+e.Msg, e.Args...)
	}
}

const TstLogIdent = "tstLog"

func (*TstLog) Ident() string                   { return TstLogIdent }
func (*TstLog) Next() log.StackableLogger       { return nil }
func (*TstLog) Finalize()                       {}
func (*TstLog) ForwardTo(_ log.StackableLogger) {}

const stampMilli = "15:04:05.000" //like time.StampMilli, but leaves off date

// sometimes used in testing to inject separators
func (tlog *TstLog) Logf(f string, va ...interface{}) {
	tlog.AddEntry(log.LogEntry{Time: time.Now(), Msg: f, Args: va})
}

// call at end of test to restore the default log stack
func (tlog *TstLog) Freeze() {
	log.DefaultLogStack()
	log.SetFatalAction(log.DefaultFatal)
	tlog.mu.Lock()
	tlog.frozen = true
	tlog.mu.Unlock()
}
