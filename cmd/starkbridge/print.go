// Copyright (c) 2026 - for information on the respective copyright owner
// see the NOTICE file and/or the repository at
// https://github.com/starkbridge/starkbridge
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/starkbridge/starkbridge"
	"github.com/starkbridge/starkbridge/currency"
	"github.com/starkbridge/starkbridge/host"
)

// SPrintf style functions that produce colored text.
var (
	redf    = color.New(color.FgRed).SprintfFunc()
	greenf  = color.New(color.FgGreen).SprintfFunc()
	yellowf = color.New(color.FgYellow).SprintfFunc()
)

// feeToken is the currency of the max fee of invoke transactions (version 3).
var feeToken = currency.New(currency.STRK, currency.FeeTokenDecimals)

func phaseString(p starkbridge.ConnPhase) string {
	switch p {
	case starkbridge.Connected:
		return greenf("%s", p)
	case starkbridge.Failed:
		return redf("%s", p)
	case starkbridge.Connecting:
		return yellowf("%s", p)
	default:
		return p.String()
	}
}

func statusString(s starkbridge.TxStatus) string {
	switch s {
	case starkbridge.AcceptedOnL2, starkbridge.AcceptedOnL1:
		return greenf("%s", s)
	case starkbridge.Rejected, starkbridge.Unknown:
		return redf("%s", s)
	default:
		return yellowf("%s", s)
	}
}

// deltaString formats a delta as one line.
func deltaString(d host.Delta) string {
	if d.IsConnection() {
		s := fmt.Sprintf("connection: %s", phaseString(d.Connection.Phase))
		if d.Connection.Session != nil {
			s += fmt.Sprintf(" (chain %s, account %s)",
				starkbridge.ChainIDString(d.Connection.Session.ChainID), d.Connection.Session.Account)
		}
		if d.Connection.Err != nil {
			s += ": " + d.Connection.Err.Message()
		}
		return s
	}

	u := d.Transaction
	s := fmt.Sprintf("%s: %s -> %s", d.TrackingID, statusString(u.From), statusString(u.Record.Status))
	if u.Record.Hash != nil {
		s += fmt.Sprintf(" (hash %s)", u.Record.Hash)
	}
	if u.Err != nil {
		s += ": " + u.Err.Message()
	}
	return s
}

// recordView is the printed form of a transaction record.
type recordView struct {
	TrackingID        string    `yaml:"tracking_id"`
	Hash              string    `yaml:"hash,omitempty"`
	Status            string    `yaml:"status"`
	RejectReason      string    `yaml:"reject_reason,omitempty"`
	RetryCount        int       `yaml:"retry_count"`
	MaxFee            string    `yaml:"max_fee,omitempty"`
	SubmittedAt       time.Time `yaml:"submitted_at"`
	LastPolledAt      time.Time `yaml:"last_polled_at,omitempty"`
	MonitoringStopped bool      `yaml:"monitoring_stopped,omitempty"`
}

func newRecordView(r starkbridge.TransactionRecord) recordView {
	v := recordView{
		TrackingID:        r.TrackingID,
		Status:            r.Status.String(),
		RejectReason:      r.RejectReason,
		RetryCount:        r.RetryCount,
		SubmittedAt:       r.SubmittedAt,
		LastPolledAt:      r.LastPolledAt,
		MonitoringStopped: r.MonitoringStopped,
	}
	if r.Hash != nil {
		v.Hash = r.Hash.String()
	}
	if r.MaxFee != nil {
		v.MaxFee = feeToken.PrintWithSymbol(r.MaxFee)
	}
	return v
}

// recordsYAML returns the records as a yaml list.
func recordsYAML(records []starkbridge.TransactionRecord) (string, error) {
	views := make([]recordView, len(records))
	for i := range records {
		views[i] = newRecordView(records[i])
	}
	out, err := yaml.Marshal(views)
	if err != nil {
		return "", errors.Wrap(err, "marshalling records")
	}
	return string(out), nil
}
