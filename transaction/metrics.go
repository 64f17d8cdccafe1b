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

package transaction

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts the status changes of transaction records.
type Metrics struct {
	statusChanges *prometheus.CounterVec
	retries       prometheus.Counter
}

// NewMetrics returns the collectors of the executor, registered with reg if
// it is not nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		statusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "starkbridge",
			Subsystem: "transaction",
			Name:      "status_changes_total",
			Help:      "Number of transaction records that moved into a status.",
		}, []string{"status"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "starkbridge",
			Subsystem: "transaction",
			Name:      "retries_total",
			Help:      "Number of retries scheduled after transient failures.",
		}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.statusChanges, m.retries} {
		if err := reg.Register(c); err != nil {
			return nil, errors.WithStack(err)
		}
	}
	return m, nil
}
