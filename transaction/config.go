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
	"math"
	"math/big"
	"time"
)

// Backoff defines the delays between retries of a failing task. The delay
// before retry n (counting from 1) is Base * Multiplier^(n-1), capped at Max.
type Backoff struct {
	Base       time.Duration `mapstructure:"base"`
	Max        time.Duration `mapstructure:"max"`
	Multiplier float64       `mapstructure:"multiplier"`
}

// Delay returns the delay before retry n.
func (b Backoff) Delay(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	mult := b.Multiplier
	if mult < 1 {
		mult = 1
	}
	d := float64(b.Base) * math.Pow(mult, float64(n-1))
	if b.Max > 0 && d >= float64(b.Max) {
		return b.Max
	}
	return time.Duration(d)
}

// Config defines the retry and fee parameters of the executor.
type Config struct {
	Backoff Backoff `mapstructure:"backoff"`
	// MaxAttempts is the number of transient failures after which a
	// transaction is given up as Unknown. Failures of submission and of
	// status polling count towards the same budget.
	MaxAttempts int `mapstructure:"max_attempts"`
	// PollInterval is the delay between two status polls of a transaction.
	PollInterval time.Duration `mapstructure:"poll_interval"`
	// RequestTimeout bounds the network calls of one task.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// FeeMultiplier scales the estimated fee to obtain the max fee.
	FeeMultiplier float64 `mapstructure:"fee_multiplier"`
	// MaxFee caps the max fee in the base unit of the fee token. Nil means
	// no cap.
	MaxFee *big.Int `mapstructure:"-"`
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		Backoff: Backoff{
			Base:       500 * time.Millisecond,
			Max:        30 * time.Second,
			Multiplier: 2,
		},
		MaxAttempts:    8,
		PollInterval:   2 * time.Second,
		RequestTimeout: 30 * time.Second,
		FeeMultiplier:  1.5,
	}
}
