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

package currency

import (
	"sync"

	"github.com/pkg/errors"
)

// Registry implements a currency registry with currencies indexed by symbols
// and fee units.
//
// It uses a slice to keep track of registered symbols because iterating over
// map to retrieve the symbols each time will result in different ordering of
// symbols in the list.
type Registry struct {
	mtx        sync.RWMutex
	symbols    []string
	currencies map[string]Currency
	units      map[string]string
}

// NewRegistry initializes an empty currency registry.
func NewRegistry() *Registry {
	return &Registry{
		currencies: make(map[string]Currency),
		units:      make(map[string]string),
	}
}

// NewFeeRegistry returns a registry with both fee tokens registered.
func NewFeeRegistry() *Registry {
	r := NewRegistry()
	//nolint: errcheck		// Registering currencies on new registry will not fail.
	r.Register(ETH, UnitWEI, FeeTokenDecimals)
	//nolint: errcheck
	r.Register(STRK, UnitFRI, FeeTokenDecimals)
	return r
}

// Symbols returns a list of all the currencies registered in
// this registry.
func (r *Registry) Symbols() []string {
	r.mtx.RLock()
	symbolsCopy := make([]string, len(r.symbols))
	copy(symbolsCopy, r.symbols)
	r.mtx.RUnlock()
	return symbolsCopy
}

// IsRegistered checks if there is a currency registered for the given symbol.
func (r *Registry) IsRegistered(symbol string) bool {
	r.mtx.RLock()
	_, ok := r.currencies[symbol]
	r.mtx.RUnlock()
	return ok
}

// Register initializes a currency, registers it with the registry and
// returns it. The unit is the name of the base unit used by the node in fee
// estimates; it can be empty.
//
// Returns an error if the symbol or the unit is already registered.
func (r *Registry) Register(symbol, unit string, decimals uint8) (Currency, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if _, ok := r.currencies[symbol]; ok {
		return Currency{}, errors.Errorf("currency already registered for symbol %s", symbol)
	}
	if _, ok := r.units[unit]; ok && unit != "" {
		return Currency{}, errors.Errorf("currency already registered for unit %s", unit)
	}
	c := New(symbol, decimals)
	r.currencies[symbol] = c
	if unit != "" {
		r.units[unit] = symbol
	}
	r.symbols = append(r.symbols, symbol)
	return c, nil
}

// Currency returns the currency registered for the given symbol.
func (r *Registry) Currency(symbol string) (Currency, bool) {
	r.mtx.RLock()
	c, ok := r.currencies[symbol]
	r.mtx.RUnlock()
	return c, ok
}

// ForUnit returns the currency whose base unit has the given name, as
// reported in fee estimates.
func (r *Registry) ForUnit(unit string) (Currency, bool) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	symbol, ok := r.units[unit]
	if !ok {
		return Currency{}, false
	}
	return r.currencies[symbol], true
}
