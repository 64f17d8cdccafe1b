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
	"math/big"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Symbols and fee units of the tokens that fees can be paid in. Fees of
// invoke transactions up to version 1 are paid in ETH and quoted in WEI,
// later versions pay in STRK quoted in FRI.
const (
	ETH  = "ETH"
	STRK = "STRK"

	UnitWEI = "WEI"
	UnitFRI = "FRI"

	// FeeTokenDecimals is the number of decimals of both fee tokens.
	FeeTokenDecimals uint8 = 18

	placesToRound = 6
)

// Currency converts between the decimal string representation of an amount
// and its value in the base unit.
type Currency struct {
	symbol     string
	multiplier decimal.Decimal
	decimals   int32
}

// New returns a currency with the given number of decimals.
func New(symbol string, decimals uint8) Currency {
	return Currency{
		symbol:     symbol,
		multiplier: decimal.New(1, int32(decimals)),
		decimals:   int32(decimals),
	}
}

// Symbol returns the symbol of the currency.
func (c Currency) Symbol() string {
	return c.symbol
}

// Parse parses the given amount in the currency, converts it to the base
// unit and returns a big.Int representation of the value.
// It can parse decimal values upto the smallest amount the base unit can
// represent without loss of accuracy.
func (c Currency) Parse(input string) (*big.Int, error) {
	amount, err := decimal.NewFromString(input)
	if err != nil {
		return nil, errors.Wrap(err, "invalid decimal string")
	}
	if amount.IsNegative() {
		return nil, errors.New("amount must not be negative")
	}

	amountBaseUnit := amount.Mul(c.multiplier)
	if !amountBaseUnit.Equal(amountBaseUnit.Truncate(0)) {
		return nil, errors.Errorf("amount has more than %d decimal places", c.decimals)
	}
	return amountBaseUnit.BigInt(), nil
}

// Print converts the input in base unit to the currency and returns a string
// representation of it. The returned string is rounded off to 6 decimal
// places for visual representation.
func (c Currency) Print(input *big.Int) string {
	if input == nil {
		return decimal.Zero.StringFixedBank(placesToRound)
	}
	amount := decimal.NewFromBigInt(input, 0)
	return amount.Div(c.multiplier).StringFixedBank(placesToRound)
}

// PrintWithSymbol is like Print but appends the symbol.
func (c Currency) PrintWithSymbol(input *big.Int) string {
	return c.Print(input) + " " + c.symbol
}
