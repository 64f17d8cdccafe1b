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

package starknet

import (
	"context"
	"math/big"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/starkbridge/starkbridge"
	"github.com/starkbridge/starkbridge/blockchain"
	"github.com/starkbridge/starkbridge/felt"
)

const txTypeInvoke = "INVOKE"

var (
	// txVersion3 is the version of signed invoke transactions.
	txVersion3 = felt.FromUint64(3)

	// queryVersion3 is txVersion3 with the query bit (2^128) set, used for
	// fee estimation so that the request cannot be broadcast.
	queryVersion3 = felt.MustFromHex("0x100000000000000000000000000000003")

	maxUint64  = new(big.Int).SetUint64(^uint64(0))
	maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
)

// EncodeCalls returns the calldata of the account __execute__ entry point
// for the calls: the number of calls followed by, for each call, the target,
// the selector, the number of arguments and the arguments.
func EncodeCalls(calls []starkbridge.Call) []felt.Felt {
	size := 1
	for _, c := range calls {
		size += 3 + len(c.Calldata)
	}
	out := make([]felt.Felt, 0, size)
	out = append(out, felt.FromUint64(uint64(len(calls))))
	for _, c := range calls {
		out = append(out, c.To, c.Selector, felt.FromUint64(uint64(len(c.Calldata))))
		out = append(out, c.Calldata...)
	}
	return out
}

// FeePolicy defines how the resource bounds of a transaction are derived
// from the node's estimate.
type FeePolicy struct {
	// Multiplier scales both the estimated gas amount and the gas price.
	Multiplier decimal.Decimal
	// Cap is the upper limit for the max fee in FRI. Nil means no limit.
	Cap *big.Int
}

// Bounds applies the policy to an estimate. The whole estimated fee,
// including data gas, is expressed as an amount of L1 gas at the estimated
// gas price. If the cap is exceeded, the amount is lowered so that the max
// fee fits the cap.
func (p FeePolicy) Bounds(est starkbridge.FeeEstimate) (starkbridge.ResourceBoundsMapping, error) {
	mult := decimal.NewFromInt(1)
	if p.Multiplier.IsPositive() {
		mult = p.Multiplier
	}
	price := decimal.NewFromBigInt(est.GasPrice.Big(), 0)
	if !price.IsPositive() {
		price = decimal.NewFromInt(1)
	}
	amount := decimal.NewFromBigInt(est.OverallFee.Big(), 0).Div(price).Mul(mult).Ceil().BigInt()
	priceBound := price.Mul(mult).Ceil().BigInt()

	if p.Cap != nil && new(big.Int).Mul(amount, priceBound).Cmp(p.Cap) > 0 {
		amount = new(big.Int).Quo(p.Cap, priceBound)
		if amount.Sign() == 0 {
			return starkbridge.ResourceBoundsMapping{}, blockchain.NewRejectionError(blockchain.OpBuildRequest, 0,
				"max fee cap "+p.Cap.String()+" is below the gas price bound "+priceBound.String())
		}
	}
	if amount.Cmp(maxUint64) > 0 || priceBound.Cmp(maxUint128) > 0 {
		return starkbridge.ResourceBoundsMapping{}, blockchain.NewRejectionError(blockchain.OpBuildRequest, 0,
			"resource bounds out of range: amount "+amount.String()+", price "+priceBound.String())
	}

	// Both values are range checked above.
	maxAmount, _ := felt.FromBig(amount)
	maxPrice, _ := felt.FromBig(priceBound)
	return starkbridge.ResourceBoundsMapping{
		L1Gas: starkbridge.ResourceBounds{MaxAmount: maxAmount, MaxPricePerUnit: maxPrice},
	}, nil
}

// SignedInvoke is a signed transaction together with the hash it will have
// on chain.
type SignedInvoke struct {
	Tx   starkbridge.InvokeTx
	Hash felt.Felt
}

// Account builds, signs and broadcasts invoke transactions for the account
// of a session. Each method makes at most one request to the node, so that
// callers can check for cancellation in between.
type Account struct {
	client  starkbridge.ChainClient
	signer  starkbridge.Signer
	address felt.Felt
	chainID felt.Felt
	fees    FeePolicy
}

// NewAccount returns an account operating on the session.
func NewAccount(s *starkbridge.Session, fees FeePolicy) *Account {
	return &Account{
		client:  s.Client,
		signer:  s.Signer,
		address: s.Account,
		chainID: s.ChainID,
		fees:    fees,
	}
}

// Address returns the address of the account contract.
func (a *Account) Address() felt.Felt {
	return a.address
}

// Nonce fetches the current nonce of the account.
func (a *Account) Nonce(ctx context.Context) (felt.Felt, error) {
	return a.client.Nonce(ctx, a.address)
}

// EstimateBounds estimates the fee for executing the calls and applies the
// fee policy.
func (a *Account) EstimateBounds(ctx context.Context, calls []starkbridge.Call, nonce felt.Felt) (
	starkbridge.ResourceBoundsMapping, error) {
	tx := newInvoke(a.address, EncodeCalls(calls), nonce, starkbridge.ResourceBoundsMapping{})
	tx.Version = queryVersion3
	estimate, err := a.client.EstimateFee(ctx, tx)
	if err != nil {
		return starkbridge.ResourceBoundsMapping{}, err
	}
	return a.fees.Bounds(estimate)
}

// SignInvoke builds the invoke transaction for the calls and signs its hash.
func (a *Account) SignInvoke(calls []starkbridge.Call, nonce felt.Felt, bounds starkbridge.ResourceBoundsMapping) (
	SignedInvoke, error) {
	tx := newInvoke(a.address, EncodeCalls(calls), nonce, bounds)
	hash, err := InvokeHash(tx, a.chainID)
	if err != nil {
		return SignedInvoke{}, blockchain.NewRejectionError(blockchain.OpBuildRequest, 0, err.Error())
	}
	tx.Signature, err = a.signer.Sign(hash)
	if err != nil {
		return SignedInvoke{}, errors.WithMessage(err, "signing invoke transaction")
	}
	return SignedInvoke{Tx: tx, Hash: hash}, nil
}

// Broadcast submits the signed transaction and returns its hash.
func (a *Account) Broadcast(ctx context.Context, tx starkbridge.InvokeTx) (felt.Felt, error) {
	return a.client.AddInvokeTransaction(ctx, tx)
}

func newInvoke(sender felt.Felt, calldata []felt.Felt, nonce felt.Felt,
	bounds starkbridge.ResourceBoundsMapping) starkbridge.InvokeTx {
	return starkbridge.InvokeTx{
		Type:                      txTypeInvoke,
		SenderAddress:             sender,
		Calldata:                  calldata,
		Version:                   txVersion3,
		Signature:                 []felt.Felt{},
		Nonce:                     nonce,
		ResourceBounds:            bounds,
		PaymasterData:             []felt.Felt{},
		AccountDeploymentData:     []felt.Felt{},
		NonceDataAvailabilityMode: starkbridge.DAModeL1,
		FeeDataAvailabilityMode:   starkbridge.DAModeL1,
	}
}
