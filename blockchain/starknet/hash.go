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
	"math/big"

	junofelt "github.com/NethermindEth/juno/core/felt"
	snaccount "github.com/NethermindEth/starknet.go/account"
	"github.com/NethermindEth/starknet.go/rpc"
	"github.com/pkg/errors"

	"github.com/starkbridge/starkbridge"
	"github.com/starkbridge/starkbridge/felt"
)

// InvokeHash computes the hash of a v3 invoke transaction on the chain with
// the given id. It is the hash the node reports for the transaction and the
// message that the account contract validates the signature against.
func InvokeHash(tx starkbridge.InvokeTx, chainID felt.Felt) (felt.Felt, error) {
	hasher := &snaccount.Account{ChainId: toJuno(chainID)}
	h, err := hasher.TransactionHashInvoke(toRPCInvoke(tx))
	if err != nil {
		return felt.Felt{}, errors.Wrap(err, "computing invoke transaction hash")
	}
	return fromJuno(h)
}

func toRPCInvoke(tx starkbridge.InvokeTx) rpc.InvokeTxnV3 {
	return rpc.InvokeTxnV3{
		Type:          rpc.TransactionType(tx.Type),
		SenderAddress: toJuno(tx.SenderAddress),
		Calldata:      toJunoSlice(tx.Calldata),
		Version:       rpc.TransactionVersion(tx.Version.String()),
		Signature:     toJunoSlice(tx.Signature),
		Nonce:         toJuno(tx.Nonce),
		ResourceBounds: rpc.ResourceBoundsMapping{
			L1Gas: toRPCBounds(tx.ResourceBounds.L1Gas),
			L2Gas: toRPCBounds(tx.ResourceBounds.L2Gas),
		},
		Tip:                   rpc.U64(tx.Tip.String()),
		PayMasterData:         toJunoSlice(tx.PaymasterData),
		AccountDeploymentData: toJunoSlice(tx.AccountDeploymentData),
		NonceDataMode:         rpc.DataAvailabilityMode(tx.NonceDataAvailabilityMode),
		FeeMode:               rpc.DataAvailabilityMode(tx.FeeDataAvailabilityMode),
	}
}

func toRPCBounds(b starkbridge.ResourceBounds) rpc.ResourceBounds {
	return rpc.ResourceBounds{
		MaxAmount:       rpc.U64(b.MaxAmount.String()),
		MaxPricePerUnit: rpc.U128(b.MaxPricePerUnit.String()),
	}
}

func toJuno(f felt.Felt) *junofelt.Felt {
	b := f.Bytes32()
	return new(junofelt.Felt).SetBytes(b[:])
}

// toJunoSlice never returns nil, empty lists are part of the hash.
func toJunoSlice(fs []felt.Felt) []*junofelt.Felt {
	out := make([]*junofelt.Felt, len(fs))
	for i := range fs {
		out[i] = toJuno(fs[i])
	}
	return out
}

func fromJuno(f *junofelt.Felt) (felt.Felt, error) {
	return felt.FromBig(f.BigInt(new(big.Int)))
}
