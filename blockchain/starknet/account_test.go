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

package starknet_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/starkbridge/starkbridge"
	"github.com/starkbridge/starkbridge/blockchain"
	"github.com/starkbridge/starkbridge/blockchain/starknet"
	"github.com/starkbridge/starkbridge/felt"
	"github.com/starkbridge/starkbridge/internal/mocks"
)

func Test_EncodeCalls(t *testing.T) {
	calls := []starkbridge.Call{
		{To: felt.FromUint64(0x123), Selector: felt.FromUint64(0x456)},
		{
			To:       felt.FromUint64(0x789),
			Selector: felt.SelectorFromName("transfer"),
			Calldata: []felt.Felt{felt.FromUint64(1), felt.FromUint64(2)},
		},
	}
	got := starknet.EncodeCalls(calls)
	want := []felt.Felt{
		felt.FromUint64(2),
		felt.FromUint64(0x123), felt.FromUint64(0x456), felt.FromUint64(0),
		felt.FromUint64(0x789), felt.SelectorFromName("transfer"), felt.FromUint64(2),
		felt.FromUint64(1), felt.FromUint64(2),
	}
	assert.Equal(t, want, got)
}

func Test_FeePolicy_Bounds(t *testing.T) {
	est := starkbridge.FeeEstimate{GasPrice: felt.FromUint64(100), OverallFee: felt.FromUint64(1000)}
	tests := []struct {
		name   string
		policy starknet.FeePolicy
		est    starkbridge.FeeEstimate
		amount uint64
		price  uint64
	}{
		{"no_multiplier", starknet.FeePolicy{}, est, 10, 100},
		{"multiplier", starknet.FeePolicy{Multiplier: decimal.NewFromFloat(1.5)}, est, 15, 150},
		{
			"multiplier_rounds_up", starknet.FeePolicy{Multiplier: decimal.NewFromFloat(1.5)},
			starkbridge.FeeEstimate{GasPrice: felt.FromUint64(100), OverallFee: felt.FromUint64(1001)}, 16, 150,
		},
		{"capped", starknet.FeePolicy{Multiplier: decimal.NewFromFloat(2), Cap: big.NewInt(1500)}, est, 7, 200},
		{"below_cap", starknet.FeePolicy{Multiplier: decimal.NewFromFloat(1), Cap: big.NewInt(1500)}, est, 10, 100},
		{
			"zero_gas_price", starknet.FeePolicy{},
			starkbridge.FeeEstimate{OverallFee: felt.FromUint64(1000)}, 1000, 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.policy.Bounds(tt.est)
			require.NoError(t, err)
			assert.Equal(t, felt.FromUint64(tt.amount), got.L1Gas.MaxAmount)
			assert.Equal(t, felt.FromUint64(tt.price), got.L1Gas.MaxPricePerUnit)
			assert.True(t, got.L2Gas.MaxAmount.IsZero())
			assert.True(t, got.L2Gas.MaxPricePerUnit.IsZero())
		})
	}

	t.Run("err_cap_below_price", func(t *testing.T) {
		_, err := starknet.FeePolicy{Cap: big.NewInt(99)}.Bounds(est)
		require.Error(t, err)
		assert.True(t, blockchain.IsRejection(err))
	})
	t.Run("err_amount_out_of_range", func(t *testing.T) {
		_, err := starknet.FeePolicy{}.Bounds(starkbridge.FeeEstimate{
			GasPrice:   felt.FromUint64(1),
			OverallFee: felt.MustFromHex("0x10000000000000000"),
		})
		require.Error(t, err)
		assert.True(t, blockchain.IsRejection(err))
	})
}

func newTestAccount(t *testing.T, client starkbridge.ChainClient) (*starknet.Account, *starknet.KeySigner) {
	t.Helper()
	signer, err := starknet.NewKeySigner(felt.FromUint64(2))
	require.NoError(t, err)
	s := starkbridge.NewSession("session-1", "http://localhost:5050", felt.FromUint64(1),
		felt.FromUint64(1), client, signer)
	return starknet.NewAccount(s, starknet.FeePolicy{Multiplier: decimal.NewFromFloat(1.5)}), signer
}

func Test_Account_Flow(t *testing.T) {
	ctx := context.Background()
	client := mocks.NewChainClient(t)
	account, signer := newTestAccount(t, client)
	calls := []starkbridge.Call{{To: felt.FromUint64(0x123), Selector: felt.FromUint64(0x456)}}

	client.On("Nonce", mock.Anything, felt.FromUint64(1)).Return(felt.FromUint64(3), nil).Once()
	nonce, err := account.Nonce(ctx)
	require.NoError(t, err)
	assert.Equal(t, felt.FromUint64(3), nonce)

	queryVersion := felt.MustFromHex("0x100000000000000000000000000000003")
	client.On("EstimateFee", mock.Anything, mock.MatchedBy(func(tx starkbridge.InvokeTx) bool {
		return tx.Nonce.Equal(nonce) && len(tx.Signature) == 0 && tx.Version.Equal(queryVersion)
	})).Return(starkbridge.FeeEstimate{
		GasPrice:   felt.FromUint64(100),
		OverallFee: felt.FromUint64(1000),
		Unit:       "FRI",
	}, nil).Once()
	bounds, err := account.EstimateBounds(ctx, calls, nonce)
	require.NoError(t, err)
	assert.Equal(t, int64(2250), bounds.MaxFee().Int64())

	signed, err := account.SignInvoke(calls, nonce, bounds)
	require.NoError(t, err)
	tx := signed.Tx
	assert.Equal(t, "INVOKE", tx.Type)
	assert.Equal(t, felt.FromUint64(3), tx.Version)
	assert.Equal(t, bounds, tx.ResourceBounds)
	assert.Equal(t, starkbridge.DAModeL1, tx.FeeDataAvailabilityMode)
	assert.Equal(t, starknet.EncodeCalls(calls), tx.Calldata)
	hash, err := starknet.InvokeHash(tx, felt.FromUint64(1))
	require.NoError(t, err)
	assert.Equal(t, hash, signed.Hash)
	ok, err := starknet.Verify(signer.PublicKey(), signed.Hash, tx.Signature)
	require.NoError(t, err)
	assert.True(t, ok)

	client.On("AddInvokeTransaction", mock.Anything, tx).Return(signed.Hash, nil).Once()
	got, err := account.Broadcast(ctx, tx)
	require.NoError(t, err)
	assert.Equal(t, signed.Hash, got)
}

func Test_Account_EstimateBounds_Error(t *testing.T) {
	client := mocks.NewChainClient(t)
	account, _ := newTestAccount(t, client)

	client.On("EstimateFee", mock.Anything, mock.Anything).
		Return(starkbridge.FeeEstimate{}, blockchain.NewRejectionError(blockchain.OpEstimateFee, 41, "reverted")).Once()
	_, err := account.EstimateBounds(context.Background(), nil, felt.Zero)
	require.Error(t, err)
	assert.True(t, blockchain.IsRejection(err))
}

// knownInvoke is an invoke v3 transaction on the goerli test network with a
// hash published by the network.
func knownInvoke(t *testing.T) (starkbridge.InvokeTx, felt.Felt) {
	t.Helper()
	chainID, err := felt.FromShortString("SN_GOERLI")
	require.NoError(t, err)
	hexes := []string{
		"0x2",
		"0x450703c32370cf7ffff540b9352e7ee4ad583af143a361155f2b485c0c39684",
		"0x27c3334165536f239cfd400ed956eabff55fc60de4fb56728b6a4f6b87db01c",
		"0x0",
		"0x4",
		"0x4c312760dfd17a954cdd09e76aa9f149f806d88ec3e402ffaf5c4926f568a42",
		"0x5df99ae77df976b4f0e5cf28c7dcfe09bd6e81aab787b19ac0c08e03d928cf",
		"0x4",
		"0x1",
		"0x5",
		"0x450703c32370cf7ffff540b9352e7ee4ad583af143a361155f2b485c0c39684",
		"0x5df99ae77df976b4f0e5cf28c7dcfe09bd6e81aab787b19ac0c08e03d928cf",
		"0x1",
		"0x7fe4fd616c7fece1244b3616bb516562e230be8c9f29668b46ce0369d5ca829",
		"0x287acddb27a2f9ba7f2612d72788dc96a5b30e401fc1e8072250940e024a587",
	}
	calldata := make([]felt.Felt, len(hexes))
	for i, h := range hexes {
		calldata[i] = felt.MustFromHex(h)
	}
	return starkbridge.InvokeTx{
		Type:          "INVOKE",
		SenderAddress: felt.MustFromHex("0x3f6f3bc663aedc5285d6013cc3ffcbc4341d86ab488b8b68d297f8258793c41"),
		Calldata:      calldata,
		Version:       felt.FromUint64(3),
		Nonce:         felt.MustFromHex("0xe97"),
		ResourceBounds: starkbridge.ResourceBoundsMapping{
			L1Gas: starkbridge.ResourceBounds{
				MaxAmount:       felt.MustFromHex("0x186a0"),
				MaxPricePerUnit: felt.MustFromHex("0x5af3107a4000"),
			},
		},
		PaymasterData:             []felt.Felt{},
		AccountDeploymentData:     []felt.Felt{},
		NonceDataAvailabilityMode: starkbridge.DAModeL1,
		FeeDataAvailabilityMode:   starkbridge.DAModeL1,
	}, chainID
}

func Test_InvokeHash(t *testing.T) {
	tx, chainID := knownInvoke(t)

	t.Run("known_answer", func(t *testing.T) {
		got, err := starknet.InvokeHash(tx, chainID)
		require.NoError(t, err)
		assert.Equal(t, felt.MustFromHex("0x49728601e0bb2f48ce506b0cbd9c0e2a9e50d95858aa41463f46386dca489fd"), got)
	})
	t.Run("ignores_signature", func(t *testing.T) {
		want, err := starknet.InvokeHash(tx, chainID)
		require.NoError(t, err)
		signed := tx
		signed.Signature = []felt.Felt{felt.FromUint64(1), felt.FromUint64(2)}
		got, err := starknet.InvokeHash(signed, chainID)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})
	t.Run("commits_to_chain_and_nonce", func(t *testing.T) {
		h1, err := starknet.InvokeHash(tx, chainID)
		require.NoError(t, err)
		h2, err := starknet.InvokeHash(tx, felt.FromUint64(1))
		require.NoError(t, err)
		assert.NotEqual(t, h1, h2)

		tx.Nonce = felt.MustFromHex("0xe98")
		h3, err := starknet.InvokeHash(tx, chainID)
		require.NoError(t, err)
		assert.NotEqual(t, h1, h3)
	})
}

func Test_KeySigner(t *testing.T) {
	t.Run("public_key", func(t *testing.T) {
		s, err := starknet.NewKeySigner(felt.FromUint64(2))
		require.NoError(t, err)
		assert.Equal(t, felt.MustFromHex("0x759ca09377679ecd535a81e83039658bf40959283187c654c5416f439403cf5"),
			s.PublicKey())
	})
	t.Run("err_zero_key", func(t *testing.T) {
		_, err := starknet.NewKeySigner(felt.Zero)
		assert.Error(t, err)
	})
	t.Run("sign_known_answer", func(t *testing.T) {
		s, err := starknet.NewKeySigner(felt.FromUint64(2))
		require.NoError(t, err)
		hash := felt.MustFromHex("0x49728601e0bb2f48ce506b0cbd9c0e2a9e50d95858aa41463f46386dca489fd")
		sig, err := s.Sign(hash)
		require.NoError(t, err)
		assert.Equal(t, []felt.Felt{
			felt.MustFromHex("0x70df45b5543b1131018d8540194ae95af8b42fcd4e4a50d6b7ab44d2e48c82d"),
			felt.MustFromHex("0x3b1bddd28c902e63f005ad643c6ce29046c213a56290f1ea9e969690b8b0916"),
		}, sig)

		ok, err := starknet.Verify(s.PublicKey(), hash, sig)
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = starknet.Verify(s.PublicKey(), felt.FromUint64(1), sig)
		require.NoError(t, err)
		assert.False(t, ok)
	})
	t.Run("verify_wrong_length", func(t *testing.T) {
		_, err := starknet.Verify(felt.FromUint64(1), felt.FromUint64(1), nil)
		assert.Error(t, err)
	})
}

func Test_Dialer_Dial(t *testing.T) {
	_, srv := newNode(t, map[string]handlerFunc{
		"starknet_chainId": result("0x1"),
	})
	cfg, apiErr := starkbridge.ConnectionConfig{
		RPCURL:         srv.URL,
		AccountAddress: "0x1",
		PrivateKey:     "0x2",
	}.Validate()
	require.NoError(t, apiErr)

	client, signer, err := starknet.NewDialer(starknet.DefaultClientConfig()).Dial(context.Background(), cfg)
	require.NoError(t, err)
	defer client.Close()
	assert.False(t, signer.PublicKey().IsZero())

	id, err := client.ChainID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, felt.FromUint64(1), id)
}
