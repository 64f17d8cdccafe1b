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

	snaccount "github.com/NethermindEth/starknet.go/account"
	"github.com/NethermindEth/starknet.go/curve"
	"github.com/pkg/errors"

	"github.com/starkbridge/starkbridge"
	"github.com/starkbridge/starkbridge/blockchain"
	"github.com/starkbridge/starkbridge/felt"
)

// KeySigner signs with a private key held in an in memory keystore.
type KeySigner struct {
	ks    *snaccount.MemKeystore
	pub   felt.Felt
	keyID string
}

// Compile time check that KeySigner implements the signer interface.
var _ starkbridge.Signer = &KeySigner{}

// NewKeySigner derives the public key for priv.
func NewKeySigner(priv felt.Felt) (*KeySigner, error) {
	pubX, _, err := curve.Curve.PrivateToPoint(priv.Big())
	if err != nil {
		return nil, errors.Wrap(err, "deriving public key")
	}
	pub, err := felt.FromBig(pubX)
	if err != nil {
		return nil, errors.Wrap(err, "deriving public key")
	}
	return &KeySigner{
		ks:    snaccount.SetNewMemKeystore(pub.String(), priv.Big()),
		pub:   pub,
		keyID: pub.String(),
	}, nil
}

// PublicKey returns the x coordinate of the public key.
func (s *KeySigner) PublicKey() felt.Felt {
	return s.pub
}

// Sign returns the signature [r, s] over hash. The nonce of the signature is
// derived deterministically from the key and the hash.
func (s *KeySigner) Sign(hash felt.Felt) ([]felt.Felt, error) {
	r, sig, err := s.ks.Sign(context.Background(), s.keyID, hash.Big())
	if err != nil {
		return nil, blockchain.NewRejectionError(blockchain.OpSign, 0, err.Error())
	}
	// Both values are below 2^251 and thus valid field elements.
	rf, _ := felt.FromBig(r)
	sf, _ := felt.FromBig(sig)
	return []felt.Felt{rf, sf}, nil
}

// Verify checks a signature over hash produced by the key whose public key
// is pub.
func Verify(pub, hash felt.Felt, signature []felt.Felt) (bool, error) {
	if len(signature) != 2 {
		return false, errors.Errorf("expected signature of 2 elements, got %d", len(signature))
	}
	pubX := pub.Big()
	pubY := curve.Curve.GetYCoordinate(pubX)
	if pubY == nil {
		return false, errors.Errorf("public key %s is not on the curve", pub)
	}
	// Verify tries both candidates for the y coordinate.
	return curve.Curve.Verify(hash.Big(), signature[0].Big(), signature[1].Big(), pubX, pubY), nil
}
