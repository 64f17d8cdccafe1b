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

	"github.com/starkbridge/starkbridge"
	"github.com/starkbridge/starkbridge/blockchain"
)

// Dialer connects to Starknet nodes over JSON-RPC and signs with the key
// from the connection config.
type Dialer struct {
	Config ClientConfig
}

// NewDialer returns a dialer using the client config.
func NewDialer(cfg ClientConfig) Dialer {
	return Dialer{Config: cfg}
}

// Dial returns a client for the node and a signer for the account. A key
// that is not usable on the STARK curve is reported as a rejection.
func (d Dialer) Dial(ctx context.Context, cfg starkbridge.ValidConfig) (
	starkbridge.ChainClient, starkbridge.Signer, error) {
	signer, err := NewKeySigner(cfg.PrivateKey)
	if err != nil {
		return nil, nil, blockchain.NewRejectionError(blockchain.OpSign, 0, err.Error())
	}
	client, err := NewClient(ctx, cfg.RPCURL, d.Config)
	if err != nil {
		return nil, nil, err
	}
	return client, signer, nil
}
