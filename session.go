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

package starkbridge

import (
	"sync"

	"github.com/starkbridge/starkbridge/felt"
)

// Session is the handle of an established connection. It bundles the chain
// client with the key material of the account.
//
// A session is reference counted. The connection manager holds the first
// reference; every transaction that is still being tracked holds one more.
// The chain client is closed when the last reference is released, so that
// transactions submitted before a disconnect can still be monitored.
type Session struct {
	ID        string
	RPCURL    string
	ChainID   felt.Felt
	Account   felt.Felt
	PublicKey felt.Felt
	Client    ChainClient
	Signer    Signer

	mu   sync.Mutex
	refs int
}

// NewSession returns a session holding one reference.
func NewSession(id, rpcURL string, chainID, account felt.Felt, client ChainClient, signer Signer) *Session {
	return &Session{
		ID:        id,
		RPCURL:    rpcURL,
		ChainID:   chainID,
		Account:   account,
		PublicKey: signer.PublicKey(),
		Client:    client,
		Signer:    signer,
		refs:      1,
	}
}

// Acquire takes an additional reference. It returns false if the session was
// already fully released, in which case the caller must not use it.
func (s *Session) Acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refs == 0 {
		return false
	}
	s.refs++
	return true
}

// Release drops a reference and closes the client when none is left.
// Releasing more often than acquiring is a no-op.
func (s *Session) Release() {
	s.mu.Lock()
	if s.refs == 0 {
		s.mu.Unlock()
		return
	}
	s.refs--
	closeNow := s.refs == 0
	s.mu.Unlock()

	if closeNow {
		s.Client.Close()
	}
}

// Refs returns the number of live references.
func (s *Session) Refs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refs
}
