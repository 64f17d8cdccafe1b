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
	"fmt"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/starkbridge/starkbridge/felt"
)

// Names of the connection config parameters, used in ConfigInvalid errors.
const (
	ArgNameRPCURL         ArgumentName = "rpcURL"
	ArgNameAccountAddress ArgumentName = "accountAddress"
	ArgNamePrivateKey     ArgumentName = "privateKey"
	ArgNameChainID        ArgumentName = "chainID"
)

// Definition of error constants for config validation.
var (
	errUnsupportedScheme = errors.New("scheme must be one of http, https, ws, wss")
	errMissingHost       = errors.New("url has no host")
	errZeroPrivateKey    = errors.New("private key must not be zero")
)

// ConnectionConfig is the resolved configuration for connecting to a chain.
// It is agnostic to where the values came from (environment, flags, code).
type ConnectionConfig struct {
	RPCURL         string `mapstructure:"rpc_url" yaml:"rpc_url"`
	AccountAddress string `mapstructure:"account_address" yaml:"account_address"`
	PrivateKey     string `mapstructure:"private_key" yaml:"private_key"`
	// ChainID is optional. When set, the node must report this chain ID. It
	// can be given as a hex field element or as a short string (SN_SEPOLIA).
	ChainID string `mapstructure:"chain_id" yaml:"chain_id"`
}

// ValidConfig is a validated, immutable connection configuration.
type ValidConfig struct {
	RPCURL     string
	Account    felt.Felt
	PrivateKey felt.Felt
	// ChainID is nil when no chain ID is expected.
	ChainID *felt.Felt
}

// String masks the private key.
func (c ValidConfig) String() string {
	chainID := "any"
	if c.ChainID != nil {
		chainID = c.ChainID.String()
	}
	return fmt.Sprintf("{RPCURL:%s Account:%s PrivateKey:*** ChainID:%s}", c.RPCURL, c.Account, chainID)
}

// Validate checks that the config is well formed: the URL is resolvable and
// all field elements are syntactically valid. It does not do any I/O.
func (c ConnectionConfig) Validate() (ValidConfig, APIError) {
	u, err := url.Parse(strings.TrimSpace(c.RPCURL))
	if err != nil {
		return ValidConfig{}, NewAPIErrConfigInvalid(err, ArgNameRPCURL, c.RPCURL)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return ValidConfig{}, NewAPIErrConfigInvalid(errUnsupportedScheme, ArgNameRPCURL, c.RPCURL)
	}
	if u.Host == "" {
		return ValidConfig{}, NewAPIErrConfigInvalid(errMissingHost, ArgNameRPCURL, c.RPCURL)
	}

	account, err := felt.FromHex(c.AccountAddress)
	if err != nil {
		return ValidConfig{}, NewAPIErrConfigInvalid(err, ArgNameAccountAddress, c.AccountAddress)
	}
	key, err := felt.FromHex(c.PrivateKey)
	if err != nil {
		// The value of the private key is never echoed.
		return ValidConfig{}, NewAPIErrConfigInvalid(err, ArgNamePrivateKey, "***")
	}
	if key.IsZero() {
		return ValidConfig{}, NewAPIErrConfigInvalid(errZeroPrivateKey, ArgNamePrivateKey, "***")
	}

	valid := ValidConfig{
		RPCURL:     u.String(),
		Account:    account,
		PrivateKey: key,
	}
	if c.ChainID != "" {
		chainID, err := ParseChainID(c.ChainID)
		if err != nil {
			return ValidConfig{}, NewAPIErrConfigInvalid(err, ArgNameChainID, c.ChainID)
		}
		valid.ChainID = &chainID
	}
	return valid, nil
}

// ParseChainID parses a chain ID given either as hex or as a short string.
func ParseChainID(s string) (felt.Felt, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return felt.FromHex(s)
	}
	return felt.FromShortString(s)
}

// ChainIDString returns the short string form of a chain ID when it is
// printable and the hex form otherwise.
func ChainIDString(id felt.Felt) string {
	if s, ok := id.ShortString(); ok && s != "" {
		return s
	}
	return id.String()
}
