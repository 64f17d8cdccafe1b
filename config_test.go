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

package starkbridge_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starkbridge/starkbridge"
	"github.com/starkbridge/starkbridge/bridgetest"
	"github.com/starkbridge/starkbridge/felt"
)

func validConfig() starkbridge.ConnectionConfig {
	return starkbridge.ConnectionConfig{
		RPCURL:         "http://localhost:5050",
		AccountAddress: "0x1",
		PrivateKey:     "0x2",
	}
}

func Test_ConnectionConfig_Validate_Happy(t *testing.T) {
	t.Run("without_chain_id", func(t *testing.T) {
		valid, apiErr := validConfig().Validate()
		require.NoError(t, apiErr)
		assert.Equal(t, "http://localhost:5050", valid.RPCURL)
		assert.Equal(t, felt.FromUint64(1), valid.Account)
		assert.Equal(t, felt.FromUint64(2), valid.PrivateKey)
		assert.Nil(t, valid.ChainID)
	})

	t.Run("chain_id_short_string", func(t *testing.T) {
		cfg := validConfig()
		cfg.ChainID = "SN_SEPOLIA"
		valid, apiErr := cfg.Validate()
		require.NoError(t, apiErr)
		require.NotNil(t, valid.ChainID)
		assert.Equal(t, felt.MustFromHex("0x534e5f5345504f4c4941"), *valid.ChainID)
	})

	t.Run("chain_id_hex", func(t *testing.T) {
		cfg := validConfig()
		cfg.ChainID = "0x534e5f5345504f4c4941"
		valid, apiErr := cfg.Validate()
		require.NoError(t, apiErr)
		require.NotNil(t, valid.ChainID)
		assert.Equal(t, "SN_SEPOLIA", starkbridge.ChainIDString(*valid.ChainID))
	})

	t.Run("other_schemes", func(t *testing.T) {
		for _, url := range []string{"https://node.example:443/rpc/v0_7", "ws://localhost:9545", "wss://node.example"} {
			cfg := validConfig()
			cfg.RPCURL = url
			_, apiErr := cfg.Validate()
			assert.NoError(t, apiErr, url)
		}
	})

	t.Run("surrounding_space", func(t *testing.T) {
		cfg := validConfig()
		cfg.RPCURL = " http://localhost:5050 "
		cfg.AccountAddress = " 0x01 "
		valid, apiErr := cfg.Validate()
		require.NoError(t, apiErr)
		assert.Equal(t, "http://localhost:5050", valid.RPCURL)
		assert.Equal(t, felt.FromUint64(1), valid.Account)
	})
}

func Test_ConnectionConfig_Validate_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*starkbridge.ConnectionConfig)
		argName   starkbridge.ArgumentName
		wantValue string
	}{
		{"url_empty", func(c *starkbridge.ConnectionConfig) { c.RPCURL = "" }, starkbridge.ArgNameRPCURL, ""},
		{"url_no_scheme", func(c *starkbridge.ConnectionConfig) { c.RPCURL = "localhost:5050" }, starkbridge.ArgNameRPCURL, "localhost:5050"},
		{"url_bad_scheme", func(c *starkbridge.ConnectionConfig) { c.RPCURL = "ftp://localhost" }, starkbridge.ArgNameRPCURL, "ftp://localhost"},
		{"url_no_host", func(c *starkbridge.ConnectionConfig) { c.RPCURL = "http://" }, starkbridge.ArgNameRPCURL, "http://"},
		{"url_unparsable", func(c *starkbridge.ConnectionConfig) { c.RPCURL = "http://[::1" }, starkbridge.ArgNameRPCURL, "http://[::1"},
		{"account_no_prefix", func(c *starkbridge.ConnectionConfig) { c.AccountAddress = "123" }, starkbridge.ArgNameAccountAddress, "123"},
		{"account_not_hex", func(c *starkbridge.ConnectionConfig) { c.AccountAddress = "0xzz" }, starkbridge.ArgNameAccountAddress, "0xzz"},
		{"account_out_of_range", func(c *starkbridge.ConnectionConfig) {
			c.AccountAddress = "0x800000000000011000000000000000000000000000000000000000000000001"
		}, starkbridge.ArgNameAccountAddress, "0x800000000000011000000000000000000000000000000000000000000000001"},
		{"key_not_hex", func(c *starkbridge.ConnectionConfig) { c.PrivateKey = "0xsecret" }, starkbridge.ArgNamePrivateKey, "***"},
		{"key_zero", func(c *starkbridge.ConnectionConfig) { c.PrivateKey = "0x0" }, starkbridge.ArgNamePrivateKey, "***"},
		{"chain_id_too_long", func(c *starkbridge.ConnectionConfig) {
			c.ChainID = "A_CHAIN_ID_THAT_IS_LONGER_THAN_31_CHARS"
		}, starkbridge.ArgNameChainID, "A_CHAIN_ID_THAT_IS_LONGER_THAN_31_CHARS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)
			_, apiErr := cfg.Validate()
			bridgetest.AssertAPIError(t, apiErr, starkbridge.ClientError, starkbridge.ErrConfigInvalid)
			bridgetest.AssertErrInfoInvalidConfig(t, apiErr.AddInfo(), tt.argName, tt.wantValue)
			assert.NotContains(t, apiErr.Message(), "secret")
		})
	}
}

func Test_ValidConfig_String(t *testing.T) {
	cfg := validConfig()
	cfg.PrivateKey = "0xabcdef"
	valid, apiErr := cfg.Validate()
	require.NoError(t, apiErr)
	assert.Equal(t, "{RPCURL:http://localhost:5050 Account:0x1 PrivateKey:*** ChainID:any}", valid.String())
	assert.NotContains(t, valid.String(), "abcdef")
}

func Test_ChainIDString(t *testing.T) {
	assert.Equal(t, "SN_MAIN", starkbridge.ChainIDString(felt.MustFromHex("0x534e5f4d41494e")))
	assert.Equal(t, "0x0", starkbridge.ChainIDString(felt.Zero))
	assert.Equal(t, "0x1ff", starkbridge.ChainIDString(felt.MustFromHex("0x1ff")))
}
