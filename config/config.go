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

// Package config resolves the configuration of a host from, in order of
// precedence, command line flags, environment variables, .env files, a yaml
// config file and defaults.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/starkbridge/starkbridge"
	"github.com/starkbridge/starkbridge/currency"
	"github.com/starkbridge/starkbridge/host"
)

// EnvPrefix is prepended to the upper cased key to get the name of the
// environment variable: rpc_url is read from STARKNET_RPC_URL and
// transaction.max_attempts from STARKNET_TRANSACTION_MAX_ATTEMPTS.
const EnvPrefix = "STARKNET"

// Configuration keys.
const (
	KeyRPCURL         = "rpc_url"
	KeyAccountAddress = "account_address"
	KeyPrivateKey     = "private_key"
	KeyChainID        = "chain_id"

	KeyLogLevel         = "log_level"
	KeyLogFile          = "log_file"
	KeyWorkers          = "runtime.workers"
	KeyHandshakeTimeout = "handshake_timeout"

	KeyClientRequestTimeout = "client.request_timeout"
	KeyClientRateLimit      = "client.rate_limit"
	KeyClientRateBurst      = "client.rate_burst"

	KeyBackoffBase       = "transaction.backoff.base"
	KeyBackoffMax        = "transaction.backoff.max"
	KeyBackoffMultiplier = "transaction.backoff.multiplier"
	KeyMaxAttempts       = "transaction.max_attempts"
	KeyPollInterval      = "transaction.poll_interval"
	KeyTxRequestTimeout  = "transaction.request_timeout"
	KeyFeeMultiplier     = "transaction.fee_multiplier"
	// KeyMaxFee is given in STRK, e.g. "0.01".
	KeyMaxFee = "transaction.max_fee"
)

// Config is the resolved configuration.
type Config struct {
	Connection starkbridge.ConnectionConfig
	Host       host.Config
}

// Resolver collects configuration sources and resolves them into a Config.
type Resolver struct {
	v *viper.Viper
}

// NewResolver returns a resolver that knows all keys with their defaults and
// reads the environment.
func NewResolver() *Resolver {
	v := viper.New()
	def := host.DefaultConfig()
	v.SetDefault(KeyRPCURL, "")
	v.SetDefault(KeyAccountAddress, "")
	v.SetDefault(KeyPrivateKey, "")
	v.SetDefault(KeyChainID, "")
	v.SetDefault(KeyLogLevel, def.LogLevel)
	v.SetDefault(KeyLogFile, def.LogFile)
	v.SetDefault(KeyWorkers, def.Runtime.Workers)
	v.SetDefault(KeyHandshakeTimeout, def.HandshakeTimeout)
	v.SetDefault(KeyClientRequestTimeout, def.Client.RequestTimeout)
	v.SetDefault(KeyClientRateLimit, def.Client.RateLimit)
	v.SetDefault(KeyClientRateBurst, def.Client.RateBurst)
	v.SetDefault(KeyBackoffBase, def.Transaction.Backoff.Base)
	v.SetDefault(KeyBackoffMax, def.Transaction.Backoff.Max)
	v.SetDefault(KeyBackoffMultiplier, def.Transaction.Backoff.Multiplier)
	v.SetDefault(KeyMaxAttempts, def.Transaction.MaxAttempts)
	v.SetDefault(KeyPollInterval, def.Transaction.PollInterval)
	v.SetDefault(KeyTxRequestTimeout, def.Transaction.RequestTimeout)
	v.SetDefault(KeyFeeMultiplier, def.Transaction.FeeMultiplier)
	v.SetDefault(KeyMaxFee, "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Resolver{v: v}
}

// flagName maps a key to the name of its flag: transaction.max_fee becomes
// transaction-max-fee.
func flagName(key string) string {
	return strings.NewReplacer(".", "-", "_", "-").Replace(key)
}

// DefineFlags defines one flag per key on the flag set. All flags have zero
// values for defaults, as their only purpose is to allow the user to
// explicitly override the configuration.
func DefineFlags(fs *pflag.FlagSet) {
	fs.String(flagName(KeyRPCURL), "", "URL of the JSON-RPC endpoint of the node")
	fs.String(flagName(KeyAccountAddress), "", "Address of the account as hex string with 0x prefix")
	fs.String(flagName(KeyPrivateKey), "", "Private key of the account as hex string with 0x prefix")
	fs.String(flagName(KeyChainID), "", "Expected chain ID, as hex or short string (SN_SEPOLIA)")
	fs.String(flagName(KeyLogLevel), "", "Log level. Supported levels: debug, info, error")
	fs.String(flagName(KeyLogFile), "", "Log file path. Use empty string for stdout")
	fs.Int(flagName(KeyWorkers), 0, "Number of background workers")
	fs.Duration(flagName(KeyHandshakeTimeout), 0, "Max duration of a connection handshake")
	fs.Duration(flagName(KeyClientRequestTimeout), 0, "Timeout of a single JSON-RPC request")
	fs.Float64(flagName(KeyClientRateLimit), 0, "Max JSON-RPC requests per second")
	fs.Int(flagName(KeyClientRateBurst), 0, "Max burst of JSON-RPC requests")
	fs.Duration(flagName(KeyBackoffBase), 0, "Delay before the first retry")
	fs.Duration(flagName(KeyBackoffMax), 0, "Upper bound for the retry delay")
	fs.Float64(flagName(KeyBackoffMultiplier), 0, "Growth factor of the retry delay")
	fs.Int(flagName(KeyMaxAttempts), 0, "Transient failures after which a transaction is Unknown")
	fs.Duration(flagName(KeyPollInterval), 0, "Interval between status polls of a transaction")
	fs.Duration(flagName(KeyTxRequestTimeout), 0, "Timeout of a transaction submission or poll")
	fs.Float64(flagName(KeyFeeMultiplier), 0, "Factor applied to the fee estimate")
	fs.String(flagName(KeyMaxFee), "", "Cap for the max fee in STRK, empty for no cap")
}

// BindFlags binds the flags defined by DefineFlags. Values in flags, when
// specified, take precedence over all other sources.
func (r *Resolver) BindFlags(fs *pflag.FlagSet) error {
	for _, key := range r.v.AllKeys() {
		f := fs.Lookup(flagName(key))
		if f == nil {
			continue
		}
		if err := r.v.BindPFlag(key, f); err != nil {
			return errors.Wrapf(err, "binding flag %s", f.Name)
		}
	}
	return nil
}

// LoadEnvFiles loads the .env files that exist into the environment.
// Variables already set in the environment are not overridden.
func (r *Resolver) LoadEnvFiles(paths ...string) error {
	for _, path := range paths {
		path = filepath.Clean(path)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return errors.Wrapf(err, "loading env file %s", path)
		}
	}
	return nil
}

// ReadFile reads the yaml config file.
func (r *Resolver) ReadFile(path string) error {
	r.v.SetConfigFile(filepath.Clean(path))
	r.v.SetConfigType("yaml")
	return errors.Wrap(r.v.ReadInConfig(), "reading from source")
}

// Resolve returns the configuration. The connection config is returned as is
// and validated when connecting.
func (r *Resolver) Resolve() (Config, error) {
	v := r.v
	cfg := Config{
		Connection: starkbridge.ConnectionConfig{
			RPCURL:         v.GetString(KeyRPCURL),
			AccountAddress: v.GetString(KeyAccountAddress),
			PrivateKey:     v.GetString(KeyPrivateKey),
			ChainID:        v.GetString(KeyChainID),
		},
		Host: host.DefaultConfig(),
	}

	h := &cfg.Host
	h.LogLevel = v.GetString(KeyLogLevel)
	h.LogFile = v.GetString(KeyLogFile)
	h.Runtime.Workers = v.GetInt(KeyWorkers)
	h.HandshakeTimeout = v.GetDuration(KeyHandshakeTimeout)
	h.Client.RequestTimeout = v.GetDuration(KeyClientRequestTimeout)
	h.Client.RateLimit = v.GetFloat64(KeyClientRateLimit)
	h.Client.RateBurst = v.GetInt(KeyClientRateBurst)
	h.Transaction.Backoff.Base = v.GetDuration(KeyBackoffBase)
	h.Transaction.Backoff.Max = v.GetDuration(KeyBackoffMax)
	h.Transaction.Backoff.Multiplier = v.GetFloat64(KeyBackoffMultiplier)
	h.Transaction.MaxAttempts = v.GetInt(KeyMaxAttempts)
	h.Transaction.PollInterval = v.GetDuration(KeyPollInterval)
	h.Transaction.RequestTimeout = v.GetDuration(KeyTxRequestTimeout)
	h.Transaction.FeeMultiplier = v.GetFloat64(KeyFeeMultiplier)

	if err := checkPositive(KeyHandshakeTimeout, h.HandshakeTimeout); err != nil {
		return Config{}, err
	}
	if err := checkPositive(KeyPollInterval, h.Transaction.PollInterval); err != nil {
		return Config{}, err
	}
	if h.Transaction.MaxAttempts < 1 {
		return Config{}, errors.Errorf("%s must be at least 1", KeyMaxAttempts)
	}
	if h.Transaction.FeeMultiplier < 1 {
		return Config{}, errors.Errorf("%s must be at least 1", KeyFeeMultiplier)
	}

	if maxFee := v.GetString(KeyMaxFee); maxFee != "" {
		fee, err := currency.New(currency.STRK, currency.FeeTokenDecimals).Parse(maxFee)
		if err != nil {
			return Config{}, errors.WithMessagef(err, "parsing %s", KeyMaxFee)
		}
		h.Transaction.MaxFee = fee
	}
	return cfg, nil
}

func checkPositive(key string, d time.Duration) error {
	if d <= 0 {
		return errors.Errorf("%s must be positive", key)
	}
	return nil
}
