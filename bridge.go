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
	"context"
	"math/big"
	"time"

	"github.com/starkbridge/starkbridge/felt"
)

// Call represents one contract invocation: target address, entry point
// selector and the ordered list of arguments.
type Call struct {
	To       felt.Felt   `json:"to"`
	Selector felt.Felt   `json:"selector"`
	Calldata []felt.Felt `json:"calldata"`
}

// ConnPhase enumerates the phases of a managed connection.
type ConnPhase uint8

// Connection phases. Disconnected is the zero value and the initial phase.
const (
	Disconnected ConnPhase = iota
	Connecting
	Connected
	Failed
)

// String implements the stringer interface for ConnPhase.
func (p ConnPhase) String() string {
	return [...]string{
		"Disconnected",
		"Connecting",
		"Connected",
		"Failed",
	}[p]
}

// ConnState is a snapshot of the state of a managed connection.
//
// Session is set only in Connected phase and Err only in Failed phase.
type ConnState struct {
	Phase   ConnPhase
	Session *Session
	Err     APIError
}

// TxStatus is the lifecycle status of a transaction record.
type TxStatus uint8

// Transaction statuses. The non terminal statuses are ordered, a record only
// ever moves forward in this order or into a terminal status.
const (
	Submitted TxStatus = iota
	Pending
	AcceptedOnL2
	AcceptedOnL1
	Rejected
	Unknown
)

// String implements the stringer interface for TxStatus.
func (s TxStatus) String() string {
	return [...]string{
		"Submitted",
		"Pending",
		"AcceptedOnL2",
		"AcceptedOnL1",
		"Rejected",
		"Unknown",
	}[s]
}

// Terminal reports whether no further status change can happen.
func (s TxStatus) Terminal() bool {
	return s == AcceptedOnL1 || s == Rejected || s == Unknown
}

// Advances reports whether moving from s to next respects monotonicity.
func (s TxStatus) Advances(next TxStatus) bool {
	if s.Terminal() {
		return false
	}
	if next == Rejected || next == Unknown {
		return true
	}
	return next > s
}

// TransactionRecord is a snapshot of the state of one submitted transaction.
type TransactionRecord struct {
	TrackingID string
	Hash       *felt.Felt
	Status     TxStatus
	// RejectReason is set only when Status is Rejected.
	RejectReason string
	RetryCount   int
	LastPolledAt time.Time
	SubmittedAt  time.Time
	// MaxFee is the fee limit set by the resource bounds the transaction was
	// signed with, in FRI.
	MaxFee *big.Int

	// MonitoringStopped is set when the host cancelled the record.
	MonitoringStopped bool
}

// Data availability modes of the nonce and the fee balance of an account.
const (
	DAModeL1 = "L1"
	DAModeL2 = "L2"
)

// ResourceBounds limits the amount and the price per unit of one resource.
// MaxAmount must fit in 64 bits and MaxPricePerUnit in 128 bits.
type ResourceBounds struct {
	MaxAmount       felt.Felt `json:"max_amount"`
	MaxPricePerUnit felt.Felt `json:"max_price_per_unit"`
}

// ResourceBoundsMapping holds the bounds for each resource of a v3 transaction.
type ResourceBoundsMapping struct {
	L1Gas ResourceBounds `json:"l1_gas"`
	L2Gas ResourceBounds `json:"l2_gas"`
}

// MaxFee returns the highest fee the bounds allow, in the base unit of the
// fee token.
func (m ResourceBoundsMapping) MaxFee() *big.Int {
	fee := new(big.Int).Mul(m.L1Gas.MaxAmount.Big(), m.L1Gas.MaxPricePerUnit.Big())
	return fee.Add(fee, new(big.Int).Mul(m.L2Gas.MaxAmount.Big(), m.L2Gas.MaxPricePerUnit.Big()))
}

// InvokeTx is a version 3 invoke transaction in the form expected by the node.
type InvokeTx struct {
	Type                      string                `json:"type"`
	SenderAddress             felt.Felt             `json:"sender_address"`
	Calldata                  []felt.Felt           `json:"calldata"`
	Version                   felt.Felt             `json:"version"`
	Signature                 []felt.Felt           `json:"signature"`
	Nonce                     felt.Felt             `json:"nonce"`
	ResourceBounds            ResourceBoundsMapping `json:"resource_bounds"`
	Tip                       felt.Felt             `json:"tip"`
	PaymasterData             []felt.Felt           `json:"paymaster_data"`
	AccountDeploymentData     []felt.Felt           `json:"account_deployment_data"`
	NonceDataAvailabilityMode string                `json:"nonce_data_availability_mode"`
	FeeDataAvailabilityMode   string                `json:"fee_data_availability_mode"`
}

// FeeEstimate is the fee estimation returned by the node. Fees of v3
// transactions are quoted in FRI.
type FeeEstimate struct {
	GasConsumed     felt.Felt `json:"gas_consumed"`
	GasPrice        felt.Felt `json:"gas_price"`
	DataGasConsumed felt.Felt `json:"data_gas_consumed"`
	DataGasPrice    felt.Felt `json:"data_gas_price"`
	OverallFee      felt.Felt `json:"overall_fee"`
	Unit            string    `json:"unit"`
}

// Finality and execution status values reported in receipts.
const (
	FinalityReceived     = "RECEIVED"
	FinalityAcceptedOnL2 = "ACCEPTED_ON_L2"
	FinalityAcceptedOnL1 = "ACCEPTED_ON_L1"
	FinalityRejected     = "REJECTED"

	ExecutionSucceeded = "SUCCEEDED"
	ExecutionReverted  = "REVERTED"
)

// Receipt is the part of a transaction receipt that the bridge interprets.
type Receipt struct {
	TransactionHash felt.Felt `json:"transaction_hash"`
	FinalityStatus  string    `json:"finality_status"`
	ExecutionStatus string    `json:"execution_status"`
	RevertReason    string    `json:"revert_reason,omitempty"`
}

// ChainClient is the black box boundary to the blockchain node.
//
// Implementations must classify errors using the blockchain package: a
// transient error (network, timeout, not yet indexed) is wrapped with
// blockchain.NewTransientError, a permanent rejection by the node with
// blockchain.NewRejectionError.
//
//go:generate mockery --name ChainClient --output ./internal/mocks
type ChainClient interface {
	ChainID(ctx context.Context) (felt.Felt, error)
	Nonce(ctx context.Context, account felt.Felt) (felt.Felt, error)
	EstimateFee(ctx context.Context, tx InvokeTx) (FeeEstimate, error)
	AddInvokeTransaction(ctx context.Context, tx InvokeTx) (txHash felt.Felt, _ error)
	TransactionReceipt(ctx context.Context, txHash felt.Felt) (Receipt, error)
	Close()
}

// Signer signs transaction hashes on behalf of an account.
//
//go:generate mockery --name Signer --output ./internal/mocks
type Signer interface {
	PublicKey() felt.Felt
	Sign(hash felt.Felt) (signature []felt.Felt, _ error)
}
