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
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"

	"github.com/starkbridge/starkbridge/blockchain"
)

// Error codes defined by the Starknet node API.
const (
	CodeContractNotFound          = 20
	CodeBlockNotFound             = 24
	CodeTxHashNotFound            = 29
	CodeContractError             = 40
	CodeTxExecutionError          = 41
	CodeClassAlreadyDeclared      = 51
	CodeInvalidTxNonce            = 52
	CodeInsufficientMaxFee        = 53
	CodeInsufficientBalance       = 54
	CodeValidationFailure         = 55
	CodeCompilationFailed         = 56
	CodeContractClassSizeTooBig   = 57
	CodeNonAccount                = 58
	CodeDuplicateTx               = 59
	CodeCompiledClassHashMismatch = 60
	CodeUnsupportedTxVersion      = 61
	CodeUnexpectedError           = 63

	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

// permanentCodes are the errors for which retrying the same request cannot
// succeed.
var permanentCodes = map[int]bool{
	CodeContractNotFound:          true,
	CodeContractError:             true,
	CodeTxExecutionError:          true,
	CodeClassAlreadyDeclared:      true,
	CodeInvalidTxNonce:            true,
	CodeInsufficientMaxFee:        true,
	CodeInsufficientBalance:       true,
	CodeValidationFailure:         true,
	CodeCompilationFailed:         true,
	CodeContractClassSizeTooBig:   true,
	CodeNonAccount:                true,
	CodeDuplicateTx:               true,
	CodeCompiledClassHashMismatch: true,
	CodeUnsupportedTxVersion:      true,
	codeMethodNotFound:            true,
	codeInvalidParams:             true,
}

// classify wraps an error returned by the rpc client as either a rejection
// or a transient error.
func classify(op blockchain.Operation, err error) error {
	var rpcErr rpc.Error
	if !errors.As(err, &rpcErr) {
		// Transport failures, timeouts and http status errors.
		return blockchain.NewTransientError(op, err)
	}
	if !permanentCodes[rpcErr.ErrorCode()] {
		return blockchain.NewTransientError(op, err)
	}

	reason := rpcErr.Error()
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) && dataErr.ErrorData() != nil {
		reason = fmt.Sprintf("%s: %v", reason, dataErr.ErrorData())
	}
	return blockchain.NewRejectionError(op, rpcErr.ErrorCode(), reason)
}
