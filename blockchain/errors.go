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

package blockchain

import (
	"fmt"

	"github.com/pkg/errors"
)

// Operation names the call on the chain boundary that failed.
type Operation string

// Operations on the chain boundary.
const (
	OpChainID      Operation = "chainID"
	OpNonce        Operation = "nonce"
	OpEstimateFee  Operation = "estimateFee"
	OpAddInvokeTx  Operation = "addInvokeTransaction"
	OpTxReceipt    Operation = "transactionReceipt"
	OpSign         Operation = "sign"
	OpBuildRequest Operation = "buildRequest"
)

// TransientError is returned by a chain client when the operation failed for
// a reason that may go away on retry: the node is not reachable, the request
// timed out or the node has not yet indexed the transaction.
type TransientError struct {
	Op  Operation
	err error
}

func (e TransientError) Error() string {
	return fmt.Sprintf("transient failure in %s: %v", e.Op, e.err)
}

func (e TransientError) Unwrap() error {
	return e.err
}

// NewTransientError returns a TransientError for the operation.
func NewTransientError(op Operation, err error) error {
	return errors.WithStack(TransientError{
		Op:  op,
		err: err,
	})
}

// RejectionError is returned by a chain client when the node permanently
// refused the request. Retrying the same request will not succeed.
type RejectionError struct {
	Op     Operation
	Code   int
	Reason string
}

func (e RejectionError) Error() string {
	return fmt.Sprintf("%s rejected (code %d): %s", e.Op, e.Code, e.Reason)
}

// NewRejectionError returns a RejectionError for the operation.
func NewRejectionError(op Operation, code int, reason string) error {
	return errors.WithStack(RejectionError{
		Op:     op,
		Code:   code,
		Reason: reason,
	})
}

// IsTransient reports whether the error (or any error it wraps) is a
// TransientError. Errors that are neither transient nor a rejection are
// treated as transient by callers that retry, since the bridge cannot tell
// them apart from a network failure.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if IsRejection(err) {
		return false
	}
	return true
}

// IsRejection reports whether the error (or any error it wraps) is a RejectionError.
func IsRejection(err error) bool {
	e := RejectionError{}
	return errors.As(err, &e)
}

// RejectionReason returns the reason of the rejection and true, if the
// error is a RejectionError.
func RejectionReason(err error) (string, bool) {
	e := RejectionError{}
	if !errors.As(err, &e) {
		return "", false
	}
	return e.Reason, true
}

// RejectionCode returns the code of the rejection and true, if the error is a
// RejectionError.
func RejectionCode(err error) (int, bool) {
	e := RejectionError{}
	if !errors.As(err, &e) {
		return 0, false
	}
	return e.Code, true
}
