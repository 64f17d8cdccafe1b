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
	"io"

	"github.com/pkg/errors"
)

// APIError represents the error that will be returned by the API of the bridge.
type APIError interface {
	Category() ErrorCategory
	Code() ErrorCode
	Message() string
	AddInfo() interface{}
	Error() string
}

// ErrorCategory represents the category of the error, which describes how the
// error should be handled by the host.
type ErrorCategory int

const (
	// ClientError is caused by the errors in the request from the host. It
	// could be errors in arguments, errors in configuration or a call made in
	// a state that does not permit it.
	//
	// To resolve this, the host should fix the request and retry.
	ClientError ErrorCategory = iota

	// ChainError is caused by the blockchain node or the chain itself: the
	// node is not reachable, it serves a different chain, the account is not
	// usable or a transaction was rejected.
	//
	// To resolve this, the host should inspect the error and, where it makes
	// sense, retry (for example by connecting again).
	ChainError

	// InternalError is caused due to unintended behavior in the bridge or
	// when it is used after being shut down.
	//
	// To resolve this, user should manually inspect the error message and
	// handle it.
	InternalError
)

// String implements the stringer interface for ErrorCategory.
func (c ErrorCategory) String() string {
	return [...]string{
		"Client",
		"Chain",
		"Internal",
	}[c]
}

// ErrorCode is a numeric code assigned to identify the specific type of error.
// The keys in the additional field is fixed for each error code.
type ErrorCode int

// Error code definitions.
const (
	ErrConfigInvalid      ErrorCode = 101
	ErrAlreadyConnecting  ErrorCode = 102
	ErrNotConnected       ErrorCode = 103
	ErrEmptyTransaction   ErrorCode = 104
	ErrResourceNotFound   ErrorCode = 105
	ErrFailedPreCondition ErrorCode = 106
	ErrNetwork            ErrorCode = 201
	ErrChainMismatch      ErrorCode = 202
	ErrAuth               ErrorCode = 203
	ErrTxRejected         ErrorCode = 204
	ErrTxUnknown          ErrorCode = 205
	ErrBridgeUnavailable  ErrorCode = 301
)

type (
	// ResourceType is used to enumerate valid resource types in ResourceNotFound errors.
	ResourceType string

	// ArgumentName is used to enumerate valid argument names in ConfigInvalid errors.
	ArgumentName string
)

type (
	// ErrInfoInvalidConfig represents the fields in the additional info for
	// ErrConfigInvalid.
	ErrInfoInvalidConfig struct {
		Name  string
		Value string
	}

	// ErrInfoResourceNotFound represents the fields in the additional info for
	// ErrResourceNotFound.
	ErrInfoResourceNotFound struct {
		Type string
		ID   string
	}

	// ErrInfoChainNotReachable represents the fields in the additional info
	// for ErrNetwork.
	ErrInfoChainNotReachable struct {
		ChainURL string
	}

	// ErrInfoChainMismatch represents the fields in the additional info for
	// ErrChainMismatch.
	ErrInfoChainMismatch struct {
		Expected string
		Got      string
	}

	// ErrInfoAuth represents the fields in the additional info for ErrAuth.
	ErrInfoAuth struct {
		Account string
	}

	// ErrInfoTxRejected represents the fields in the additional info for
	// ErrTxRejected.
	ErrInfoTxRejected struct {
		TrackingID string
		Reason     string
	}

	// ErrInfoTxUnknown represents the fields in the additional info for
	// ErrTxUnknown.
	ErrInfoTxUnknown struct {
		TrackingID string
		Attempts   int
	}
)

// apiError implements APIError.
//
// It implements Cause() and Unwrap() methods that return the underlying
// error, which can further be unwrapped, inspected.
//
// It also implements a custom Formatter, so that the stack trace of
// underlying error is printed when using "%+v" verb.
type apiError struct {
	category ErrorCategory
	code     ErrorCode
	err      error
	addInfo  interface{}
}

// Category returns the error category for this API Error.
func (e apiError) Category() ErrorCategory { return e.category }

// Code returns the error code for this API Error.
func (e apiError) Code() ErrorCode { return e.code }

// Message returns the error message for this API Error.
func (e apiError) Message() string { return e.err.Error() }

// AddInfo returns the additional info for this API Error.
func (e apiError) AddInfo() interface{} {
	return e.addInfo
}

// Error implement the error interface for API error.
func (e apiError) Error() string {
	return fmt.Sprintf("%s %d:%v", e.Category(), e.Code(), e.Message())
}

func (e apiError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprintf(s, "%s %d:%+v", e.Category(), e.Code(), e.err)
			return
		}
		fallthrough
	case 's':
		//nolint: errcheck,gosec	// Error of ioString need not be checked.
		io.WriteString(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}

func (e apiError) Cause() error { return e.err }

func (e apiError) Unwrap() error { return e.err }

// NewAPIErr returns an APIError with given parameters.
//
// For most use cases, call the error code specific constructor functions.
func NewAPIErr(category ErrorCategory, code ErrorCode, err error, addInfo interface{}) APIError {
	return apiError{
		category: category,
		code:     code,
		err:      err,
		addInfo:  addInfo,
	}
}

// NewAPIErrConfigInvalid returns an ErrConfigInvalid API Error with the given
// config parameter name and value.
func NewAPIErrConfigInvalid(err error, name ArgumentName, value string) APIError {
	message := fmt.Sprintf("invalid value for %s: %s", name, value)
	return NewAPIErr(
		ClientError,
		ErrConfigInvalid,
		errors.WithMessage(err, message),
		ErrInfoInvalidConfig{
			Name:  string(name),
			Value: value,
		},
	)
}

// NewAPIErrAlreadyConnecting returns an ErrAlreadyConnecting API Error.
func NewAPIErrAlreadyConnecting(err error) APIError {
	return NewAPIErr(ClientError, ErrAlreadyConnecting, err, nil)
}

// NewAPIErrNotConnected returns an ErrNotConnected API Error.
func NewAPIErrNotConnected(err error) APIError {
	return NewAPIErr(ClientError, ErrNotConnected, err, nil)
}

// NewAPIErrEmptyTransaction returns an ErrEmptyTransaction API Error.
func NewAPIErrEmptyTransaction(err error) APIError {
	return NewAPIErr(ClientError, ErrEmptyTransaction, err, nil)
}

// NewAPIErrResourceNotFound returns an ErrResourceNotFound API Error with
// the given resource type and ID.
func NewAPIErrResourceNotFound(resourceType ResourceType, resourceID string) APIError {
	message := fmt.Sprintf("cannot find %s with ID: %s", resourceType, resourceID)
	return NewAPIErr(
		ClientError,
		ErrResourceNotFound,
		errors.New(message),
		ErrInfoResourceNotFound{
			Type: string(resourceType),
			ID:   resourceID,
		},
	)
}

// NewAPIErrFailedPreCondition returns an ErrFailedPreCondition API Error
// with the given error message.
func NewAPIErrFailedPreCondition(err error) APIError {
	return NewAPIErr(ClientError, ErrFailedPreCondition, err, nil)
}

// NewAPIErrNetwork returns an ErrNetwork API Error with the given chain URL.
func NewAPIErrNetwork(err error, chainURL string) APIError {
	message := fmt.Sprintf("chain not reachable at %s", chainURL)
	return NewAPIErr(
		ChainError,
		ErrNetwork,
		errors.WithMessage(err, message),
		ErrInfoChainNotReachable{
			ChainURL: chainURL,
		},
	)
}

// NewAPIErrChainMismatch returns an ErrChainMismatch API Error with the
// expected and the reported chain IDs.
func NewAPIErrChainMismatch(expected, got string) APIError {
	message := fmt.Sprintf("node serves chain %s, expected %s", got, expected)
	return NewAPIErr(
		ChainError,
		ErrChainMismatch,
		errors.New(message),
		ErrInfoChainMismatch{
			Expected: expected,
			Got:      got,
		},
	)
}

// NewAPIErrAuth returns an ErrAuth API Error for the given account.
func NewAPIErrAuth(err error, account string) APIError {
	message := fmt.Sprintf("account %s not usable", account)
	return NewAPIErr(
		ChainError,
		ErrAuth,
		errors.WithMessage(err, message),
		ErrInfoAuth{
			Account: account,
		},
	)
}

// NewAPIErrTxRejected returns an ErrTxRejected API Error with the given
// tracking ID and reason.
func NewAPIErrTxRejected(trackingID, reason string) APIError {
	message := fmt.Sprintf("transaction %s rejected: %s", trackingID, reason)
	return NewAPIErr(
		ChainError,
		ErrTxRejected,
		errors.New(message),
		ErrInfoTxRejected{
			TrackingID: trackingID,
			Reason:     reason,
		},
	)
}

// NewAPIErrTxUnknown returns an ErrTxUnknown API Error for a transaction
// whose status could not be determined after the given number of attempts.
func NewAPIErrTxUnknown(err error, trackingID string, attempts int) APIError {
	message := fmt.Sprintf("status of transaction %s unknown after %d attempts", trackingID, attempts)
	return NewAPIErr(
		ChainError,
		ErrTxUnknown,
		errors.WithMessage(err, message),
		ErrInfoTxUnknown{
			TrackingID: trackingID,
			Attempts:   attempts,
		},
	)
}

// NewAPIErrBridgeUnavailable returns an ErrBridgeUnavailable API Error.
func NewAPIErrBridgeUnavailable(err error) APIError {
	return NewAPIErr(InternalError, ErrBridgeUnavailable, errors.WithMessage(err, "async bridge unavailable"), nil)
}

// APIErrAsMap returns a map containing entries for the method and each of the
// fields in the api error (except message). The map can be directly passed to
// the logger for logging the data in a structured format.
func APIErrAsMap(method string, err APIError) map[string]interface{} {
	return map[string]interface{}{
		"method":   method,
		"category": err.Category().String(),
		"code":     err.Code(),
		"add info": fmt.Sprintf("%+v", err.AddInfo()),
	}
}
