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

package bridgetest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starkbridge/starkbridge"
)

// AssertAPIError tests if the passed error contains expected category, code
// and phrases in the message.
func AssertAPIError(t *testing.T, e starkbridge.APIError, categ starkbridge.ErrorCategory,
	code starkbridge.ErrorCode, msgs ...string) {
	t.Helper()

	require.Error(t, e)
	assert.Equal(t, categ, e.Category())
	assert.Equal(t, code, e.Code())
	for _, msg := range msgs {
		assert.Contains(t, e.Message(), msg)
	}
}

// AssertErrInfoInvalidConfig tests if additional info field is of
// correct type and has expected values.
func AssertErrInfoInvalidConfig(t *testing.T, info interface{}, name starkbridge.ArgumentName, value string) {
	t.Helper()

	addInfo, ok := info.(starkbridge.ErrInfoInvalidConfig)
	require.True(t, ok)
	assert.Equal(t, string(name), addInfo.Name)
	assert.Equal(t, value, addInfo.Value)
}

// AssertErrInfoResourceNotFound tests if additional info field is of
// correct type and has expected values.
func AssertErrInfoResourceNotFound(t *testing.T, info interface{}, resourceType starkbridge.ResourceType, id string) {
	t.Helper()

	addInfo, ok := info.(starkbridge.ErrInfoResourceNotFound)
	require.True(t, ok)
	assert.Equal(t, string(resourceType), addInfo.Type)
	assert.Equal(t, id, addInfo.ID)
}

// AssertErrInfoChainNotReachable tests if additional info field is of
// correct type and has expected values.
func AssertErrInfoChainNotReachable(t *testing.T, info interface{}, chainURL string) {
	t.Helper()

	addInfo, ok := info.(starkbridge.ErrInfoChainNotReachable)
	require.True(t, ok)
	assert.Equal(t, chainURL, addInfo.ChainURL)
}

// AssertErrInfoChainMismatch tests if additional info field is of correct
// type and has expected values.
func AssertErrInfoChainMismatch(t *testing.T, info interface{}, expected, got string) {
	t.Helper()

	addInfo, ok := info.(starkbridge.ErrInfoChainMismatch)
	require.True(t, ok)
	assert.Equal(t, expected, addInfo.Expected)
	assert.Equal(t, got, addInfo.Got)
}

// AssertErrInfoAuth tests if additional info field is of correct type and
// has expected values.
func AssertErrInfoAuth(t *testing.T, info interface{}, account string) {
	t.Helper()

	addInfo, ok := info.(starkbridge.ErrInfoAuth)
	require.True(t, ok)
	assert.Equal(t, account, addInfo.Account)
}

// AssertErrInfoTxRejected tests if additional info field is of correct type
// and has expected values.
func AssertErrInfoTxRejected(t *testing.T, info interface{}, trackingID, reason string) {
	t.Helper()

	addInfo, ok := info.(starkbridge.ErrInfoTxRejected)
	require.True(t, ok)
	assert.Equal(t, trackingID, addInfo.TrackingID)
	assert.Equal(t, reason, addInfo.Reason)
}

// AssertErrInfoTxUnknown tests if additional info field is of correct type
// and has expected values.
func AssertErrInfoTxUnknown(t *testing.T, info interface{}, trackingID string, attempts int) {
	t.Helper()

	addInfo, ok := info.(starkbridge.ErrInfoTxUnknown)
	require.True(t, ok)
	assert.Equal(t, trackingID, addInfo.TrackingID)
	assert.Equal(t, attempts, addInfo.Attempts)
}
