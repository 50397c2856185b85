/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package client

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/did-core-go/pkg/jws"
	"github.com/trustbloc/did-core-go/pkg/kms"
	"github.com/trustbloc/did-core-go/pkg/sidetree/model"
)

func TestNewDeactivateRequest(t *testing.T) {
	km := kms.NewLocalKeyManager()

	recoveryKey := newTestKey(t, km)
	otherKey := newTestKey(t, km)

	validInfo := func() *DeactivateRequestInfo {
		return &DeactivateRequestInfo{
			DidSuffix:   didSuffix,
			RecoveryKey: recoveryKey.publicKey,
			Signer:      recoveryKey.signer,
			RevealValue: recoveryKey.revealValue,
		}
	}

	for _, tc := range []struct {
		name   string
		modify func(info *DeactivateRequestInfo)
		err    string
	}{
		{"missing did suffix", func(info *DeactivateRequestInfo) { info.DidSuffix = "" }, "missing did suffix"},
		{"missing reveal value", func(info *DeactivateRequestInfo) { info.RevealValue = "" }, "missing reveal value"},
		{"missing recovery key", func(info *DeactivateRequestInfo) { info.RecoveryKey = nil }, "missing recovery key"},
		{
			"reveal value of another key", func(info *DeactivateRequestInfo) { info.RevealValue = otherKey.revealValue },
			"reveal value does not match recovery key",
		},
		{"signer fails", func(info *DeactivateRequestInfo) { info.Signer = NewMockSigner(errors.New(signerErr)) }, signerErr},
	} {
		t.Run(tc.name, func(t *testing.T) {
			info := validInfo()
			tc.modify(info)

			request, err := NewDeactivateRequest(info)
			require.ErrorContains(t, err, tc.err)
			require.Empty(t, request)
		})
	}

	t.Run("success", func(t *testing.T) {
		b, err := NewDeactivateRequest(validInfo())
		require.NoError(t, err)

		var request model.DeactivateRequest
		require.NoError(t, json.Unmarshal(b, &request))
		require.Equal(t, model.OperationTypeDeactivate, request.Operation)
		require.Equal(t, didSuffix, request.DidSuffix)
		require.Equal(t, recoveryKey.revealValue, request.RevealValue)

		signed, err := jws.VerifyJWS(request.SignedData, recoveryKey.publicKey)
		require.NoError(t, err)

		var payload model.DeactivateSignedDataModel
		require.NoError(t, json.Unmarshal(signed.Payload, &payload))
		require.Equal(t, didSuffix, payload.DidSuffix)
		require.Equal(t, recoveryKey.publicKey, payload.RecoveryKey)
	})
}
