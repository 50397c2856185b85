/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package client

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/did-core-go/pkg/encoder"
	"github.com/trustbloc/did-core-go/pkg/hashing"
	"github.com/trustbloc/did-core-go/pkg/kms"
	"github.com/trustbloc/did-core-go/pkg/sidetree/model"
	"github.com/trustbloc/did-core-go/pkg/sidetree/patch"
)

func TestNewCreateRequest(t *testing.T) {
	km := kms.NewLocalKeyManager()

	recoveryKey := newTestKey(t, km)
	updateKey := newTestKey(t, km)

	t.Run("missing opaque document or patches", func(t *testing.T) {
		request, err := NewCreateRequest(&CreateRequestInfo{})
		require.Error(t, err)
		require.Empty(t, request)
		require.Contains(t, err.Error(), "one of opaque document or patches is required")
	})
	t.Run("opaque document and patches together", func(t *testing.T) {
		request, err := NewCreateRequest(&CreateRequestInfo{OpaqueDocument: "{}", Patches: []patch.Patch{{}}})
		require.Error(t, err)
		require.Empty(t, request)
		require.Contains(t, err.Error(), "opaque document and patches are mutually exclusive")
	})
	t.Run("recovery commitment error", func(t *testing.T) {
		request, err := NewCreateRequest(&CreateRequestInfo{
			OpaqueDocument:     "{}",
			RecoveryCommitment: recoveryKey.commitment,
		})
		require.Error(t, err)
		require.Empty(t, request)
		require.Contains(t, err.Error(), "next recovery commitment must use multihash code 0")
	})
	t.Run("update commitment error", func(t *testing.T) {
		info := &CreateRequestInfo{
			OpaqueDocument:     "{}",
			RecoveryCommitment: recoveryKey.commitment,
			MultihashCode:      sha2_256,
		}

		request, err := NewCreateRequest(info)
		require.Error(t, err)
		require.Empty(t, request)
		require.Contains(t, err.Error(), "next update commitment must use multihash code 18")
	})
	t.Run("equal next commitments", func(t *testing.T) {
		info := &CreateRequestInfo{
			OpaqueDocument:     "{}",
			RecoveryCommitment: recoveryKey.commitment,
			UpdateCommitment:   recoveryKey.commitment,
			MultihashCode:      sha2_256,
		}

		request, err := NewCreateRequest(info)
		require.Error(t, err)
		require.Empty(t, request)
		require.Contains(t, err.Error(), "next update and recovery commitments must differ")
	})
	t.Run("multihash not supported", func(t *testing.T) {
		info := &CreateRequestInfo{
			OpaqueDocument: "{}",
			MultihashCode:  55,
		}

		request, err := NewCreateRequest(info)
		require.Error(t, err)
		require.Empty(t, request)
		require.Contains(t, err.Error(), "multihash code 55 is not supported")
	})
	t.Run("error - malformed opaque doc", func(t *testing.T) {
		info := &CreateRequestInfo{
			OpaqueDocument:     `{,}`,
			RecoveryCommitment: recoveryKey.commitment,
			UpdateCommitment:   updateKey.commitment,
			MultihashCode:      sha2_256,
		}

		request, err := NewCreateRequest(info)
		require.Error(t, err)
		require.Empty(t, request)
		require.Contains(t, err.Error(), "invalid character ','")
	})
	t.Run("success - opaque document", func(t *testing.T) {
		info := &CreateRequestInfo{
			OpaqueDocument:     opaqueDoc,
			RecoveryCommitment: recoveryKey.commitment,
			UpdateCommitment:   updateKey.commitment,
			MultihashCode:      sha2_256,
		}

		request, err := NewCreateRequest(info)
		require.NoError(t, err)
		require.NotEmpty(t, request)

		var parsed model.CreateRequest
		require.NoError(t, json.Unmarshal(request, &parsed))
		require.Equal(t, model.OperationTypeCreate, parsed.Operation)
		require.Equal(t, recoveryKey.commitment, parsed.SuffixData.RecoveryCommitment)
		require.Equal(t, updateKey.commitment, parsed.Delta.UpdateCommitment)
		require.Len(t, parsed.Delta.Patches, 1)
		require.Equal(t, patch.Replace, parsed.Delta.Patches[0].GetAction())

		require.NoError(t, hashing.IsValidModelMultihash(parsed.Delta, parsed.SuffixData.DeltaHash))
	})

	t.Run("success - patches", func(t *testing.T) {
		p, err := patch.NewAddPublicKeysPatch(addKeys)
		require.NoError(t, err)

		info := &CreateRequestInfo{
			Patches:            []patch.Patch{p},
			RecoveryCommitment: recoveryKey.commitment,
			UpdateCommitment:   updateKey.commitment,
			MultihashCode:      sha2_256,
		}

		request, err := NewCreateRequest(info)
		require.NoError(t, err)
		require.NotEmpty(t, request)
	})
}

func TestGetDIDs(t *testing.T) {
	km := kms.NewLocalKeyManager()

	recoveryKey := newTestKey(t, km)
	updateKey := newTestKey(t, km)

	request, err := NewCreateRequestModel(&CreateRequestInfo{
		OpaqueDocument:     opaqueDoc,
		RecoveryCommitment: recoveryKey.commitment,
		UpdateCommitment:   updateKey.commitment,
		MultihashCode:      sha2_256,
	})
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		shortForm, longForm, err := GetDIDs("did:ion", request, sha2_256)
		require.NoError(t, err)

		suffix, err := hashing.CalculateModelMultihash(request.SuffixData, sha2_256)
		require.NoError(t, err)
		require.Equal(t, "did:ion:"+suffix, shortForm)

		require.True(t, strings.HasPrefix(longForm, shortForm+":"))

		initialState, err := encoder.DecodeString(strings.TrimPrefix(longForm, shortForm+":"))
		require.NoError(t, err)

		var state model.LongFormInitialState
		require.NoError(t, json.Unmarshal(initialState, &state))
		require.Equal(t, request.SuffixData, state.SuffixData)
		require.Equal(t, request.Delta.UpdateCommitment, state.Delta.UpdateCommitment)
	})
	t.Run("missing delta", func(t *testing.T) {
		_, _, err := GetDIDs("did:ion", &model.CreateRequest{}, sha2_256)
		require.EqualError(t, err, "missing create request delta")
	})
	t.Run("missing suffix data", func(t *testing.T) {
		_, _, err := GetDIDs("did:ion", &model.CreateRequest{Delta: request.Delta}, sha2_256)
		require.Error(t, err)
	})
}
