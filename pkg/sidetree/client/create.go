/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package client

import (
	"fmt"

	"github.com/multiformats/go-multihash"

	"github.com/trustbloc/did-core-go/pkg/canonicalizer"
	"github.com/trustbloc/did-core-go/pkg/sidetree/model"
	"github.com/trustbloc/did-core-go/pkg/sidetree/patch"
)

// CreateRequestInfo holds the inputs of a create request. Exactly one of
// OpaqueDocument and Patches must be set.
type CreateRequestInfo struct {
	OpaqueDocument     string
	Patches            []patch.Patch
	RecoveryCommitment string
	UpdateCommitment   string
	MultihashCode      uint
}

// NewCreateRequest returns the canonical JSON of a create request.
func NewCreateRequest(info *CreateRequestInfo) ([]byte, error) {
	req, err := NewCreateRequestModel(info)
	if err != nil {
		return nil, err
	}

	return canonicalizer.MarshalCanonical(req)
}

// NewCreateRequestModel returns the create request from which the unique
// suffix and the long-form DID are derived.
func NewCreateRequestModel(info *CreateRequestInfo) (*model.CreateRequest, error) {
	if err := checkContent(info.OpaqueDocument, info.Patches); err != nil {
		return nil, err
	}

	if !multihash.ValidCode(uint64(info.MultihashCode)) {
		return nil, fmt.Errorf("multihash code %d is not supported", info.MultihashCode)
	}

	if err := checkNextCommitments(info.RecoveryCommitment, info.UpdateCommitment, info.MultihashCode); err != nil {
		return nil, err
	}

	delta, deltaHash, err := newDelta(info.OpaqueDocument, info.Patches, info.UpdateCommitment, info.MultihashCode)
	if err != nil {
		return nil, err
	}

	return &model.CreateRequest{
		Operation: model.OperationTypeCreate,
		SuffixData: &model.SuffixDataModel{
			DeltaHash:          deltaHash,
			RecoveryCommitment: info.RecoveryCommitment,
		},
		Delta: delta,
	}, nil
}
