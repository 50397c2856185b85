/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package client

import (
	"errors"

	"github.com/trustbloc/did-core-go/pkg/canonicalizer"
	"github.com/trustbloc/did-core-go/pkg/jwk"
	"github.com/trustbloc/did-core-go/pkg/sidetree/model"
	"github.com/trustbloc/did-core-go/pkg/sidetree/patch"
	"github.com/trustbloc/did-core-go/pkg/sidetree/signutil"
)

// UpdateRequestInfo holds the inputs of an update request. UpdateKey is the
// key revealed by RevealValue and Signer must sign with it.
type UpdateRequestInfo struct {
	DidSuffix        string
	Patches          []patch.Patch
	UpdateCommitment string
	UpdateKey        *jwk.JWK
	MultihashCode    uint
	Signer           Signer
	RevealValue      string
}

// NewUpdateRequest returns the canonical JSON of a signed update request.
func NewUpdateRequest(info *UpdateRequestInfo) ([]byte, error) {
	if err := checkSignedRequest(info.DidSuffix, info.RevealValue, info.Signer); err != nil {
		return nil, err
	}

	if len(info.Patches) == 0 {
		return nil, errors.New("missing patches")
	}

	for _, p := range info.Patches {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}

	if err := checkRevealedKey(info.UpdateKey, info.RevealValue, "update"); err != nil {
		return nil, err
	}

	if err := checkNextUpdateCommitment(info.UpdateCommitment, info.MultihashCode); err != nil {
		return nil, err
	}

	if err := checkNotCommittedTo(info.UpdateKey, info.UpdateCommitment, info.MultihashCode); err != nil {
		return nil, err
	}

	delta, deltaHash, err := newDelta("", info.Patches, info.UpdateCommitment, info.MultihashCode)
	if err != nil {
		return nil, err
	}

	signedData, err := signutil.SignModel(&model.UpdateSignedDataModel{
		UpdateKey: info.UpdateKey,
		DeltaHash: deltaHash,
	}, info.Signer)
	if err != nil {
		return nil, err
	}

	return canonicalizer.MarshalCanonical(&model.UpdateRequest{
		Operation:   model.OperationTypeUpdate,
		DidSuffix:   info.DidSuffix,
		RevealValue: info.RevealValue,
		SignedData:  signedData,
		Delta:       delta,
	})
}
