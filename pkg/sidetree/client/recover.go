/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package client

import (
	"github.com/trustbloc/did-core-go/pkg/canonicalizer"
	"github.com/trustbloc/did-core-go/pkg/jwk"
	"github.com/trustbloc/did-core-go/pkg/sidetree/model"
	"github.com/trustbloc/did-core-go/pkg/sidetree/patch"
	"github.com/trustbloc/did-core-go/pkg/sidetree/signutil"
)

// RecoverRequestInfo holds the inputs of a recover request. The new document
// content is given by exactly one of OpaqueDocument and Patches. Signer must
// sign with RecoveryKey.
type RecoverRequestInfo struct {
	DidSuffix          string
	RecoveryKey        *jwk.JWK
	OpaqueDocument     string
	Patches            []patch.Patch
	RecoveryCommitment string
	UpdateCommitment   string
	MultihashCode      uint
	Signer             Signer
	RevealValue        string
}

// NewRecoverRequest returns the canonical JSON of a signed recover request.
func NewRecoverRequest(info *RecoverRequestInfo) ([]byte, error) {
	if err := checkSignedRequest(info.DidSuffix, info.RevealValue, info.Signer); err != nil {
		return nil, err
	}

	if err := checkContent(info.OpaqueDocument, info.Patches); err != nil {
		return nil, err
	}

	if err := checkRevealedKey(info.RecoveryKey, info.RevealValue, "recovery"); err != nil {
		return nil, err
	}

	if err := checkNextCommitments(info.RecoveryCommitment, info.UpdateCommitment, info.MultihashCode); err != nil {
		return nil, err
	}

	if err := checkNotCommittedTo(info.RecoveryKey, info.RecoveryCommitment, info.MultihashCode); err != nil {
		return nil, err
	}

	delta, deltaHash, err := newDelta(info.OpaqueDocument, info.Patches, info.UpdateCommitment, info.MultihashCode)
	if err != nil {
		return nil, err
	}

	signedData, err := signutil.SignModel(&model.RecoverSignedDataModel{
		DeltaHash:          deltaHash,
		RecoveryKey:        info.RecoveryKey,
		RecoveryCommitment: info.RecoveryCommitment,
	}, info.Signer)
	if err != nil {
		return nil, err
	}

	return canonicalizer.MarshalCanonical(&model.RecoverRequest{
		Operation:   model.OperationTypeRecover,
		DidSuffix:   info.DidSuffix,
		RevealValue: info.RevealValue,
		SignedData:  signedData,
		Delta:       delta,
	})
}
