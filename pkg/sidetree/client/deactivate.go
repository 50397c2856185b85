/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package client

import (
	"github.com/trustbloc/did-core-go/pkg/canonicalizer"
	"github.com/trustbloc/did-core-go/pkg/jwk"
	"github.com/trustbloc/did-core-go/pkg/sidetree/model"
	"github.com/trustbloc/did-core-go/pkg/sidetree/signutil"
)

// DeactivateRequestInfo holds the inputs of a deactivate request. Signer must
// sign with RecoveryKey.
type DeactivateRequestInfo struct {
	DidSuffix   string
	RecoveryKey *jwk.JWK
	Signer      Signer
	RevealValue string
}

// NewDeactivateRequest returns the canonical JSON of a signed deactivate request.
func NewDeactivateRequest(info *DeactivateRequestInfo) ([]byte, error) {
	if err := checkSignedRequest(info.DidSuffix, info.RevealValue, info.Signer); err != nil {
		return nil, err
	}

	if err := checkRevealedKey(info.RecoveryKey, info.RevealValue, "recovery"); err != nil {
		return nil, err
	}

	signedData, err := signutil.SignModel(model.DeactivateSignedDataModel{
		DidSuffix:   info.DidSuffix,
		RecoveryKey: info.RecoveryKey,
	}, info.Signer)
	if err != nil {
		return nil, err
	}

	return canonicalizer.MarshalCanonical(&model.DeactivateRequest{
		Operation:   model.OperationTypeDeactivate,
		DidSuffix:   info.DidSuffix,
		RevealValue: info.RevealValue,
		SignedData:  signedData,
	})
}
