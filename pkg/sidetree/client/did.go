/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package client

import (
	"errors"

	"github.com/trustbloc/did-core-go/pkg/canonicalizer"
	"github.com/trustbloc/did-core-go/pkg/encoder"
	"github.com/trustbloc/did-core-go/pkg/sidetree/model"
)

// NamespaceDelimiter separates the namespace, the unique suffix and the long-form initial state.
const NamespaceDelimiter = ":"

// GetDIDs returns the short-form DID '<namespace>:<suffix>' and the long-form DID
// '<namespace>:<suffix>:Base64url(JCS({suffixData, delta}))' of the create request.
func GetDIDs(namespace string, request *model.CreateRequest, multihashCode uint) (string, string, error) {
	if request == nil || request.Delta == nil {
		return "", "", errors.New("missing create request delta")
	}

	uniqueSuffix, err := model.GetUniqueSuffix(request.SuffixData, multihashCode)
	if err != nil {
		return "", "", err
	}

	initialState, err := canonicalizer.MarshalCanonical(&model.LongFormInitialState{
		SuffixData: request.SuffixData,
		Delta:      request.Delta,
	})
	if err != nil {
		return "", "", err
	}

	shortForm := namespace + NamespaceDelimiter + uniqueSuffix

	return shortForm, shortForm + NamespaceDelimiter + encoder.EncodeToString(initialState), nil
}
