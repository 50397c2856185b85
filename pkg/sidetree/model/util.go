/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package model

import (
	"errors"

	"github.com/trustbloc/did-core-go/pkg/hashing"
)

// GetUniqueSuffix returns the unique suffix of a DID: the encoded multihash of
// its canonical suffix data.
func GetUniqueSuffix(suffixData *SuffixDataModel, multihashCode uint) (string, error) {
	if suffixData == nil {
		return "", errors.New("missing suffix data")
	}

	return hashing.CalculateModelMultihash(suffixData, multihashCode)
}
