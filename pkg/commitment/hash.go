/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package commitment

import (
	"fmt"

	"github.com/multiformats/go-multihash"

	"github.com/trustbloc/did-core-go/pkg/canonicalizer"
	"github.com/trustbloc/did-core-go/pkg/encoder"
	"github.com/trustbloc/did-core-go/pkg/hashing"
	"github.com/trustbloc/did-core-go/pkg/internal/log"
	"github.com/trustbloc/did-core-go/pkg/jwk"
)

var logger = log.New("did-core-commitment")

// GetCommitment calculates the commitment for the public key: the multihash of the hash of the
// canonicalized key.
func GetCommitment(key *jwk.JWK, multihashCode uint) (string, error) {
	data, err := canonicalPublicKey(key)
	if err != nil {
		return "", err
	}

	dataHash, err := hashing.GetHashFromMultihash(multihashCode, data)
	if err != nil {
		return "", err
	}

	multiHashBytes, err := hashing.ComputeMultihash(multihashCode, dataHash)
	if err != nil {
		return "", err
	}

	commitment := encoder.EncodeToString(multiHashBytes)

	logger.Debug("Calculated commitment", log.WithCommitment(commitment))

	return commitment, nil
}

// GetRevealValue calculates the reveal value for the public key: the multihash of the
// canonicalized key.
func GetRevealValue(key *jwk.JWK, multihashCode uint) (string, error) {
	data, err := canonicalPublicKey(key)
	if err != nil {
		return "", err
	}

	mh, err := hashing.ComputeMultihash(multihashCode, data)
	if err != nil {
		return "", err
	}

	return encoder.EncodeToString(mh), nil
}

// GetCommitmentFromRevealValue calculates the commitment that the reveal value opens.
func GetCommitmentFromRevealValue(rv string) (string, error) {
	mhBytes, err := encoder.DecodeString(rv)
	if err != nil {
		return "", fmt.Errorf("failed to decode reveal value: %w", err)
	}

	mh, err := multihash.Decode(mhBytes)
	if err != nil {
		return "", fmt.Errorf("failed to decode reveal value multihash: %w", err)
	}

	commitmentBytes, err := hashing.ComputeMultihash(uint(mh.Code), mh.Digest)
	if err != nil {
		return "", err
	}

	return encoder.EncodeToString(commitmentBytes), nil
}

func canonicalPublicKey(key *jwk.JWK) ([]byte, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: public key is nil", jwk.ErrInvalidKey)
	}

	if key.IsPrivate() {
		return nil, fmt.Errorf("%w: commitment key must not contain private key material", jwk.ErrInvalidKey)
	}

	return canonicalizer.MarshalCanonical(key)
}
