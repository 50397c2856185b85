/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package hashing computes the base64url multihashes that Sidetree uses for
// unique suffixes, delta hashes, reveal values and commitments.
package hashing

import (
	"errors"
	"fmt"

	"github.com/multiformats/go-multihash"

	"github.com/trustbloc/did-core-go/pkg/canonicalizer"
	"github.com/trustbloc/did-core-go/pkg/encoder"
)

// SHA2_256 is the sha2-256 multihash code, the default for Sidetree operations.
const SHA2_256 uint = multihash.SHA2_256

// ErrHashMismatch is returned when content does not hash to the expected multihash.
var ErrHashMismatch = errors.New("content does not match multihash")

// ComputeMultihash hashes data with the algorithm of code and returns the multihash bytes.
func ComputeMultihash(code uint, data []byte) ([]byte, error) {
	if code == multihash.IDENTITY {
		return nil, fmt.Errorf("multihash code %d is not supported", code)
	}

	mh, err := multihash.Sum(data, uint64(code), -1)
	if err != nil {
		return nil, fmt.Errorf("multihash code %d is not supported: %w", code, err)
	}

	return mh, nil
}

// GetHashFromMultihash hashes data with the algorithm of code and returns the bare digest.
func GetHashFromMultihash(code uint, data []byte) ([]byte, error) {
	mh, err := ComputeMultihash(code, data)
	if err != nil {
		return nil, err
	}

	decoded, err := multihash.Decode(mh)
	if err != nil {
		return nil, err
	}

	return decoded.Digest, nil
}

// GetMultihashCode returns the code of a base64url encoded multihash.
func GetMultihashCode(encoded string) (uint64, error) {
	raw, err := encoder.DecodeString(encoded)
	if err != nil {
		return 0, err
	}

	decoded, err := multihash.Decode(raw)
	if err != nil {
		return 0, err
	}

	return decoded.Code, nil
}

// IsComputedUsingMultihashAlgorithm reports whether encoded is a multihash with the given code.
func IsComputedUsingMultihashAlgorithm(encoded string, code uint64) bool {
	actual, err := GetMultihashCode(encoded)

	return err == nil && actual == code
}

// CalculateModelMultihash returns the base64url multihash of the JCS encoding of value.
func CalculateModelMultihash(value interface{}, code uint) (string, error) {
	data, err := canonicalizer.MarshalCanonical(value)
	if err != nil {
		return "", err
	}

	mh, err := ComputeMultihash(code, data)
	if err != nil {
		return "", err
	}

	return encoder.EncodeToString(mh), nil
}

// IsValidModelMultihash checks that value hashes to expected, using the code carried by expected.
func IsValidModelMultihash(value interface{}, expected string) error {
	code, err := GetMultihashCode(expected)
	if err != nil {
		return err
	}

	actual, err := CalculateModelMultihash(value, uint(code))
	if err != nil {
		return err
	}

	if actual != expected {
		return ErrHashMismatch
	}

	return nil
}
