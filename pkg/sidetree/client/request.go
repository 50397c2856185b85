/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package client builds canonical Sidetree operation requests.
package client

import (
	"errors"
	"fmt"

	"github.com/trustbloc/did-core-go/pkg/commitment"
	"github.com/trustbloc/did-core-go/pkg/hashing"
	"github.com/trustbloc/did-core-go/pkg/jwk"
	"github.com/trustbloc/did-core-go/pkg/jws"
	"github.com/trustbloc/did-core-go/pkg/sidetree/model"
	"github.com/trustbloc/did-core-go/pkg/sidetree/patch"
)

// Signer signs the signed data of update, recover and deactivate requests.
type Signer interface {
	Sign(data []byte) ([]byte, error)

	// Headers returns the JWS protected headers. Only "alg" and "kid" are allowed.
	Headers() jws.Headers
}

// newDelta builds the delta from either an opaque document or explicit patches
// and returns it with its multihash.
func newDelta(opaque string, patches []patch.Patch, updateCommitment string,
	multihashCode uint) (*model.DeltaModel, string, error) {
	if opaque != "" {
		var err error

		patches, err = patch.PatchesFromDocument(opaque)
		if err != nil {
			return nil, "", err
		}
	}

	delta := &model.DeltaModel{
		UpdateCommitment: updateCommitment,
		Patches:          patches,
	}

	deltaHash, err := hashing.CalculateModelMultihash(delta, multihashCode)
	if err != nil {
		return nil, "", err
	}

	return delta, deltaHash, nil
}

func checkContent(opaque string, patches []patch.Patch) error {
	switch {
	case opaque == "" && len(patches) == 0:
		return errors.New("one of opaque document or patches is required")
	case opaque != "" && len(patches) > 0:
		return errors.New("opaque document and patches are mutually exclusive")
	}

	return nil
}

// checkNextCommitments checks the encoding of the commitments for the next
// operations and that they differ from each other.
func checkNextCommitments(recovery, update string, multihashCode uint) error {
	if !hashing.IsComputedUsingMultihashAlgorithm(recovery, uint64(multihashCode)) {
		return fmt.Errorf("next recovery commitment must use multihash code %d", multihashCode)
	}

	if err := checkNextUpdateCommitment(update, multihashCode); err != nil {
		return err
	}

	if recovery == update {
		return errors.New("next update and recovery commitments must differ")
	}

	return nil
}

func checkNextUpdateCommitment(update string, multihashCode uint) error {
	if !hashing.IsComputedUsingMultihashAlgorithm(update, uint64(multihashCode)) {
		return fmt.Errorf("next update commitment must use multihash code %d", multihashCode)
	}

	return nil
}

// checkRevealedKey checks that key is public and that revealValue opens it.
func checkRevealedKey(key *jwk.JWK, revealValue, role string) error {
	if key == nil {
		return fmt.Errorf("missing %s key", role)
	}

	if key.IsPrivate() {
		return fmt.Errorf("%s key must not contain private key material", role)
	}

	if err := key.Validate(); err != nil {
		return err
	}

	if err := hashing.IsValidModelMultihash(key, revealValue); err != nil {
		return fmt.Errorf("reveal value does not match %s key: %w", role, err)
	}

	return nil
}

// checkNotCommittedTo fails when next commits to the key being revealed.
func checkNotCommittedTo(key *jwk.JWK, next string, multihashCode uint) error {
	current, err := commitment.GetCommitment(key, multihashCode)
	if err != nil {
		return fmt.Errorf("compute commitment: %w", err)
	}

	if current == next {
		return errors.New("next commitment must not commit to the revealed key")
	}

	return nil
}

func validateSigner(signer Signer) error {
	if signer == nil {
		return errors.New("missing signer")
	}

	headers := signer.Headers()
	if headers == nil {
		return errors.New("missing protected headers")
	}

	for name := range headers {
		if name != jws.HeaderAlgorithm && name != jws.HeaderKeyID {
			return fmt.Errorf("protected header %q is not allowed", name)
		}
	}

	if alg, ok := headers.Algorithm(); !ok || alg == "" {
		return errors.New("protected header must carry an algorithm")
	}

	return nil
}

func checkSignedRequest(suffix, revealValue string, signer Signer) error {
	if suffix == "" {
		return errors.New("missing did suffix")
	}

	if revealValue == "" {
		return errors.New("missing reveal value")
	}

	return validateSigner(signer)
}
