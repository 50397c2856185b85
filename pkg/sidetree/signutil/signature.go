/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package signutil

import (
	"errors"
	"fmt"

	"github.com/trustbloc/did-core-go/pkg/canonicalizer"
	"github.com/trustbloc/did-core-go/pkg/jwk"
	"github.com/trustbloc/did-core-go/pkg/jws"
	"github.com/trustbloc/did-core-go/pkg/kms"
)

// SignModel signs model.
func SignModel(model interface{}, signer jws.Signer) (string, error) {
	// first you normalize model
	signedDataBytes, err := canonicalizer.MarshalCanonical(model)
	if err != nil {
		return "", err
	}

	return SignPayload(signedDataBytes, signer)
}

// SignPayload allows for singing payload.
func SignPayload(payload []byte, signer jws.Signer) (string, error) {
	alg, ok := signer.Headers().Algorithm()
	if !ok || alg == "" {
		return "", errors.New("signing algorithm is required")
	}

	jwsSignature, err := jws.NewJWS(signer.Headers(), payload, signer)
	if err != nil {
		return "", err
	}

	return jwsSignature.SerializeCompact(false)
}

// KeyManagerSigner signs Sidetree signed data with a key held by a key manager.
type KeyManagerSigner struct {
	km        kms.KeyManager
	alias     string
	kid       string
	alg       string
	publicKey *jwk.JWK
}

// SignerOption configures a KeyManagerSigner.
type SignerOption func(s *KeyManagerSigner)

// WithKeyID adds the "kid" protected header.
func WithKeyID(kid string) SignerOption {
	return func(s *KeyManagerSigner) {
		s.kid = kid
	}
}

// NewKeyManagerSigner returns a signer for the key stored under alias. The "alg" header is
// derived from the key's curve.
func NewKeyManagerSigner(km kms.KeyManager, alias string, opts ...SignerOption) (*KeyManagerSigner, error) {
	publicKey, err := km.GetPublicKey(alias)
	if err != nil {
		return nil, fmt.Errorf("get public key for signer: %w", err)
	}

	alg, err := publicKey.Algorithm()
	if err != nil {
		return nil, err
	}

	s := &KeyManagerSigner{
		km:        km,
		alias:     alias,
		alg:       alg,
		publicKey: publicKey,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Sign signs data with the key manager key.
func (s *KeyManagerSigner) Sign(data []byte) ([]byte, error) {
	return s.km.Sign(s.alias, data)
}

// Headers provides required JWS protected headers. It provides information about signing key and algorithm.
func (s *KeyManagerSigner) Headers() jws.Headers {
	headers := make(jws.Headers)

	headers[jws.HeaderAlgorithm] = s.alg

	if s.kid != "" {
		headers[jws.HeaderKeyID] = s.kid
	}

	return headers
}

// PublicKey returns the signing key's public JWK.
func (s *KeyManagerSigner) PublicKey() *jwk.JWK {
	return s.publicKey
}
