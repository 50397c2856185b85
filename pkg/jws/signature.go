/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jws

import (
	"errors"
	"fmt"

	"github.com/trustbloc/did-core-go/pkg/crypto"
	"github.com/trustbloc/did-core-go/pkg/jwk"
)

var (
	// ErrMalformed is returned when a compact JWS cannot be parsed.
	ErrMalformed = errors.New("malformed JWS")

	// ErrMissingHeaderField is returned when a required JOSE header is absent.
	ErrMissingHeaderField = errors.New("missing JWS header field")

	// ErrUnresolvableKid is returned when the DID in the "kid" header cannot be resolved.
	ErrUnresolvableKid = errors.New("unable to resolve kid")

	// ErrVerificationMethodNotFound is returned when the "kid" matches no assertion method.
	ErrVerificationMethodNotFound = errors.New("verification method not found for kid")

	// ErrUnsupportedKeyType is returned when the verification key cannot verify JWS signatures.
	ErrUnsupportedKeyType = errors.New("unsupported key type")

	// ErrSignatureMismatch is returned when the signature does not verify.
	ErrSignatureMismatch = errors.New("signature mismatch")
)

// VerifySignature verifies signature against public key in JWK format.
// Supported keys: Ed25519 (EdDSA), secp256k1 (ES256K) and P-256 (ES256).
func VerifySignature(key *jwk.JWK, signature, msg []byte) error {
	if key == nil {
		return fmt.Errorf("%w: public key is missing", ErrUnsupportedKeyType)
	}

	switch key.Kty {
	case jwk.KeyTypeEC, jwk.KeyTypeOKP:
	default:
		return fmt.Errorf("%w: '%s' key type is not supported for verifying signature", ErrUnsupportedKeyType, key.Kty)
	}

	if _, err := key.Algorithm(); err != nil {
		return fmt.Errorf("%w: %s", ErrUnsupportedKeyType, err.Error())
	}

	verified, err := crypto.Verify(key, msg, signature)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnsupportedKeyType, err.Error())
	}

	if !verified {
		return fmt.Errorf("%w: %s", ErrSignatureMismatch, key.Crv)
	}

	return nil
}
