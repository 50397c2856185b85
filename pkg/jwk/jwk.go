/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jwk

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/trustbloc/did-core-go/pkg/canonicalizer"
	"github.com/trustbloc/did-core-go/pkg/encoder"
)

// Key types.
const (
	KeyTypeEC  = "EC"
	KeyTypeOKP = "OKP"
)

// Curves.
const (
	CurveEd25519   = "Ed25519"
	CurveX25519    = "X25519"
	CurveSecp256k1 = "secp256k1"
	CurveP256      = "P-256"
)

// JWS algorithms.
const (
	AlgEdDSA  = "EdDSA"
	AlgES256K = "ES256K"
	AlgES256  = "ES256"
)

var (
	// ErrInvalidKey is returned when a JWK is missing required members.
	ErrInvalidKey = errors.New("invalid JWK")

	// ErrUnsupportedKey is returned for key types and curves this package cannot convert or sign with.
	ErrUnsupportedKey = errors.New("unsupported JWK")
)

// JWK is a JSON Web Key (RFC 7517). D is set only on private keys.
type JWK struct {
	Kty string `json:"kty"`
	Crv string `json:"crv,omitempty"`
	Alg string `json:"alg,omitempty"`
	Use string `json:"use,omitempty"`
	Kid string `json:"kid,omitempty"`
	X   string `json:"x,omitempty"`
	Y   string `json:"y,omitempty"`
	D   string `json:"d,omitempty"`
}

// Validate checks that the members required for the key type are present.
func (j *JWK) Validate() error {
	if j == nil {
		return fmt.Errorf("%w: JWK is nil", ErrInvalidKey)
	}

	if j.Kty == "" {
		return fmt.Errorf("%w: JWK kty is missing", ErrInvalidKey)
	}

	if j.Crv == "" {
		return fmt.Errorf("%w: JWK crv is missing", ErrInvalidKey)
	}

	if j.X == "" {
		return fmt.Errorf("%w: JWK x is missing", ErrInvalidKey)
	}

	switch j.Kty {
	case KeyTypeEC:
		if j.Y == "" {
			return fmt.Errorf("%w: JWK y is missing", ErrInvalidKey)
		}
	case KeyTypeOKP:
	default:
		return fmt.Errorf("%w: key type '%s'", ErrUnsupportedKey, j.Kty)
	}

	return nil
}

// IsPrivate returns true if the key carries private key material.
func (j *JWK) IsPrivate() bool {
	return j.D != ""
}

// PublicJWK returns a copy of the key without private key material.
func (j *JWK) PublicJWK() *JWK {
	pub := *j
	pub.D = ""

	return &pub
}

// Thumbprint computes the RFC 7638 thumbprint: the base64url encoded SHA-256 digest of the
// required public members (crv, kty, x and, for EC keys, y) serialized in lexicographic order.
func (j *JWK) Thumbprint() (string, error) {
	if err := j.Validate(); err != nil {
		return "", err
	}

	members := map[string]string{
		"crv": j.Crv,
		"kty": j.Kty,
		"x":   j.X,
	}

	if j.Kty == KeyTypeEC {
		members["y"] = j.Y
	}

	data, err := canonicalizer.MarshalCanonical(members)
	if err != nil {
		return "", fmt.Errorf("thumbprint: %w", err)
	}

	digest := sha256.Sum256(data)

	return encoder.EncodeToString(digest[:]), nil
}

// Algorithm returns the JWS algorithm implied by the key's type and curve. An explicit alg
// member takes precedence.
func (j *JWK) Algorithm() (string, error) {
	if j.Alg != "" {
		return j.Alg, nil
	}

	switch {
	case j.Kty == KeyTypeOKP && j.Crv == CurveEd25519:
		return AlgEdDSA, nil
	case j.Kty == KeyTypeEC && j.Crv == CurveSecp256k1:
		return AlgES256K, nil
	case j.Kty == KeyTypeEC && j.Crv == CurveP256:
		return AlgES256, nil
	default:
		return "", fmt.Errorf("%w: no signing algorithm for kty '%s' crv '%s'", ErrUnsupportedKey, j.Kty, j.Crv)
	}
}
