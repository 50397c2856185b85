/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package crypto

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec"
	"golang.org/x/crypto/curve25519"

	"github.com/trustbloc/did-core-go/pkg/jwk"
)

// Algorithm identifies a key pair algorithm.
type Algorithm string

// Supported algorithms.
const (
	Ed25519   Algorithm = "Ed25519"
	SECP256K1 Algorithm = "secp256k1"
	SECP256R1 Algorithm = "secp256r1"
	X25519    Algorithm = "X25519"
)

// ErrUnsupportedAlgorithm is returned for algorithms that cannot generate or sign.
var ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")

// AlgorithmFromJWK returns the key pair algorithm for the key's curve.
func AlgorithmFromJWK(key *jwk.JWK) (Algorithm, error) {
	switch key.Crv {
	case jwk.CurveEd25519:
		return Ed25519, nil
	case jwk.CurveSecp256k1:
		return SECP256K1, nil
	case jwk.CurveP256:
		return SECP256R1, nil
	case jwk.CurveX25519:
		return X25519, nil
	default:
		return "", fmt.Errorf("%w: curve '%s'", ErrUnsupportedAlgorithm, key.Crv)
	}
}

// GeneratePrivateKey generates a key pair and returns it as a private JWK.
func GeneratePrivateKey(alg Algorithm) (*jwk.JWK, error) {
	switch alg {
	case Ed25519:
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("generate ed25519 key: %w", err)
		}

		return jwk.FromPrivateKey(priv)
	case SECP256K1:
		priv, err := btcec.NewPrivateKey(btcec.S256())
		if err != nil {
			return nil, fmt.Errorf("generate secp256k1 key: %w", err)
		}

		return jwk.FromPrivateKey(priv.ToECDSA())
	case SECP256R1:
		priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("generate P-256 key: %w", err)
		}

		return jwk.FromPrivateKey(priv)
	case X25519:
		priv := make([]byte, curve25519.ScalarSize)

		if _, err := rand.Read(priv); err != nil {
			return nil, fmt.Errorf("generate x25519 key: %w", err)
		}

		return jwk.FromPrivateKey(jwk.X25519PrivateKey(priv))
	default:
		return nil, fmt.Errorf("%w: '%s'", ErrUnsupportedAlgorithm, alg)
	}
}

// Sign signs the payload with the private JWK and returns the raw signature: 64 bytes for
// Ed25519, fixed width R||S for ECDSA curves.
func Sign(privateKey *jwk.JWK, payload []byte) ([]byte, error) {
	key, err := privateKey.PrivateKey()
	if err != nil {
		return nil, err
	}

	switch k := key.(type) {
	case ed25519.PrivateKey:
		return signEd25519(k, payload)
	case *ecdsa.PrivateKey:
		return signECDSA(k, payload)
	default:
		return nil, fmt.Errorf("%w: cannot sign with curve '%s'", ErrUnsupportedAlgorithm, privateKey.Crv)
	}
}

// Verify verifies the signature over payload with the public JWK. A signature that does not
// verify returns false without an error; unusable keys return an error.
func Verify(publicKey *jwk.JWK, payload, signature []byte) (bool, error) {
	key, err := publicKey.PublicKey()
	if err != nil {
		return false, err
	}

	switch k := key.(type) {
	case ed25519.PublicKey:
		return ed25519.Verify(k, payload, signature), nil
	case *ecdsa.PublicKey:
		return verifyECDSA(k, payload, signature)
	default:
		return false, fmt.Errorf("%w: cannot verify with curve '%s'", ErrUnsupportedAlgorithm, publicKey.Crv)
	}
}
