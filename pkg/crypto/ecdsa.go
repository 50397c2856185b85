/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package crypto

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec"
)

const bitsInByte = 8

func signEd25519(privateKey ed25519.PrivateKey, msg []byte) ([]byte, error) {
	if l := len(privateKey); l != ed25519.PrivateKeySize {
		return nil, errors.New("invalid private key size")
	}

	return ed25519.Sign(privateKey, msg), nil
}

// signECDSA returns R||S, each left-padded to the curve size. secp256k1 signatures are
// deterministic (RFC 6979) with low S.
func signECDSA(privateKey *ecdsa.PrivateKey, msg []byte) ([]byte, error) {
	hashed, err := hash(privateKey.Curve, msg)
	if err != nil {
		return nil, err
	}

	var r, s *big.Int

	if privateKey.Curve == btcec.S256() {
		sig, err := (*btcec.PrivateKey)(privateKey).Sign(hashed)
		if err != nil {
			return nil, fmt.Errorf("secp256k1 sign: %w", err)
		}

		r, s = sig.R, sig.S
	} else {
		r, s, err = ecdsa.Sign(rand.Reader, privateKey, hashed)
		if err != nil {
			return nil, fmt.Errorf("ecdsa sign: %w", err)
		}
	}

	keyBytes := curveSize(privateKey.Curve)

	return append(copyPadded(r.Bytes(), keyBytes), copyPadded(s.Bytes(), keyBytes)...), nil
}

func verifyECDSA(publicKey *ecdsa.PublicKey, msg, signature []byte) (bool, error) {
	keyBytes := curveSize(publicKey.Curve)

	if len(signature) != 2*keyBytes {
		return false, nil
	}

	hashed, err := hash(publicKey.Curve, msg)
	if err != nil {
		return false, err
	}

	r := big.NewInt(0).SetBytes(signature[:keyBytes])
	s := big.NewInt(0).SetBytes(signature[keyBytes:])

	return ecdsa.Verify(publicKey, hashed, r, s), nil
}

func hash(curve elliptic.Curve, msg []byte) ([]byte, error) {
	hasher := getHasher(curve).New()

	if _, err := hasher.Write(msg); err != nil {
		return nil, err
	}

	return hasher.Sum(nil), nil
}

func curveSize(curve elliptic.Curve) int {
	curveBits := curve.Params().BitSize

	keyBytes := curveBits / bitsInByte
	if curveBits%bitsInByte > 0 {
		keyBytes++
	}

	return keyBytes
}

func copyPadded(source []byte, size int) []byte {
	dest := make([]byte, size)
	copy(dest[size-len(source):], source)

	return dest
}

func getHasher(curve elliptic.Curve) crypto.Hash {
	switch curve {
	case elliptic.P384():
		return crypto.SHA384
	case elliptic.P521():
		return crypto.SHA512
	default:
		return crypto.SHA256
	}
}
