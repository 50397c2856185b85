/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jws

import (
	gocrypto "crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/did-core-go/pkg/crypto"
	"github.com/trustbloc/did-core-go/pkg/jwk"
)

func TestVerifySignature(t *testing.T) {
	payload := []byte("test")

	for _, alg := range []crypto.Algorithm{crypto.Ed25519, crypto.SECP256K1, crypto.SECP256R1} {
		alg := alg

		t.Run("success "+string(alg), func(t *testing.T) {
			privateKey, err := crypto.GeneratePrivateKey(alg)
			require.NoError(t, err)

			signature, err := crypto.Sign(privateKey, payload)
			require.NoError(t, err)

			require.NoError(t, VerifySignature(privateKey.PublicJWK(), signature, payload))

			err = VerifySignature(privateKey.PublicJWK(), signature, []byte("different"))
			require.True(t, errors.Is(err, ErrSignatureMismatch))
		})
	}

	t.Run("success P-256 signed with standard library", func(t *testing.T) {
		privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		require.NoError(t, err)

		publicKey, err := jwk.FromPublicKey(&privateKey.PublicKey)
		require.NoError(t, err)

		signature := getECSignature(privateKey, payload, gocrypto.SHA256)
		require.NoError(t, VerifySignature(publicKey, signature, payload))
	})

	t.Run("unsupported key type", func(t *testing.T) {
		privateKey, err := crypto.GeneratePrivateKey(crypto.SECP256R1)
		require.NoError(t, err)

		publicKey := privateKey.PublicJWK()
		publicKey.Kty = "invalid"

		err = VerifySignature(publicKey, []byte("signature"), payload)
		require.True(t, errors.Is(err, ErrUnsupportedKeyType))
		require.Contains(t, err.Error(), "'invalid' key type is not supported")

		err = VerifySignature(nil, []byte("signature"), payload)
		require.True(t, errors.Is(err, ErrUnsupportedKeyType))
	})

	t.Run("X25519 cannot verify", func(t *testing.T) {
		privateKey, err := crypto.GeneratePrivateKey(crypto.X25519)
		require.NoError(t, err)

		err = VerifySignature(privateKey.PublicJWK(), []byte("signature"), payload)
		require.True(t, errors.Is(err, ErrUnsupportedKeyType))
	})

	t.Run("invalid signature size", func(t *testing.T) {
		privateKey, err := crypto.GeneratePrivateKey(crypto.SECP256R1)
		require.NoError(t, err)

		err = VerifySignature(privateKey.PublicJWK(), []byte("signature"), payload)
		require.True(t, errors.Is(err, ErrSignatureMismatch))
	})
}

func getECSignature(privKey *ecdsa.PrivateKey, payload []byte, hash gocrypto.Hash) []byte {
	hasher := hash.New()

	_, err := hasher.Write(payload)
	if err != nil {
		panic(err)
	}

	hashed := hasher.Sum(nil)

	r, s, err := ecdsa.Sign(rand.Reader, privKey, hashed)
	if err != nil {
		panic(err)
	}

	curveBits := privKey.Curve.Params().BitSize

	keyBytes := curveBits / 8
	if curveBits%8 > 0 {
		keyBytes++
	}

	copyPadded := func(source []byte, size int) []byte {
		dest := make([]byte, size)
		copy(dest[size-len(source):], source)

		return dest
	}

	return append(copyPadded(r.Bytes(), keyBytes), copyPadded(s.Bytes(), keyBytes)...)
}
