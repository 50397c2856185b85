/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jwk

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/btcsuite/btcd/btcec"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/curve25519"
)

func TestEd25519(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	privJWK, err := FromPrivateKey(priv)
	require.NoError(t, err)
	require.Equal(t, KeyTypeOKP, privJWK.Kty)
	require.Equal(t, CurveEd25519, privJWK.Crv)
	require.NotEmpty(t, privJWK.D)

	key, err := privJWK.PrivateKey()
	require.NoError(t, err)
	require.Equal(t, priv, key)

	pubKey, err := privJWK.PublicKey()
	require.NoError(t, err)
	require.Equal(t, pub, pubKey)

	raw, err := privJWK.RawPublicKey()
	require.NoError(t, err)
	require.Equal(t, []byte(pub), raw)

	fromRaw, err := FromRawPublicKey(CurveEd25519, raw)
	require.NoError(t, err)
	require.Equal(t, privJWK.PublicJWK(), fromRaw)

	_, err = FromRawPublicKey(CurveEd25519, raw[1:])
	require.True(t, errors.Is(err, ErrInvalidKey))
}

func TestPrivateKeyMismatch(t *testing.T) {
	for _, tc := range []struct {
		name     string
		generate func() (*JWK, error)
	}{
		{"Ed25519", func() (*JWK, error) {
			_, priv, err := ed25519.GenerateKey(rand.Reader)
			if err != nil {
				return nil, err
			}

			return FromPrivateKey(priv)
		}},
		{"P-256", func() (*JWK, error) {
			priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
			if err != nil {
				return nil, err
			}

			return FromPrivateKey(priv)
		}},
		{"X25519", func() (*JWK, error) {
			d := make([]byte, curve25519.ScalarSize)
			if _, err := rand.Read(d); err != nil {
				return nil, err
			}

			return FromPrivateKey(X25519PrivateKey(d))
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			key, err := tc.generate()
			require.NoError(t, err)

			other, err := tc.generate()
			require.NoError(t, err)

			_, err = key.PrivateKey()
			require.NoError(t, err)

			mismatched := *key
			mismatched.D = other.D

			_, err = mismatched.PrivateKey()
			require.ErrorIs(t, err, ErrInvalidKey)
			require.Contains(t, err.Error(), "does not match public key")
		})
	}
}

func TestSecp256k1(t *testing.T) {
	priv, err := btcec.NewPrivateKey(btcec.S256())
	require.NoError(t, err)

	privJWK, err := FromPrivateKey(priv.ToECDSA())
	require.NoError(t, err)
	require.Equal(t, KeyTypeEC, privJWK.Kty)
	require.Equal(t, CurveSecp256k1, privJWK.Crv)

	key, err := privJWK.PrivateKey()
	require.NoError(t, err)
	require.Equal(t, priv.D, key.(*ecdsa.PrivateKey).D)

	pubKey, err := privJWK.PublicKey()
	require.NoError(t, err)
	require.Equal(t, priv.X, pubKey.(*ecdsa.PublicKey).X)

	raw, err := privJWK.RawPublicKey()
	require.NoError(t, err)
	require.Len(t, raw, 33)
	require.Equal(t, priv.PubKey().SerializeCompressed(), raw)

	fromRaw, err := FromRawPublicKey(CurveSecp256k1, raw)
	require.NoError(t, err)
	require.Equal(t, privJWK.PublicJWK(), fromRaw)

	t.Run("error - d does not match public key", func(t *testing.T) {
		other, err := btcec.NewPrivateKey(btcec.S256())
		require.NoError(t, err)

		otherJWK, err := FromPrivateKey(other.ToECDSA())
		require.NoError(t, err)

		mismatched := *privJWK
		mismatched.D = otherJWK.D

		_, err = mismatched.PrivateKey()
		require.Error(t, err)
		require.Contains(t, err.Error(), "does not match public key")
	})

	t.Run("error - point not on curve", func(t *testing.T) {
		bad := *privJWK
		bad.Y = bad.X

		_, err := bad.PublicKey()
		require.True(t, errors.Is(err, ErrInvalidKey))
	})
}

func TestP256(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	privJWK, err := FromPrivateKey(priv)
	require.NoError(t, err)
	require.Equal(t, CurveP256, privJWK.Crv)

	key, err := privJWK.PrivateKey()
	require.NoError(t, err)
	require.Equal(t, priv.D, key.(*ecdsa.PrivateKey).D)

	raw, err := privJWK.RawPublicKey()
	require.NoError(t, err)
	require.Len(t, raw, 33)

	fromRaw, err := FromRawPublicKey(CurveP256, raw)
	require.NoError(t, err)
	require.Equal(t, privJWK.PublicJWK(), fromRaw)

	uncompressed := elliptic.Marshal(elliptic.P256(), priv.X, priv.Y) //nolint:staticcheck
	fromUncompressed, err := FromRawPublicKey(CurveP256, uncompressed)
	require.NoError(t, err)
	require.Equal(t, fromRaw, fromUncompressed)

	_, err = FromRawPublicKey(CurveP256, []byte{0x02, 0x01})
	require.True(t, errors.Is(err, ErrInvalidKey))
}

func TestX25519(t *testing.T) {
	priv := make([]byte, curve25519.ScalarSize)
	_, err := rand.Read(priv)
	require.NoError(t, err)

	privJWK, err := FromPrivateKey(X25519PrivateKey(priv))
	require.NoError(t, err)
	require.Equal(t, CurveX25519, privJWK.Crv)

	expectedPub, err := curve25519.X25519(priv, curve25519.Basepoint)
	require.NoError(t, err)

	pub, err := privJWK.PublicKey()
	require.NoError(t, err)
	require.Equal(t, X25519PublicKey(expectedPub), pub)

	key, err := privJWK.PrivateKey()
	require.NoError(t, err)
	require.Equal(t, X25519PrivateKey(priv), key)

	raw, err := privJWK.RawPublicKey()
	require.NoError(t, err)
	require.Equal(t, expectedPub, raw)

	_, err = FromPublicKey(X25519PublicKey([]byte{1, 2}))
	require.True(t, errors.Is(err, ErrInvalidKey))
}

func TestUnsupportedKeys(t *testing.T) {
	p384, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	require.NoError(t, err)

	_, err = FromPublicKey(&p384.PublicKey)
	require.True(t, errors.Is(err, ErrUnsupportedKey))

	_, err = FromPrivateKey(p384)
	require.True(t, errors.Is(err, ErrUnsupportedKey))

	_, err = FromPublicKey("not a key")
	require.True(t, errors.Is(err, ErrUnsupportedKey))

	_, err = FromRawPublicKey("P-384", []byte{1})
	require.True(t, errors.Is(err, ErrUnsupportedKey))

	_, err = (&JWK{Kty: KeyTypeOKP, Crv: CurveEd25519, X: "AQ"}).PrivateKey()
	require.Error(t, err)
	require.Contains(t, err.Error(), "JWK d is missing")
}
