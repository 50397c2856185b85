/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package commitment

import (
	"crypto/sha256"
	"errors"
	"testing"

	"github.com/multiformats/go-multihash"
	"github.com/stretchr/testify/require"

	"github.com/trustbloc/did-core-go/pkg/encoder"
	"github.com/trustbloc/did-core-go/pkg/hashing"
	"github.com/trustbloc/did-core-go/pkg/jwk"
)

func TestGetCommitment(t *testing.T) {
	key := &jwk.JWK{
		Crv: "crv",
		Kty: "kty",
		X:   "x",
		Y:   "y",
	}

	t.Run("success", func(t *testing.T) {
		commitment, err := GetCommitment(key, hashing.SHA2_256)
		require.NoError(t, err)
		require.NotEmpty(t, commitment)

		// commitment is multihash(sha256(JCS(key)))
		first := sha256.Sum256([]byte(`{"crv":"crv","kty":"kty","x":"x","y":"y"}`))
		second := sha256.Sum256(first[:])

		mh, err := multihash.Encode(second[:], multihash.SHA2_256)
		require.NoError(t, err)
		require.Equal(t, encoder.EncodeToString(mh), commitment)
	})

	t.Run("error - multihash not supported", func(t *testing.T) {
		commitment, err := GetCommitment(key, 55)
		require.Error(t, err)
		require.Empty(t, commitment)
		require.Contains(t, err.Error(), "algorithm not supported, unable to compute hash")
	})

	t.Run("error - nil key", func(t *testing.T) {
		commitment, err := GetCommitment(nil, hashing.SHA2_256)
		require.True(t, errors.Is(err, jwk.ErrInvalidKey))
		require.Empty(t, commitment)
	})

	t.Run("error - private key", func(t *testing.T) {
		private := *key
		private.D = "d"

		_, err := GetCommitment(&private, hashing.SHA2_256)
		require.Error(t, err)
		require.Contains(t, err.Error(), "must not contain private key material")
	})
}

func TestGetRevealValue(t *testing.T) {
	key := &jwk.JWK{
		Crv: "crv",
		Kty: "kty",
		X:   "x",
	}

	t.Run("success", func(t *testing.T) {
		rv, err := GetRevealValue(key, hashing.SHA2_256)
		require.NoError(t, err)

		digest := sha256.Sum256([]byte(`{"crv":"crv","kty":"kty","x":"x"}`))

		mh, err := multihash.Encode(digest[:], multihash.SHA2_256)
		require.NoError(t, err)
		require.Equal(t, encoder.EncodeToString(mh), rv)
	})

	t.Run("reveal value opens commitment", func(t *testing.T) {
		rv, err := GetRevealValue(key, hashing.SHA2_256)
		require.NoError(t, err)

		c, err := GetCommitment(key, hashing.SHA2_256)
		require.NoError(t, err)

		fromRV, err := GetCommitmentFromRevealValue(rv)
		require.NoError(t, err)
		require.Equal(t, c, fromRV)
	})

	t.Run("error - multihash not supported", func(t *testing.T) {
		_, err := GetRevealValue(key, 55)
		require.Error(t, err)
	})

	t.Run("error - invalid reveal value", func(t *testing.T) {
		_, err := GetCommitmentFromRevealValue("!!")
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to decode reveal value")

		_, err = GetCommitmentFromRevealValue(encoder.EncodeToString([]byte("abc")))
		require.Error(t, err)
		require.Contains(t, err.Error(), "multihash")
	})
}
