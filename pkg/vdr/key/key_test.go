/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package key

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/did-core-go/pkg/crypto"
	"github.com/trustbloc/did-core-go/pkg/document"
	"github.com/trustbloc/did-core-go/pkg/encoder"
	"github.com/trustbloc/did-core-go/pkg/kms"
)

func TestCreate(t *testing.T) {
	prefixes := map[crypto.Algorithm]string{
		crypto.Ed25519:   "did:key:z6Mk",
		crypto.SECP256K1: "did:key:zQ3s",
		crypto.SECP256R1: "did:key:zDn",
		crypto.X25519:    "did:key:z6LS",
	}

	for alg, prefix := range prefixes {
		alg, prefix := alg, prefix

		t.Run(string(alg), func(t *testing.T) {
			km := kms.NewLocalKeyManager()

			bd, err := Create(km, WithAlgorithm(alg))
			require.NoError(t, err)
			require.True(t, strings.HasPrefix(bd.URI, prefix), bd.URI)

			doc := bd.Document
			require.Equal(t, bd.URI, doc.ID)
			require.Len(t, doc.VerificationMethod, 1)

			vm := doc.VerificationMethod[0]
			require.Equal(t, bd.URI+"#"+strings.TrimPrefix(bd.URI, "did:key:"), vm.ID)
			require.Equal(t, document.JSONWebKey2020, vm.Type)
			require.Equal(t, []string{vm.ID}, doc.Authentication)
			require.Equal(t, []string{vm.ID}, doc.AssertionMethod)
			require.Equal(t, []string{vm.ID}, doc.CapabilityInvocation)
			require.Equal(t, []string{vm.ID}, doc.CapabilityDelegation)

			if alg == crypto.Ed25519 {
				require.Empty(t, doc.KeyAgreement)
			} else {
				require.Equal(t, []string{vm.ID}, doc.KeyAgreement)
			}

			alias, err := km.GetDeterministicAlias(vm.PublicKeyJwk)
			require.NoError(t, err)

			_, err = km.GetPublicKey(alias)
			require.NoError(t, err)

			resolved, err := Expand(bd.URI)
			require.NoError(t, err)
			require.Equal(t, doc, resolved)
		})
	}

	t.Run("default key manager and algorithm", func(t *testing.T) {
		bd, err := Create(nil)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(bd.URI, "did:key:z6Mk"))

		sign, _, err := bd.GetSigner(nil)
		require.NoError(t, err)

		_, err = sign([]byte("hello"))
		require.NoError(t, err)
	})
	t.Run("unsupported algorithm", func(t *testing.T) {
		_, err := Create(nil, WithAlgorithm("RSA"))
		require.Error(t, err)
	})
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	r := New()

	require.True(t, r.Accept("key"))
	require.False(t, r.Accept("ion"))

	bd, err := Create(nil)
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		result := r.Resolve(ctx, bd.URI)
		require.False(t, result.Failed())
		require.Equal(t, bd.Document, result.Document)
		require.Equal(t, document.ContentTypeDIDLDJSON, result.ResolutionMetadata.ContentType)
	})
	t.Run("deterministic", func(t *testing.T) {
		require.Equal(t, r.Resolve(ctx, bd.URI).Document, r.Resolve(ctx, bd.URI).Document)
	})
	t.Run("wrong method", func(t *testing.T) {
		result := r.Resolve(ctx, "did:web:"+strings.TrimPrefix(bd.URI, "did:key:"))
		require.Equal(t, document.InvalidDID, result.ResolutionMetadata.Error)
		require.Nil(t, result.Document)
	})
	t.Run("not a DID", func(t *testing.T) {
		result := r.Resolve(ctx, "key:z6Mk")
		require.Equal(t, document.InvalidDID, result.ResolutionMetadata.Error)
	})
	t.Run("not base58btc multibase", func(t *testing.T) {
		result := r.Resolve(ctx, "did:key:m6Mk")
		require.Equal(t, document.InvalidDID, result.ResolutionMetadata.Error)

		_, err := Expand("did:key:z0OIl")
		require.ErrorIs(t, err, ErrInvalidMultibase)
	})
	t.Run("unknown multicodec", func(t *testing.T) {
		id, err := encoder.MultibaseEncode(append(encoder.VarintEncode(0x99), bytes.Repeat([]byte{1}, 32)...))
		require.NoError(t, err)

		result := r.Resolve(ctx, "did:key:"+id)
		require.Equal(t, document.InvalidPublicKey, result.ResolutionMetadata.Error)
	})
	t.Run("key size does not match multicodec", func(t *testing.T) {
		id, err := encoder.MultibaseEncode(append(encoder.VarintEncode(Ed25519PubCode), bytes.Repeat([]byte{1}, 31)...))
		require.NoError(t, err)

		_, err = Expand("did:key:" + id)
		require.ErrorIs(t, err, ErrUnsupportedMulticodec)
	})
}
