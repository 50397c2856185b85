/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jws

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/did-core-go/pkg/bearerdid"
	"github.com/trustbloc/did-core-go/pkg/crypto"
	"github.com/trustbloc/did-core-go/pkg/document"
	"github.com/trustbloc/did-core-go/pkg/encoder"
	"github.com/trustbloc/did-core-go/pkg/kms"
)

const testDID = "did:example:alice"

type staticResolver map[string]*document.Document

func (r staticResolver) Resolve(_ context.Context, uri string) *document.ResolutionResult {
	doc, ok := r[uri]
	if !ok {
		return document.NewResolutionError(document.NotFound, uri)
	}

	return document.NewResolutionResult(doc, nil)
}

func newTestBearerDID(t *testing.T, algs ...crypto.Algorithm) *bearerdid.BearerDID {
	t.Helper()

	km := kms.NewLocalKeyManager()
	doc := document.New(testDID)

	for i, alg := range algs {
		alias, err := km.GeneratePrivateKey(alg)
		require.NoError(t, err)

		pub, err := km.GetPublicKey(alias)
		require.NoError(t, err)

		purposes := []document.Purpose{document.Authentication}
		if i == 0 {
			purposes = append(purposes, document.AssertionMethod)
		}

		// relative ids exercise the #fragment form of kid matching
		doc.AddVerificationMethod(document.VerificationMethod{
			ID:           "#" + alias,
			Type:         document.JSONWebKey2020,
			Controller:   testDID,
			PublicKeyJwk: pub,
		}, purposes...)
	}

	bd, err := bearerdid.New(testDID, doc, km)
	require.NoError(t, err)

	return bd
}

func TestSignAndVerify(t *testing.T) {
	ctx := context.Background()
	payload := []byte("hello")

	for _, alg := range []crypto.Algorithm{crypto.Ed25519, crypto.SECP256K1, crypto.SECP256R1} {
		alg := alg

		t.Run(string(alg), func(t *testing.T) {
			bd := newTestBearerDID(t, alg)
			resolver := staticResolver{testDID: bd.Document}

			compact, err := Sign(bd, payload)
			require.NoError(t, err)

			decoded, err := Verify(ctx, resolver, compact)
			require.NoError(t, err)
			require.Equal(t, payload, decoded.Payload)
			require.Equal(t, testDID, decoded.SignerDID)

			typ, _ := decoded.Header.Type()
			require.Equal(t, TypeJWT, typ)

			kid, _ := decoded.Header.KeyID()
			require.Equal(t, testDID+bd.Document.VerificationMethod[0].ID, kid)
		})
	}
}

func TestSign(t *testing.T) {
	bd := newTestBearerDID(t, crypto.Ed25519, crypto.SECP256K1)

	t.Run("custom headers cannot override alg and kid", func(t *testing.T) {
		compact, err := Sign(bd, []byte("hello"), WithType("custom"),
			WithHeaders(Headers{HeaderAlgorithm: "none", HeaderKeyID: "other", "cty": "text"}))
		require.NoError(t, err)

		decoded, err := Decode(compact)
		require.NoError(t, err)

		alg, _ := decoded.Header.Algorithm()
		require.Equal(t, "EdDSA", alg)

		typ, _ := decoded.Header.Type()
		require.Equal(t, "custom", typ)
		require.Equal(t, "text", decoded.Header["cty"])
		require.Equal(t, testDID, decoded.SignerDID)
	})
	t.Run("selector", func(t *testing.T) {
		vm := bd.Document.VerificationMethod[1]

		compact, err := Sign(bd, []byte("hello"), WithSelector(document.ByID(vm.ID)))
		require.NoError(t, err)

		decoded, err := Decode(compact)
		require.NoError(t, err)

		alg, _ := decoded.Header.Algorithm()
		require.Equal(t, "ES256K", alg)
	})
	t.Run("selector matches nothing", func(t *testing.T) {
		_, err := Sign(bd, []byte("hello"), WithSelector(document.ByPurpose(document.KeyAgreement)))
		require.ErrorIs(t, err, document.ErrVerificationMethodNotFound)
	})
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	payload := []byte("hello")

	bd := newTestBearerDID(t, crypto.Ed25519, crypto.SECP256K1)
	resolver := staticResolver{testDID: bd.Document}

	compact, err := Sign(bd, payload)
	require.NoError(t, err)

	parts := strings.Split(compact, ".")

	t.Run("detached payload", func(t *testing.T) {
		detached, err := Sign(bd, payload, WithDetached(true))
		require.NoError(t, err)
		require.Empty(t, strings.Split(detached, ".")[1])

		decoded, err := Verify(ctx, resolver, detached, WithJWSDetachedPayload(payload))
		require.NoError(t, err)
		require.Equal(t, payload, decoded.Payload)

		_, err = Verify(ctx, resolver, detached)
		require.ErrorIs(t, err, ErrSignatureMismatch)

		_, err = Verify(ctx, resolver, compact, WithJWSDetachedPayload(payload))
		require.ErrorIs(t, err, ErrMalformed)

		_, err = Verify(ctx, resolver, detached, WithJWSDetachedPayload([]byte("other")))
		require.ErrorIs(t, err, ErrSignatureMismatch)
	})
	t.Run("empty payload", func(t *testing.T) {
		attached, err := Sign(bd, []byte{})
		require.NoError(t, err)

		decoded, err := Verify(ctx, resolver, attached)
		require.NoError(t, err)
		require.Empty(t, decoded.Payload)

		detached, err := Sign(bd, []byte{}, WithDetached(true))
		require.NoError(t, err)

		decoded, err = Verify(ctx, resolver, detached, WithJWSDetachedPayload([]byte{}))
		require.NoError(t, err)
		require.Empty(t, decoded.Payload)

		_, err = Verify(ctx, resolver, detached, WithJWSDetachedPayload(payload))
		require.ErrorIs(t, err, ErrSignatureMismatch)
	})
	t.Run("tampered payload", func(t *testing.T) {
		tampered := parts[0] + "." + encoder.EncodeToString([]byte("hellO")) + "." + parts[2]

		_, err := Verify(ctx, resolver, tampered)
		require.ErrorIs(t, err, ErrSignatureMismatch)
	})
	t.Run("tampered signature", func(t *testing.T) {
		sig, err := encoder.DecodeString(parts[2])
		require.NoError(t, err)

		sig[0] ^= 0x01

		_, err = Verify(ctx, resolver, parts[0]+"."+parts[1]+"."+encoder.EncodeToString(sig))
		require.ErrorIs(t, err, ErrSignatureMismatch)
	})
	t.Run("wrong number of parts", func(t *testing.T) {
		_, err := Verify(ctx, resolver, parts[0]+"."+parts[1])
		require.ErrorIs(t, err, ErrMalformed)
	})
	t.Run("malformed header", func(t *testing.T) {
		_, err := Verify(ctx, resolver, "!!."+parts[1]+"."+parts[2])
		require.ErrorIs(t, err, ErrMalformed)
		require.Contains(t, err.Error(), "header")
	})
	t.Run("malformed payload", func(t *testing.T) {
		_, err := Verify(ctx, resolver, parts[0]+".!!."+parts[2])
		require.ErrorIs(t, err, ErrMalformed)
		require.Contains(t, err.Error(), "payload")
	})
	t.Run("missing kid", func(t *testing.T) {
		header := encoder.EncodeToString([]byte(`{"alg":"EdDSA"}`))

		_, err := Verify(ctx, resolver, header+"."+parts[1]+"."+parts[2])
		require.ErrorIs(t, err, ErrMissingHeaderField)
	})
	t.Run("missing alg", func(t *testing.T) {
		header := encoder.EncodeToString([]byte(`{"kid":"did:example:alice#0"}`))

		_, err := Verify(ctx, resolver, header+"."+parts[1]+"."+parts[2])
		require.ErrorIs(t, err, ErrMissingHeaderField)
	})
	t.Run("unresolvable kid", func(t *testing.T) {
		_, err := Verify(ctx, staticResolver{}, compact)
		require.ErrorIs(t, err, ErrUnresolvableKid)

		header := encoder.EncodeToString([]byte(`{"alg":"EdDSA","kid":"not-a-did"}`))

		_, err = Verify(ctx, resolver, header+"."+parts[1]+"."+parts[2])
		require.ErrorIs(t, err, ErrUnresolvableKid)
	})
	t.Run("kid is not an assertion method", func(t *testing.T) {
		signed, err := Sign(bd, payload, WithSelector(document.ByID(bd.Document.VerificationMethod[1].ID)))
		require.NoError(t, err)

		_, err = Verify(ctx, resolver, signed)
		require.ErrorIs(t, err, ErrVerificationMethodNotFound)
	})
	t.Run("kid matches no verification method", func(t *testing.T) {
		header := encoder.EncodeToString([]byte(`{"alg":"EdDSA","kid":"did:example:alice#unknown"}`))

		_, err := Verify(ctx, resolver, header+"."+parts[1]+"."+parts[2])
		require.ErrorIs(t, err, ErrVerificationMethodNotFound)
	})
	t.Run("no assertion methods accepts any verification method", func(t *testing.T) {
		doc := bd.Document.Copy()
		doc.AssertionMethod = nil

		signed, err := Sign(bd, payload, WithSelector(document.ByID(bd.Document.VerificationMethod[1].ID)))
		require.NoError(t, err)

		_, err = Verify(ctx, staticResolver{testDID: doc}, signed)
		require.NoError(t, err)
	})
	t.Run("unsupported verification method type", func(t *testing.T) {
		doc := bd.Document.Copy()
		doc.VerificationMethod[0].Type = "Ed25519VerificationKey2018"

		_, err := Verify(ctx, staticResolver{testDID: doc}, compact)
		require.ErrorIs(t, err, ErrUnsupportedKeyType)
	})
	t.Run("alg does not match key", func(t *testing.T) {
		kid := testDID + bd.Document.VerificationMethod[0].ID
		header := encoder.EncodeToString([]byte(`{"alg":"ES256K","kid":"` + kid + `"}`))

		_, err := Verify(ctx, resolver, header+"."+parts[1]+"."+parts[2])
		require.ErrorIs(t, err, ErrUnsupportedKeyType)
	})
}
