/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package dht

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/trustbloc/did-core-go/pkg/crypto"
	"github.com/trustbloc/did-core-go/pkg/document"
	"github.com/trustbloc/did-core-go/pkg/jws"
	"github.com/trustbloc/did-core-go/pkg/kms"
)

// mockGateway is a relay gateway storing the last payload put for each id.
type mockGateway struct {
	mutex     sync.Mutex
	payloads  map[string][]byte
	putStatus int
	getStatus int
}

func newMockGateway(t *testing.T) (*mockGateway, *Client) {
	t.Helper()

	gw := &mockGateway{
		payloads:  make(map[string][]byte),
		putStatus: http.StatusOK,
		getStatus: http.StatusOK,
	}

	router := mux.NewRouter()
	router.HandleFunc("/{id}", gw.put).Methods(http.MethodPut)
	router.HandleFunc("/{id}", gw.get).Methods(http.MethodGet)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return gw, New(WithGateway(srv.URL+"/"), WithHTTPClient(srv.Client()))
}

func (g *mockGateway) put(rw http.ResponseWriter, req *http.Request) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		rw.WriteHeader(http.StatusInternalServerError)

		return
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	if g.putStatus != http.StatusOK {
		rw.WriteHeader(g.putStatus)

		return
	}

	g.payloads[mux.Vars(req)["id"]] = body
}

func (g *mockGateway) get(rw http.ResponseWriter, req *http.Request) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if g.getStatus != http.StatusOK {
		rw.WriteHeader(g.getStatus)

		return
	}

	payload, ok := g.payloads[mux.Vars(req)["id"]]
	if !ok {
		rw.WriteHeader(http.StatusNotFound)

		return
	}

	_, _ = rw.Write(payload)
}

func (g *mockGateway) payload(id string) ([]byte, bool) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	p, ok := g.payloads[id]

	return p, ok
}

func (g *mockGateway) setPayload(id string, payload []byte) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.payloads[id] = payload
}

func (g *mockGateway) setStatus(put, get int) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.putStatus = put
	g.getStatus = get
}

func TestCreateAndResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("identity key only", func(t *testing.T) {
		gw, c := newMockGateway(t)
		c.clock = func() time.Time { return time.Unix(1700000000, 0) }

		bd, err := c.Create(ctx, nil)
		require.NoError(t, err)
		require.Regexp(t, "^did:dht:[a-z0-9]{52}$", bd.URI)
		require.Equal(t, true, bd.Metadata[MetadataPublished])
		require.EqualValues(t, 1700000000, bd.Metadata[MetadataSequence])

		_, ok := gw.payload(bd.DID.ID)
		require.True(t, ok)

		result := c.Resolve(ctx, bd.URI)
		require.False(t, result.Failed(), result.Err())
		require.Equal(t, "1700000000", result.DocumentMetadata.VersionID)

		doc := result.Document
		require.Equal(t, bd.URI, doc.ID)
		require.Len(t, doc.VerificationMethod, 1)
		require.Equal(t, bd.URI+"#0", doc.VerificationMethod[0].ID)
		require.Equal(t, []string{bd.URI + "#0"}, doc.Authentication)
		require.Equal(t, []string{bd.URI + "#0"}, doc.AssertionMethod)
		require.Equal(t, []string{bd.URI + "#0"}, doc.CapabilityInvocation)
		require.Equal(t, []string{bd.URI + "#0"}, doc.CapabilityDelegation)
		require.Empty(t, doc.KeyAgreement)
	})

	t.Run("extra keys and services", func(t *testing.T) {
		_, c := newMockGateway(t)
		km := kms.NewLocalKeyManager()

		bd, err := c.Create(ctx, km,
			WithVerificationKey(VerificationKey{
				ID: "enc", Algorithm: crypto.X25519, Purposes: []document.Purpose{document.KeyAgreement},
			}),
			WithVerificationKey(VerificationKey{
				Algorithm: crypto.SECP256K1, Purposes: []document.Purpose{document.AssertionMethod},
			}),
			WithService(document.Service{
				ID: "dwn", Type: "DecentralizedWebNode", ServiceEndpoint: []string{"https://dwn.example.com"},
			}),
		)
		require.NoError(t, err)
		require.Len(t, bd.Document.VerificationMethod, 3)

		secp256k1Alias, err := km.GetDeterministicAlias(bd.Document.VerificationMethod[2].PublicKeyJwk)
		require.NoError(t, err)
		require.Equal(t, bd.URI+"#"+secp256k1Alias, bd.Document.VerificationMethod[2].ID)

		result := c.Resolve(ctx, bd.URI)
		require.False(t, result.Failed(), result.Err())

		doc := result.Document
		require.Len(t, doc.VerificationMethod, 3)
		require.Equal(t, []string{bd.URI + "#enc"}, doc.KeyAgreement)
		require.Equal(t, []string{bd.URI + "#0", bd.URI + "#" + secp256k1Alias}, doc.AssertionMethod)
		require.Equal(t, []document.Service{{
			ID: bd.URI + "#dwn", Type: "DecentralizedWebNode", ServiceEndpoint: []string{"https://dwn.example.com"},
		}}, doc.Service)
	})

	t.Run("unpublished", func(t *testing.T) {
		gw, c := newMockGateway(t)

		bd, err := c.Create(ctx, nil, WithPublish(false))
		require.NoError(t, err)
		require.Equal(t, false, bd.Metadata[MetadataPublished])
		require.NotContains(t, bd.Metadata, MetadataSequence)

		_, ok := gw.payload(bd.DID.ID)
		require.False(t, ok)

		result := c.Resolve(ctx, bd.URI)
		require.ErrorIs(t, result.Err(), document.ErrNotFound)
	})

	t.Run("gateway rejects the message", func(t *testing.T) {
		gw, c := newMockGateway(t)
		gw.setStatus(http.StatusBadRequest, http.StatusOK)

		_, err := c.Create(ctx, nil)
		require.Error(t, err)
		require.Contains(t, err.Error(), "gateway returned status 400")
	})

	t.Run("gateway unreachable", func(t *testing.T) {
		c := New(WithGateway("http://127.0.0.1:0"))

		_, err := c.Create(ctx, nil)
		require.Error(t, err)
	})
}

func TestPublish(t *testing.T) {
	ctx := context.Background()
	gw, c := newMockGateway(t)

	bd, err := c.Create(ctx, nil, WithPublish(false))
	require.NoError(t, err)

	require.NoError(t, c.Publish(ctx, bd, 10))
	require.EqualValues(t, 10, bd.Metadata[MetadataSequence])
	require.Equal(t, true, bd.Metadata[MetadataPublished])

	t.Run("stale sequence", func(t *testing.T) {
		err := c.Publish(ctx, bd, 10)
		require.ErrorIs(t, err, ErrStaleSequence)

		err = c.Publish(ctx, bd, 9)
		require.ErrorIs(t, err, ErrStaleSequence)
		require.EqualValues(t, 10, bd.Metadata[MetadataSequence])
	})

	t.Run("sequence read back from JSON", func(t *testing.T) {
		bd.Metadata[MetadataSequence] = float64(20)

		err := c.Publish(ctx, bd, 20)
		require.ErrorIs(t, err, ErrStaleSequence)
	})

	t.Run("republish with new services", func(t *testing.T) {
		updated := bd.WithService(document.Service{
			ID: bd.URI + "#hub", Type: "LinkedDomains", ServiceEndpoint: []string{"https://example.com"},
		})

		require.NoError(t, c.Publish(ctx, updated, 21))
		require.EqualValues(t, 21, updated.Metadata[MetadataSequence])
		require.EqualValues(t, 20, bd.Metadata[MetadataSequence])

		result := c.Resolve(ctx, bd.URI)
		require.False(t, result.Failed(), result.Err())
		require.Equal(t, strconv.Itoa(21), result.DocumentMetadata.VersionID)
		require.Len(t, result.Document.Service, 1)
	})

	t.Run("bearer DID without identity key", func(t *testing.T) {
		broken := *bd
		broken.Document = document.New(bd.URI)
		broken.Metadata = nil

		err := c.Publish(ctx, &broken, 30)
		require.ErrorIs(t, err, document.ErrVerificationMethodNotFound)
		require.Nil(t, broken.Metadata)

		_, ok := gw.payload(bd.DID.ID)
		require.True(t, ok)
	})
}

func TestResolveErrors(t *testing.T) {
	ctx := context.Background()
	gw, c := newMockGateway(t)

	bd, err := c.Create(ctx, nil)
	require.NoError(t, err)

	t.Run("invalid DIDs", func(t *testing.T) {
		for _, uri := range []string{
			"not-a-did",
			"did:key:z6Mkabc",
			"did:dht:!!!",
			"did:dht:yyyy",
		} {
			result := c.Resolve(ctx, uri)
			require.ErrorIs(t, result.Err(), document.ErrInvalidDID, uri)
		}
	})

	t.Run("tampered payload", func(t *testing.T) {
		payload, ok := gw.payload(bd.DID.ID)
		require.True(t, ok)

		tampered := append([]byte{}, payload...)
		tampered[len(tampered)-1] ^= 0xff
		gw.setPayload(bd.DID.ID, tampered)

		t.Cleanup(func() { gw.setPayload(bd.DID.ID, payload) })

		result := c.Resolve(ctx, bd.URI)
		require.Equal(t, document.InvalidDIDDocument, result.ResolutionMetadata.Error)
	})

	t.Run("truncated payload", func(t *testing.T) {
		payload, ok := gw.payload(bd.DID.ID)
		require.True(t, ok)

		gw.setPayload(bd.DID.ID, payload[:10])

		t.Cleanup(func() { gw.setPayload(bd.DID.ID, payload) })

		result := c.Resolve(ctx, bd.URI)
		require.Equal(t, document.InvalidDIDDocument, result.ResolutionMetadata.Error)
	})

	t.Run("payload signed by another key", func(t *testing.T) {
		other, err := c.Create(ctx, nil)
		require.NoError(t, err)

		otherPayload, ok := gw.payload(other.DID.ID)
		require.True(t, ok)

		payload, ok := gw.payload(bd.DID.ID)
		require.True(t, ok)

		gw.setPayload(bd.DID.ID, otherPayload)

		t.Cleanup(func() { gw.setPayload(bd.DID.ID, payload) })

		result := c.Resolve(ctx, bd.URI)
		require.Equal(t, document.InvalidDIDDocument, result.ResolutionMetadata.Error)
	})

	t.Run("gateway failure", func(t *testing.T) {
		gw.setStatus(http.StatusOK, http.StatusInternalServerError)

		t.Cleanup(func() { gw.setStatus(http.StatusOK, http.StatusOK) })

		result := c.Resolve(ctx, bd.URI)
		require.ErrorIs(t, result.Err(), document.ErrInternal)
	})
}

func TestSignWithDHTDID(t *testing.T) {
	ctx := context.Background()
	_, c := newMockGateway(t)

	bd, err := c.Create(ctx, nil)
	require.NoError(t, err)

	compact, err := jws.Sign(bd, []byte("hello"))
	require.NoError(t, err)

	decoded, err := jws.Verify(ctx, c, compact)
	require.NoError(t, err)
	require.Equal(t, bd.URI, decoded.SignerDID)
	require.Equal(t, bd.URI+"#0", decoded.Header[jws.HeaderKeyID])
}

func TestAccept(t *testing.T) {
	c := New()

	require.True(t, c.Accept(MethodName))
	require.False(t, c.Accept("ion"))
}
