/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package diddochandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/did-core-go/pkg/document"
	"github.com/trustbloc/did-core-go/pkg/mocks"
	"github.com/trustbloc/did-core-go/pkg/restapi/common"
	"github.com/trustbloc/did-core-go/pkg/vdr"
)

const testDID = "did:mock:123"

func TestResolveHandler(t *testing.T) {
	deactivated := document.NewResolutionResult(document.New(testDID), &document.DocumentMetadata{Deactivated: true})

	for _, tc := range []struct {
		name   string
		result *document.ResolutionResult
		status int
	}{
		{"resolved", document.NewResolutionResult(document.New(testDID), &document.DocumentMetadata{}), http.StatusOK},
		{"deactivated", deactivated, http.StatusGone},
		{"invalid DID", document.NewResolutionError(document.InvalidDID, "bad"), http.StatusBadRequest},
		{"invalid public key", document.NewResolutionError(document.InvalidPublicKey, "bad"), http.StatusBadRequest},
		{"not found", document.NewResolutionError(document.NotFound, testDID), http.StatusNotFound},
		{"representation", document.NewResolutionError(document.RepresentationNotSupported, ""),
			http.StatusNotAcceptable},
		{"method", document.NewResolutionError(document.MethodNotSupported, "mock"), http.StatusNotImplemented},
		{"internal", document.NewResolutionError(document.InternalError, "down"), http.StatusInternalServerError},
		{"invalid document", document.NewResolutionError(document.InvalidDIDDocument, "bad"),
			http.StatusInternalServerError},
	} {
		t.Run(tc.name, func(t *testing.T) {
			m := mocks.NewMockMethod("mock").WithResult(testDID, tc.result)
			router := common.NewRouter(NewResolveHandler(DefaultBasePath, vdr.New(vdr.WithMethod(m))))

			rw := httptest.NewRecorder()
			router.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, DefaultBasePath+"/"+testDID, nil))
			require.Equal(t, tc.status, rw.Code)
			require.Equal(t, common.ContentTypeResolutionResult, rw.Header().Get("Content-Type"))

			var result document.ResolutionResult
			require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &result))
			require.Equal(t, tc.result.ResolutionMetadata.Error, result.ResolutionMetadata.Error)
		})
	}

	t.Run("unregistered method", func(t *testing.T) {
		router := common.NewRouter(NewResolveHandler(DefaultBasePath, vdr.New()))

		rw := httptest.NewRecorder()
		router.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, DefaultBasePath+"/"+testDID, nil))
		require.Equal(t, http.StatusNotImplemented, rw.Code)
	})

	t.Run("missing DID", func(t *testing.T) {
		h := NewResolveHandler(DefaultBasePath, vdr.New())

		rw := httptest.NewRecorder()
		h.Handler()(rw, httptest.NewRequest(http.MethodGet, DefaultBasePath+"/", nil))
		require.Equal(t, http.StatusBadRequest, rw.Code)
	})

	t.Run("no result", func(t *testing.T) {
		router := common.NewRouter(NewResolveHandler(DefaultBasePath, nilResolver{}))

		rw := httptest.NewRecorder()
		router.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, DefaultBasePath+"/"+testDID, nil))
		require.Equal(t, http.StatusInternalServerError, rw.Code)
		require.Contains(t, rw.Body.String(), "no resolution result")
	})

	t.Run("path and method", func(t *testing.T) {
		h := NewResolveHandler("/resolve", vdr.New())
		require.Equal(t, "/resolve/{id}", h.Path())
		require.Equal(t, http.MethodGet, h.Method())
	})
}

type nilResolver struct{}

func (nilResolver) Resolve(context.Context, string) *document.ResolutionResult {
	return nil
}
