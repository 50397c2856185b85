/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package diddochandler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/trustbloc/did-core-go/pkg/document"
	"github.com/trustbloc/did-core-go/pkg/internal/log"
	"github.com/trustbloc/did-core-go/pkg/restapi/common"
)

// DefaultBasePath is the base path of the resolution endpoint.
const DefaultBasePath = "/1.0/identifiers"

var logger = log.New("did-core-restapi-diddochandler")

// Resolver resolves DIDs. vdr.Registry is the usual implementation.
type Resolver interface {
	Resolve(ctx context.Context, uri string) *document.ResolutionResult
}

// ResolveHandler serves GET <basePath>/{id}.
type ResolveHandler struct {
	path     string
	resolver Resolver
}

// NewResolveHandler returns a new DID resolve handler.
func NewResolveHandler(basePath string, resolver Resolver) *ResolveHandler {
	return &ResolveHandler{path: basePath + "/{id}", resolver: resolver}
}

// Path returns the route of the handler.
func (h *ResolveHandler) Path() string {
	return h.path
}

// Method returns the HTTP method of the handler.
func (h *ResolveHandler) Method() string {
	return http.MethodGet
}

// Handler returns the handler function.
func (h *ResolveHandler) Handler() http.HandlerFunc {
	return h.resolve
}

// resolve writes the resolution result. Failed resolutions are written as results as well, with the
// status code derived from their error code.
func (h *ResolveHandler) resolve(rw http.ResponseWriter, req *http.Request) {
	id := getID(req)
	if id == "" {
		common.WriteError(rw, http.StatusBadRequest, errors.New("missing DID"))

		return
	}

	logger.Debug("Resolving DID", log.WithDID(id))

	result := h.resolver.Resolve(req.Context(), id)
	if result == nil || result.ResolutionMetadata == nil {
		common.WriteError(rw, http.StatusInternalServerError, errors.New("no resolution result"))

		return
	}

	status := statusFor(result)

	if status >= http.StatusInternalServerError {
		logger.Warn("Failed to resolve DID", log.WithDID(id), log.WithStatusCode(status),
			log.WithErrorCode(string(result.ResolutionMetadata.Error)))
	} else {
		logger.Debug("Resolved DID", log.WithDID(id), log.WithStatusCode(status))
	}

	common.WriteResponse(rw, status, result)
}

func statusFor(result *document.ResolutionResult) int {
	switch result.ResolutionMetadata.Error {
	case "":
		if result.DocumentMetadata != nil && result.DocumentMetadata.Deactivated {
			return http.StatusGone
		}

		return http.StatusOK
	case document.InvalidDID, document.InvalidPublicKey:
		return http.StatusBadRequest
	case document.NotFound:
		return http.StatusNotFound
	case document.RepresentationNotSupported:
		return http.StatusNotAcceptable
	case document.MethodNotSupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

var getID = func(req *http.Request) string {
	return mux.Vars(req)["id"]
}
