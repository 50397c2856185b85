/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package common

import (
	"encoding/json"
	"net/http"

	"github.com/trustbloc/did-core-go/pkg/internal/log"
)

// ContentTypeResolutionResult is the media type of DID resolution results.
const ContentTypeResolutionResult = `application/ld+json;profile="https://w3id.org/did-resolution"`

// ErrorResponse is the body written by WriteError.
type ErrorResponse struct {
	Message string `json:"message"`
}

// WriteResponse writes v as a DID resolution result with the given status.
func WriteResponse(rw http.ResponseWriter, status int, v interface{}) {
	write(rw, ContentTypeResolutionResult, status, v)
}

// WriteError writes err as a JSON ErrorResponse with the given status.
func WriteError(rw http.ResponseWriter, status int, err error) {
	write(rw, "application/json", status, &ErrorResponse{Message: err.Error()})
}

func write(rw http.ResponseWriter, contentType string, status int, v interface{}) {
	rw.Header().Set("Content-Type", contentType)
	rw.WriteHeader(status)

	if err := json.NewEncoder(rw).Encode(v); err != nil {
		logger.Error("Unable to write response", log.WithError(err), log.WithStatusCode(status))
	}
}
