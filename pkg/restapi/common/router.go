/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package common holds the router and response helpers shared by REST handlers.
package common

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/trustbloc/did-core-go/pkg/internal/log"
)

var logger = log.New("did-core-restapi")

// HTTPHandler is an endpoint served by the router.
type HTTPHandler interface {
	Path() string
	Method() string
	Handler() http.HandlerFunc
}

// NewRouter returns a router serving handlers. Path variables use the gorilla/mux syntax.
func NewRouter(handlers ...HTTPHandler) *mux.Router {
	router := mux.NewRouter()

	for _, h := range handlers {
		logger.Debug("Registering handler", log.WithPath(h.Path()), log.WithHTTPMethod(h.Method()))

		router.HandleFunc(h.Path(), h.Handler()).Methods(h.Method())
	}

	return router
}
