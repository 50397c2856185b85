/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package httpclient

import (
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultTimeout bounds every request made by the default client.
const DefaultTimeout = 10 * time.Second

// Client is the subset of *http.Client used by the DID methods.
type Client interface {
	Do(req *http.Request) (*http.Response, error)
}

// New returns an HTTP client whose transport records OpenTelemetry spans for each request.
func New() *http.Client {
	return &http.Client{
		Timeout:   DefaultTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}
