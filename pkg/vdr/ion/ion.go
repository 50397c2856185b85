/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ion

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/trustbloc/did-core-go/pkg/did"
	"github.com/trustbloc/did-core-go/pkg/document"
	"github.com/trustbloc/did-core-go/pkg/hashing"
	"github.com/trustbloc/did-core-go/pkg/internal/httpclient"
	"github.com/trustbloc/did-core-go/pkg/internal/log"
	"github.com/trustbloc/did-core-go/pkg/sidetree/didtransformer"
	"github.com/trustbloc/did-core-go/pkg/sidetree/operationapplier"
	"github.com/trustbloc/did-core-go/pkg/sidetree/operationparser"
)

const (
	// MethodName is the DID method name.
	MethodName = "ion"

	// Namespace prefixes every did:ion DID.
	Namespace = did.Scheme + ":" + MethodName

	// DefaultResolutionEndpoint is the ION node identifiers endpoint.
	DefaultResolutionEndpoint = "https://ion.tbd.engineering/identifiers"

	// DefaultOperationsEndpoint is the ION node operations endpoint.
	DefaultOperationsEndpoint = "https://ion.tbd.engineering/operations"

	// KeyType is the type of the verification keys put into ION documents.
	KeyType = "JsonWebKey2020"

	maxResponseSize = 1 << 20
)

var logger = log.New("did-core-ion")

// ErrOperationRejected is returned when the ION node does not accept an operation.
var ErrOperationRejected = errors.New("operation rejected by ION node")

// Client creates, recovers, deactivates and resolves did:ion DIDs through an ION node.
type Client struct {
	resolutionEndpoint string
	operationsEndpoint string
	httpClient         httpclient.Client
	multihashCode      uint
	longFormFallback   bool

	parser      *operationparser.Parser
	applier     *operationapplier.Applier
	transformer *didtransformer.Transformer
}

// Option is a client option.
type Option func(c *Client)

// WithResolutionEndpoint sets the endpoint DIDs are resolved against: GET <endpoint>/<did>.
func WithResolutionEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.resolutionEndpoint = strings.TrimSuffix(endpoint, "/")
	}
}

// WithOperationsEndpoint sets the endpoint operations are posted to.
func WithOperationsEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.operationsEndpoint = endpoint
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(client httpclient.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithMultihashCode sets the hash algorithm of commitments, reveal values and suffixes.
func WithMultihashCode(code uint) Option {
	return func(c *Client) {
		c.multihashCode = code
	}
}

// WithLongFormFallback enables composing long-form DIDs locally when the node does not know them.
// Enabled by default.
func WithLongFormFallback(enabled bool) Option {
	return func(c *Client) {
		c.longFormFallback = enabled
	}
}

// New returns an ION client.
func New(opts ...Option) *Client {
	c := &Client{
		resolutionEndpoint: DefaultResolutionEndpoint,
		operationsEndpoint: DefaultOperationsEndpoint,
		multihashCode:      hashing.SHA2_256,
		longFormFallback:   true,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = httpclient.New()
	}

	c.parser = operationparser.New(operationparser.WithMultihashCode(c.multihashCode))
	c.applier = operationapplier.New(c.parser)
	c.transformer = didtransformer.New(didtransformer.WithMethodContext(document.ContextV1))

	return c
}

// Accept returns true for the ion method.
func (c *Client) Accept(method string) bool {
	return method == MethodName
}

// Resolve resolves the DID through the ION node. Long-form DIDs unknown to the node are composed from
// the create operation they embed.
func (c *Client) Resolve(ctx context.Context, uri string) *document.ResolutionResult {
	parsed, err := did.Parse(uri)
	if err != nil {
		return document.NewResolutionError(document.InvalidDID, err.Error())
	}

	if parsed.Method != MethodName {
		return document.NewResolutionError(document.InvalidDID,
			"expected method '"+MethodName+"', got '"+parsed.Method+"'")
	}

	status, body, err := c.send(ctx, http.MethodGet, c.resolutionEndpoint+"/"+url.PathEscape(parsed.URI), nil)
	if err != nil {
		logger.Warn("Failed to resolve DID", log.WithDID(parsed.URI), log.WithError(err))

		return document.NewResolutionError(document.InternalError, err.Error())
	}

	switch {
	case status == http.StatusOK, status == http.StatusGone:
		return parseResolutionResult(body)
	case status == http.StatusNotFound:
		if c.longFormFallback && IsLongForm(parsed.URI) {
			return c.resolveLongForm(parsed.URI)
		}

		return document.NewResolutionError(document.NotFound, string(body))
	case status == http.StatusBadRequest:
		return document.NewResolutionError(document.InvalidDID, string(body))
	default:
		logger.Warn("Unexpected resolution response", log.WithDID(parsed.URI), log.WithStatusCode(status))

		return document.NewResolutionError(document.InternalError,
			errors.Errorf("resolution endpoint returned status %d: %s", status, body).Error())
	}
}

func parseResolutionResult(body []byte) *document.ResolutionResult {
	var result document.ResolutionResult

	if err := json.Unmarshal(body, &result); err != nil {
		return document.NewResolutionError(document.InternalError,
			errors.Wrap(err, "unmarshal resolution result").Error())
	}

	if result.Document == nil {
		return document.NewResolutionError(document.InternalError, "resolution result has no document")
	}

	if result.ResolutionMetadata == nil {
		result.ResolutionMetadata = &document.ResolutionMetadata{}
	}

	if result.ResolutionMetadata.ContentType == "" {
		result.ResolutionMetadata.ContentType = document.ContentTypeDIDLDJSON
	}

	if result.DocumentMetadata == nil {
		result.DocumentMetadata = &document.DocumentMetadata{}
	}

	if result.Context == "" {
		result.Context = document.ResolutionContext
	}

	return &result
}

// submit posts an operation request to the operations endpoint.
func (c *Client) submit(ctx context.Context, request []byte) error {
	status, body, err := c.send(ctx, http.MethodPost, c.operationsEndpoint, request)
	if err != nil {
		return errors.Wrap(err, "submit operation")
	}

	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return errors.Wrapf(ErrOperationRejected, "status %d: %s", status, body)
	}

	return nil
}

func (c *Client) send(ctx context.Context, method, endpoint string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, nil, errors.Wrap(err, "create request")
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, errors.Wrapf(err, "%s %s", method, endpoint)
	}

	defer func() {
		if e := resp.Body.Close(); e != nil {
			logger.Warn("Failed to close response body", log.WithError(e))
		}
	}()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return 0, nil, errors.Wrap(err, "read response")
	}

	return resp.StatusCode, respBody, nil
}
