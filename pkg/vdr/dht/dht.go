/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package dht

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trustbloc/did-core-go/pkg/bearerdid"
	"github.com/trustbloc/did-core-go/pkg/crypto"
	"github.com/trustbloc/did-core-go/pkg/did"
	"github.com/trustbloc/did-core-go/pkg/document"
	"github.com/trustbloc/did-core-go/pkg/encoder"
	"github.com/trustbloc/did-core-go/pkg/internal/httpclient"
	"github.com/trustbloc/did-core-go/pkg/internal/log"
	"github.com/trustbloc/did-core-go/pkg/jwk"
	"github.com/trustbloc/did-core-go/pkg/kms"
)

const (
	// MethodName is the DID method name.
	MethodName = "dht"

	// DefaultGateway is the relay gateway messages are published to and fetched from.
	DefaultGateway = "https://diddht.tbddev.org"

	// IdentityKeyID is the fragment of the identity key.
	IdentityKeyID = "0"

	// MetadataSequence is the bearer DID metadata key holding the last published sequence number.
	MetadataSequence = "seq"

	// MetadataPublished is the bearer DID metadata key recording whether the DID has been published.
	MetadataPublished = "published"
)

var logger = log.New("did-core-dht")

// ErrStaleSequence is returned when publishing with a sequence number that is not newer than the last one.
var ErrStaleSequence = errors.New("sequence number is not greater than the last published sequence number")

// Client creates, publishes and resolves did:dht DIDs through a relay gateway.
type Client struct {
	gateway    string
	httpClient httpclient.Client
	clock      func() time.Time
}

// Option is a client option.
type Option func(c *Client)

// WithGateway sets the relay gateway.
func WithGateway(gateway string) Option {
	return func(c *Client) {
		c.gateway = strings.TrimSuffix(gateway, "/")
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(client httpclient.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// New returns a did:dht client.
func New(opts ...Option) *Client {
	c := &Client{
		gateway: DefaultGateway,
		clock:   time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = httpclient.New()
	}

	return c
}

// VerificationKey describes a verification key to add next to the identity key.
type VerificationKey struct {
	// ID is the key fragment. Defaults to the key's alias.
	ID        string
	Algorithm crypto.Algorithm
	Purposes  []document.Purpose
}

type createOptions struct {
	keys     []VerificationKey
	services []document.Service
	publish  bool
}

// CreateOption is a Create option.
type CreateOption func(opts *createOptions)

// WithVerificationKey adds a verification key.
func WithVerificationKey(key VerificationKey) CreateOption {
	return func(opts *createOptions) {
		opts.keys = append(opts.keys, key)
	}
}

// WithService adds a service.
func WithService(s document.Service) CreateOption {
	return func(opts *createOptions) {
		opts.services = append(opts.services, s)
	}
}

// WithPublish sets whether the DID is published to the gateway. Defaults to true.
func WithPublish(publish bool) CreateOption {
	return func(opts *createOptions) {
		opts.publish = publish
	}
}

// Create generates an Ed25519 identity key, whose z-base-32 encoding is the DID's id, builds the document
// and publishes it with the current unix time as sequence number. A nil key manager is replaced with a
// new LocalKeyManager.
func (c *Client) Create(ctx context.Context, km kms.KeyManager, opts ...CreateOption) (*bearerdid.BearerDID, error) {
	options := &createOptions{publish: true}

	for _, opt := range opts {
		opt(options)
	}

	if km == nil {
		km = kms.NewLocalKeyManager()
	}

	alias, err := km.GeneratePrivateKey(crypto.Ed25519)
	if err != nil {
		return nil, errors.Wrap(err, "generate identity key")
	}

	identity, err := km.GetPublicKey(alias)
	if err != nil {
		return nil, err
	}

	raw, err := identity.RawPublicKey()
	if err != nil {
		return nil, err
	}

	uri := did.Scheme + ":" + MethodName + ":" + encoder.ZBase32Encode(raw)

	doc := document.New(uri)
	doc.AddVerificationMethod(document.VerificationMethod{
		ID:           uri + "#" + IdentityKeyID,
		Type:         document.JSONWebKey,
		Controller:   uri,
		PublicKeyJwk: identity,
	}, document.Authentication, document.AssertionMethod, document.CapabilityInvocation, document.CapabilityDelegation)

	for _, key := range options.keys {
		vm, err := newVerificationMethod(km, uri, key)
		if err != nil {
			return nil, err
		}

		doc.AddVerificationMethod(*vm, key.Purposes...)
	}

	for _, s := range options.services {
		s.ID = uri + "#" + fragment(s.ID)
		doc.AddService(s)
	}

	bd, err := bearerdid.New(uri, doc, km)
	if err != nil {
		return nil, err
	}

	bd.Metadata = map[string]interface{}{MetadataPublished: false}

	if options.publish {
		if err := c.Publish(ctx, bd, c.clock().Unix()); err != nil {
			return nil, err
		}
	}

	logger.Info("Created DID", log.WithDID(uri), log.WithAlias(alias))

	return bd, nil
}

func newVerificationMethod(km kms.KeyManager, uri string, key VerificationKey) (*document.VerificationMethod, error) {
	alias, err := km.GeneratePrivateKey(key.Algorithm)
	if err != nil {
		return nil, errors.Wrap(err, "generate verification key")
	}

	pub, err := km.GetPublicKey(alias)
	if err != nil {
		return nil, err
	}

	id := key.ID
	if id == "" {
		id = alias
	}

	return &document.VerificationMethod{
		ID:           uri + "#" + fragment(id),
		Type:         document.JSONWebKey,
		Controller:   uri,
		PublicKeyJwk: pub,
	}, nil
}

// Publish signs the bearer DID's document with its identity key and puts it to the gateway. The sequence
// number must be greater than the one last published for the bearer DID.
//
// Publish records seq and the published flag in bd.Metadata in place, once the gateway accepted the
// message. Bearer DIDs derived with WithService and friends carry their own copy of the metadata.
func (c *Client) Publish(ctx context.Context, bd *bearerdid.BearerDID, seq int64) error {
	if last, ok := sequence(bd.Metadata); ok && seq <= last {
		return errors.Wrapf(ErrStaleSequence, "%d <= %d", seq, last)
	}

	parsed, err := did.Parse(bd.URI)
	if err != nil {
		return err
	}

	k, err := identityKey(parsed)
	if err != nil {
		return err
	}

	packet, err := EncodeDocument(parsed.ID, bd.Document)
	if err != nil {
		return err
	}

	sign, _, err := bd.GetSigner(document.ByID(bd.URI + "#" + IdentityKeyID))
	if err != nil {
		return errors.Wrap(err, "identity key")
	}

	msg, err := signMessage(k, seq, packet, sign)
	if err != nil {
		return err
	}

	body, err := msg.MarshalBinary()
	if err != nil {
		return err
	}

	status, respBody, err := c.send(ctx, http.MethodPut, c.gateway+"/"+parsed.ID, body)
	if err != nil {
		return errors.Wrap(err, "publish")
	}

	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return errors.Errorf("gateway returned status %d: %s", status, respBody)
	}

	if bd.Metadata == nil {
		bd.Metadata = make(map[string]interface{})
	}

	bd.Metadata[MetadataSequence] = seq
	bd.Metadata[MetadataPublished] = true

	logger.Debug("Published DID", log.WithDID(bd.URI), log.WithSequence(seq))

	return nil
}

// Accept returns true for the dht method.
func (c *Client) Accept(method string) bool {
	return method == MethodName
}

// Resolve fetches the signed message of the DID from the gateway, verifies it against the DID's identity
// key and decodes the document it carries.
func (c *Client) Resolve(ctx context.Context, uri string) *document.ResolutionResult {
	parsed, err := did.Parse(uri)
	if err != nil {
		return document.NewResolutionError(document.InvalidDID, err.Error())
	}

	if parsed.Method != MethodName {
		return document.NewResolutionError(document.InvalidDID,
			"expected method '"+MethodName+"', got '"+parsed.Method+"'")
	}

	k, err := identityKey(parsed)
	if err != nil {
		return document.NewResolutionError(document.InvalidDID, err.Error())
	}

	status, body, err := c.send(ctx, http.MethodGet, c.gateway+"/"+parsed.ID, nil)
	if err != nil {
		logger.Warn("Failed to fetch DID", log.WithDID(parsed.URI), log.WithError(err))

		return document.NewResolutionError(document.InternalError, err.Error())
	}

	switch {
	case status == http.StatusNotFound:
		return document.NewResolutionError(document.NotFound, parsed.URI)
	case status != http.StatusOK:
		return document.NewResolutionError(document.InternalError,
			errors.Errorf("gateway returned status %d: %s", status, body).Error())
	}

	msg, err := UnmarshalMessage(k, body)
	if err != nil {
		return document.NewResolutionError(document.InvalidDIDDocument, err.Error())
	}

	ok, err := VerifyMessage(msg)
	if err != nil {
		return document.NewResolutionError(document.InvalidDIDDocument, err.Error())
	}

	if !ok {
		return document.NewResolutionError(document.InvalidDIDDocument, "BEP44 signature does not verify")
	}

	doc, err := DecodeDocument(parsed.URI, parsed.ID, msg.V)
	if err != nil {
		return document.NewResolutionError(document.InvalidDIDDocument, err.Error())
	}

	return document.NewResolutionResult(doc, &document.DocumentMetadata{
		VersionID: strconv.FormatInt(msg.Seq, 10),
		Updated:   time.Unix(msg.Seq, 0).UTC().Format(time.RFC3339),
	})
}

func identityKey(parsed *did.DID) ([]byte, error) {
	k, err := encoder.ZBase32Decode(parsed.ID)
	if err != nil {
		return nil, err
	}

	if len(k) != ed25519.PublicKeySize {
		return nil, errors.Errorf("identity key of %d bytes", len(k))
	}

	if _, err := jwk.FromRawPublicKey(jwk.CurveEd25519, k); err != nil {
		return nil, err
	}

	return k, nil
}

// sequence reads the last published sequence number. Metadata read back from JSON holds numbers as float64.
func sequence(md map[string]interface{}) (int64, bool) {
	switch v := md[MetadataSequence].(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()

		return n, err == nil
	default:
		return 0, false
	}
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
		req.Header.Set("Content-Type", "application/octet-stream")
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

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, signatureSize+seqSize+MaxValueSize))
	if err != nil {
		return 0, nil, errors.Wrap(err, "read response")
	}

	return resp.StatusCode, respBody, nil
}
