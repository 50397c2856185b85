/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package vdr

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/trustbloc/did-core-go/pkg/bearerdid"
	"github.com/trustbloc/did-core-go/pkg/did"
	"github.com/trustbloc/did-core-go/pkg/document"
	"github.com/trustbloc/did-core-go/pkg/internal/log"
	"github.com/trustbloc/did-core-go/pkg/kms"
)

var logger = log.New("did-core-vdr")

// ErrKeyNotHeld is returned by Load when the key manager lacks a private key of the resolved document.
var ErrKeyNotHeld = errors.New("key manager does not hold the private key")

// Method resolves DIDs of one DID method.
type Method interface {
	// Accept returns true if the method resolves DIDs with the given method name.
	Accept(method string) bool
	// Resolve resolves a DID. Failures are reported in the result's resolution metadata.
	Resolve(ctx context.Context, uri string) *document.ResolutionResult
}

// Registry dispatches resolution to the registered methods. It is immutable once built.
type Registry struct {
	methods []Method

	cache *expirable.LRU[string, *document.ResolutionResult]
	group singleflight.Group
}

// Option is a registry option.
type Option func(r *Registry)

// WithMethod registers a DID method. Methods registered first take precedence.
func WithMethod(m Method) Option {
	return func(r *Registry) {
		r.methods = append(r.methods, m)
	}
}

// WithCache caches successful resolutions for ttl, holding at most size entries.
func WithCache(size int, ttl time.Duration) Option {
	return func(r *Registry) {
		r.cache = expirable.NewLRU[string, *document.ResolutionResult](size, nil, ttl)
	}
}

// New returns a registry with the given methods.
func New(opts ...Option) *Registry {
	r := &Registry{}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve parses the DID and dispatches to the method that accepts it.
func (r *Registry) Resolve(ctx context.Context, uri string) *document.ResolutionResult {
	parsed, err := did.Parse(uri)
	if err != nil {
		return document.NewResolutionError(document.InvalidDID, err.Error())
	}

	m := r.methodFor(parsed.Method)
	if m == nil {
		logger.Debug("No method registered", log.WithDID(parsed.URI), log.WithMethod(parsed.Method))

		return document.NewResolutionError(document.MethodNotSupported,
			fmt.Sprintf("method not supported: %s", parsed.Method))
	}

	if r.cache == nil {
		return m.Resolve(ctx, parsed.URI)
	}

	// Cached results are shared, so callers get their own copy.
	if result, ok := r.cache.Get(parsed.URI); ok {
		logger.Debug("Resolved DID", log.WithDID(parsed.URI), log.WithCached(true))

		return result.Copy()
	}

	value, _, _ := r.group.Do(parsed.URI, func() (interface{}, error) {
		result := m.Resolve(ctx, parsed.URI)
		if !result.Failed() {
			r.cache.Add(parsed.URI, result)
		}

		return result, nil
	})

	return value.(*document.ResolutionResult).Copy() //nolint:forcetypeassert
}

// Load resolves the DID and returns a bearer DID for it, provided the key manager holds the private key
// of every verification method in the resolved document.
func (r *Registry) Load(ctx context.Context, uri string, km kms.KeyManager) (*bearerdid.BearerDID, error) {
	if km == nil {
		return nil, errors.New("missing key manager")
	}

	result := r.Resolve(ctx, uri)
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("resolve %s: %w", uri, err)
	}

	if result.Document == nil {
		return nil, fmt.Errorf("resolve %s: %w", uri, document.ErrInvalidDocument)
	}

	for i := range result.Document.VerificationMethod {
		if err := checkKeyHeld(km, &result.Document.VerificationMethod[i]); err != nil {
			return nil, err
		}
	}

	bd, err := bearerdid.New(result.Document.ID, result.Document.Copy(), km)
	if err != nil {
		return nil, err
	}

	logger.Debug("Loaded DID", log.WithDID(bd.URI), log.WithTotal(len(result.Document.VerificationMethod)))

	return bd, nil
}

func (r *Registry) methodFor(name string) Method {
	for _, m := range r.methods {
		if m.Accept(name) {
			return m
		}
	}

	return nil
}

// checkKeyHeld looks the verification method's key up under its deterministic alias. Key managers that
// can export are also checked for holding the private part.
func checkKeyHeld(km kms.KeyManager, vm *document.VerificationMethod) error {
	if vm.PublicKeyJwk == nil {
		return fmt.Errorf("%w: %s", document.ErrPublicKeyMissing, vm.ID)
	}

	alias, err := km.GetDeterministicAlias(vm.PublicKeyJwk)
	if err != nil {
		return fmt.Errorf("verification method %s: %w", vm.ID, err)
	}

	if _, err := km.GetPublicKey(alias); err != nil {
		return fmt.Errorf("%w: verification method %s: %s", ErrKeyNotHeld, vm.ID, err.Error())
	}

	exporter, err := kms.AsExporter(km)
	if err != nil {
		return nil //nolint:nilerr
	}

	key, err := exporter.ExportKey(alias)
	if err != nil || !key.IsPrivate() {
		return fmt.Errorf("%w: verification method %s", ErrKeyNotHeld, vm.ID)
	}

	return nil
}
