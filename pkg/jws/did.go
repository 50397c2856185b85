/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jws

import (
	"context"
	"fmt"

	"github.com/trustbloc/did-core-go/pkg/bearerdid"
	"github.com/trustbloc/did-core-go/pkg/did"
	"github.com/trustbloc/did-core-go/pkg/document"
	"github.com/trustbloc/did-core-go/pkg/internal/log"
)

var logger = log.New("did-core-jws")

// Resolver resolves DIDs. vdr.Registry implements it.
type Resolver interface {
	Resolve(ctx context.Context, uri string) *document.ResolutionResult
}

// Decoded is a parsed compact JWS.
type Decoded struct {
	Header    Headers
	Payload   []byte
	Signature []byte

	// SignerDID is the DID portion of the kid header.
	SignerDID string
}

type signOptions struct {
	detached bool
	typ      string
	selector document.Selector
	headers  Headers
}

// SignOption is a Sign option.
type SignOption func(opts *signOptions)

// WithDetached emits an empty payload segment. The signature still covers the payload.
func WithDetached(detached bool) SignOption {
	return func(opts *signOptions) {
		opts.detached = detached
	}
}

// WithType sets the typ header. Defaults to JWT.
func WithType(typ string) SignOption {
	return func(opts *signOptions) {
		opts.typ = typ
	}
}

// WithSelector chooses the verification method used to sign. Defaults to the first one.
func WithSelector(selector document.Selector) SignOption {
	return func(opts *signOptions) {
		opts.selector = selector
	}
}

// WithHeaders adds protected headers. alg and kid are always taken from the signing key.
func WithHeaders(headers Headers) SignOption {
	return func(opts *signOptions) {
		opts.headers = headers
	}
}

// Sign signs payload with a key of the bearer DID and returns the compact JWS. The protected header
// is {typ, alg, kid} where kid is the absolute id of the verification method.
func Sign(bd *bearerdid.BearerDID, payload []byte, opts ...SignOption) (string, error) {
	options := &signOptions{typ: TypeJWT}

	for _, opt := range opts {
		opt(options)
	}

	signFn, vm, err := bd.GetSigner(options.selector)
	if err != nil {
		return "", fmt.Errorf("get signer: %w", err)
	}

	alg, err := vm.PublicKeyJwk.Algorithm()
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedKeyType, err.Error())
	}

	headers := Headers{}
	for k, v := range options.headers {
		if k == HeaderAlgorithm || k == HeaderKeyID {
			continue
		}

		headers[k] = v
	}

	if options.typ != "" {
		headers[HeaderType] = options.typ
	}

	signer := &vmSigner{
		sign: signFn,
		headers: Headers{
			HeaderAlgorithm: alg,
			HeaderKeyID:     bd.Document.GetAbsoluteResourceID(vm.ID),
		},
	}

	jws, err := NewJWS(headers, payload, signer)
	if err != nil {
		return "", err
	}

	return jws.SerializeCompact(options.detached)
}

// Decode parses a compact JWS without verifying it.
func Decode(compact string, opts ...ParseOpt) (*Decoded, error) {
	parsed, err := ParseJWS(compact, opts...)
	if err != nil {
		return nil, err
	}

	decoded := &Decoded{
		Header:    parsed.ProtectedHeaders,
		Payload:   parsed.Payload,
		Signature: parsed.Signature(),
	}

	if kid, ok := parsed.ProtectedHeaders.KeyID(); ok {
		if d, err := did.Parse(kid); err == nil {
			decoded.SignerDID = d.URI
		}
	}

	return decoded, nil
}

// Verify parses the compact JWS, resolves the DID in its kid header and verifies the signature with the
// referenced assertion method. Pass WithJWSDetachedPayload for a detached payload.
func Verify(ctx context.Context, resolver Resolver, compact string, opts ...ParseOpt) (*Decoded, error) {
	parsed, err := ParseJWS(compact, opts...)
	if err != nil {
		return nil, err
	}

	alg, ok := parsed.ProtectedHeaders.Algorithm()
	if !ok || alg == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingHeaderField, HeaderAlgorithm)
	}

	kid, ok := parsed.ProtectedHeaders.KeyID()
	if !ok || kid == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingHeaderField, HeaderKeyID)
	}

	signerDID, err := did.Parse(kid)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnresolvableKid, err.Error())
	}

	result := resolver.Resolve(ctx, signerDID.URI)
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrUnresolvableKid, kid, err.Error())
	}

	if result.Document == nil {
		return nil, fmt.Errorf("%w: %s: no document", ErrUnresolvableKid, kid)
	}

	vm, err := findAssertionMethod(result.Document, kid)
	if err != nil {
		return nil, err
	}

	if !document.IsJSONWebKeyType(vm.Type) || vm.PublicKeyJwk == nil {
		return nil, fmt.Errorf("%w: verification method '%s' of type '%s'", ErrUnsupportedKeyType, vm.ID, vm.Type)
	}

	keyAlg, err := vm.PublicKeyJwk.Algorithm()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKeyType, err.Error())
	}

	if keyAlg != alg {
		return nil, fmt.Errorf("%w: header alg '%s' does not match key alg '%s'", ErrUnsupportedKeyType, alg, keyAlg)
	}

	sInput, err := parsed.SigningInput()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformed, err.Error())
	}

	if err := VerifySignature(vm.PublicKeyJwk, parsed.Signature(), sInput); err != nil {
		logger.Debug("JWS signature verification failed", log.WithKeyID(kid), log.WithError(err))

		return nil, err
	}

	return &Decoded{
		Header:    parsed.ProtectedHeaders,
		Payload:   parsed.Payload,
		Signature: parsed.Signature(),
		SignerDID: signerDID.URI,
	}, nil
}

// findAssertionMethod returns the verification method kid refers to, provided it is an assertion method.
// Documents without an assertionMethod list accept any of their verification methods.
func findAssertionMethod(doc *document.Document, kid string) (*document.VerificationMethod, error) {
	vm, ok := doc.FindVerificationMethod(kid)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrVerificationMethodNotFound, kid)
	}

	if len(doc.AssertionMethod) == 0 {
		return vm, nil
	}

	for _, ref := range doc.AssertionMethod {
		if assertion, ok := doc.FindVerificationMethod(ref); ok && assertion.ID == vm.ID {
			return vm, nil
		}
	}

	return nil, fmt.Errorf("%w: '%s' is not an assertion method", ErrVerificationMethodNotFound, kid)
}

type vmSigner struct {
	sign    bearerdid.SignFunc
	headers Headers
}

func (s *vmSigner) Sign(data []byte) ([]byte, error) {
	return s.sign(data)
}

func (s *vmSigner) Headers() Headers {
	return s.headers
}
