/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package key

import (
	"context"
	"errors"
	"fmt"

	"github.com/trustbloc/did-core-go/pkg/bearerdid"
	"github.com/trustbloc/did-core-go/pkg/crypto"
	"github.com/trustbloc/did-core-go/pkg/did"
	"github.com/trustbloc/did-core-go/pkg/document"
	"github.com/trustbloc/did-core-go/pkg/encoder"
	"github.com/trustbloc/did-core-go/pkg/internal/log"
	"github.com/trustbloc/did-core-go/pkg/jwk"
	"github.com/trustbloc/did-core-go/pkg/kms"
)

// MethodName is the DID method name.
const MethodName = "key"

// Multicodec codes of the supported public key types.
const (
	Ed25519PubCode   uint32 = 0xed
	X25519PubCode    uint32 = 0xec
	Secp256k1PubCode uint32 = 0xe7
	P256PubCode      uint32 = 0x1200
)

var logger = log.New("did-core-key")

var (
	// ErrInvalidMultibase is returned when the method-specific id is not a base58btc multibase string.
	ErrInvalidMultibase = errors.New("invalid multibase")

	// ErrUnsupportedMulticodec is returned for unknown multicodec codes or key sizes that do not match the code.
	ErrUnsupportedMulticodec = errors.New("unsupported multicodec")
)

var codeByCurve = map[string]uint32{
	jwk.CurveEd25519:   Ed25519PubCode,
	jwk.CurveX25519:    X25519PubCode,
	jwk.CurveSecp256k1: Secp256k1PubCode,
	jwk.CurveP256:      P256PubCode,
}

var curveByCode = map[uint32]string{
	Ed25519PubCode:   jwk.CurveEd25519,
	X25519PubCode:    jwk.CurveX25519,
	Secp256k1PubCode: jwk.CurveSecp256k1,
	P256PubCode:      jwk.CurveP256,
}

var keySizeByCode = map[uint32]int{
	Ed25519PubCode:   32,
	X25519PubCode:    32,
	Secp256k1PubCode: 33,
	P256PubCode:      33,
}

type createOptions struct {
	algorithm crypto.Algorithm
}

// CreateOption is a Create option.
type CreateOption func(opts *createOptions)

// WithAlgorithm sets the key algorithm. Defaults to Ed25519.
func WithAlgorithm(alg crypto.Algorithm) CreateOption {
	return func(opts *createOptions) {
		opts.algorithm = alg
	}
}

// Create generates a key in the key manager and returns the did:key bearer DID for it. A nil key manager
// is replaced with a new LocalKeyManager.
func Create(km kms.KeyManager, opts ...CreateOption) (*bearerdid.BearerDID, error) {
	options := &createOptions{algorithm: crypto.Ed25519}

	for _, opt := range opts {
		opt(options)
	}

	if km == nil {
		km = kms.NewLocalKeyManager()
	}

	alias, err := km.GeneratePrivateKey(options.algorithm)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}

	pub, err := km.GetPublicKey(alias)
	if err != nil {
		return nil, err
	}

	id, err := Identifier(pub)
	if err != nil {
		return nil, err
	}

	uri := did.Scheme + ":" + MethodName + ":" + id

	doc, err := Expand(uri)
	if err != nil {
		return nil, err
	}

	logger.Debug("Created DID", log.WithDID(uri), log.WithAlias(alias))

	return bearerdid.New(uri, doc, km)
}

// Identifier returns the method-specific id for a public key: z + base58btc(multicodec varint || raw key).
func Identifier(pub *jwk.JWK) (string, error) {
	code, ok := codeByCurve[pub.Crv]
	if !ok {
		return "", fmt.Errorf("%w: curve '%s'", ErrUnsupportedMulticodec, pub.Crv)
	}

	raw, err := pub.RawPublicKey()
	if err != nil {
		return "", err
	}

	return encoder.MultibaseEncode(append(encoder.VarintEncode(code), raw...))
}

// Expand builds the DID document of a did:key DID. It is a pure function of the DID.
func Expand(uri string) (*document.Document, error) {
	parsed, err := did.Parse(uri)
	if err != nil {
		return nil, err
	}

	if parsed.Method != MethodName {
		return nil, fmt.Errorf("%w: expected '%s', got '%s'", did.ErrInvalidMethod, MethodName, parsed.Method)
	}

	pub, err := decodeIdentifier(parsed.ID)
	if err != nil {
		return nil, err
	}

	vm := document.VerificationMethod{
		ID:           parsed.URI + "#" + parsed.ID,
		Type:         document.JSONWebKey2020,
		Controller:   parsed.URI,
		PublicKeyJwk: pub,
	}

	purposes := []document.Purpose{
		document.Authentication,
		document.AssertionMethod,
		document.CapabilityInvocation,
		document.CapabilityDelegation,
	}

	if pub.Crv != jwk.CurveEd25519 {
		purposes = append(purposes, document.KeyAgreement)
	}

	doc := document.New(parsed.URI)
	doc.AddVerificationMethod(vm, purposes...)

	return doc, nil
}

func decodeIdentifier(id string) (*jwk.JWK, error) {
	data, err := encoder.MultibaseDecode(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMultibase, err.Error())
	}

	code, n, err := encoder.VarintDecode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMulticodec, err.Error())
	}

	crv, ok := curveByCode[code]
	if !ok {
		return nil, fmt.Errorf("%w: 0x%x", ErrUnsupportedMulticodec, code)
	}

	raw := data[n:]
	if len(raw) != keySizeByCode[code] {
		return nil, fmt.Errorf("%w: %s key of %d bytes", ErrUnsupportedMulticodec, crv, len(raw))
	}

	pub, err := jwk.FromRawPublicKey(crv, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMulticodec, err.Error())
	}

	return pub, nil
}

// Resolver resolves did:key DIDs without network access.
type Resolver struct{}

// New returns a did:key resolver.
func New() *Resolver {
	return &Resolver{}
}

// Accept returns true for the key method.
func (r *Resolver) Accept(method string) bool {
	return method == MethodName
}

// Resolve resolves a did:key DID.
func (r *Resolver) Resolve(_ context.Context, uri string) *document.ResolutionResult {
	doc, err := Expand(uri)
	if err != nil {
		code := document.InvalidDID
		if errors.Is(err, ErrUnsupportedMulticodec) {
			code = document.InvalidPublicKey
		}

		logger.Debug("Failed to resolve DID", log.WithDID(uri), log.WithErrorCode(string(code)), log.WithError(err))

		return document.NewResolutionError(code, err.Error())
	}

	return document.NewResolutionResult(doc, nil)
}
