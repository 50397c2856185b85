/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jws

import (
	"fmt"
	"strings"

	"github.com/square/go-jose/v3/json"

	"github.com/trustbloc/did-core-go/pkg/encoder"
	"github.com/trustbloc/did-core-go/pkg/jwk"
)

const compactSegments = 3

// JSONWebSignature is a JWS (RFC 7515) with a single signature.
type JSONWebSignature struct {
	ProtectedHeaders Headers
	Payload          []byte

	signature []byte
	// rawHeaders is the header segment as received, kept so that the
	// signing input of a parsed JWS is byte-exact.
	rawHeaders string
}

// Signer produces the signature of a JWS and contributes its own protected
// headers, at least "alg".
type Signer interface {
	Sign(data []byte) ([]byte, error)
	Headers() Headers
}

// NewJWS signs payload. The signer headers are merged with protectedHeaders,
// which win on conflicts.
func NewJWS(protectedHeaders Headers, payload []byte, signer Signer) (*JSONWebSignature, error) {
	headers := Headers{}

	for k, v := range signer.Headers() {
		headers[k] = v
	}

	for k, v := range protectedHeaders {
		headers[k] = v
	}

	if err := requireAlgorithm(headers); err != nil {
		return nil, err
	}

	input, err := signingInput("", headers, payload)
	if err != nil {
		return nil, err
	}

	signature, err := signer.Sign(input)
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}

	return &JSONWebSignature{
		ProtectedHeaders: headers,
		Payload:          payload,
		signature:        signature,
	}, nil
}

// SerializeCompact returns the compact serialization. With detached set the
// payload segment is left empty.
func (s JSONWebSignature) SerializeCompact(detached bool) (string, error) {
	header, err := json.Marshal(s.ProtectedHeaders)
	if err != nil {
		return "", fmt.Errorf("encode protected headers: %w", err)
	}

	var payload string
	if !detached {
		payload = encoder.EncodeToString(s.Payload)
	}

	return strings.Join([]string{
		encoder.EncodeToString(header),
		payload,
		encoder.EncodeToString(s.signature),
	}, "."), nil
}

// Signature returns a copy of the signature bytes.
func (s JSONWebSignature) Signature() []byte {
	if s.signature == nil {
		return nil
	}

	return append([]byte(nil), s.signature...)
}

// SigningInput returns the bytes covered by the signature.
func (s JSONWebSignature) SigningInput() ([]byte, error) {
	return signingInput(s.rawHeaders, s.ProtectedHeaders, s.Payload)
}

type parseOptions struct {
	detachedPayload []byte
	detached        bool
}

// ParseOpt configures ParseJWS.
type ParseOpt func(opts *parseOptions)

// WithJWSDetachedPayload supplies the payload of a JWS serialized with an empty payload segment.
// An empty payload is a valid detached payload.
func WithJWSDetachedPayload(payload []byte) ParseOpt {
	return func(opts *parseOptions) {
		opts.detachedPayload = payload
		opts.detached = true
	}
}

// ParseJWS parses a compact JWS without verifying it. The JSON serialization is not supported.
func ParseJWS(compact string, opts ...ParseOpt) (*JSONWebSignature, error) {
	options := &parseOptions{}

	for _, opt := range opts {
		opt(options)
	}

	if strings.HasPrefix(compact, "{") {
		return nil, fmt.Errorf("%w: JWS JSON serialization is not supported", ErrMalformed)
	}

	segments := strings.Split(compact, ".")
	if len(segments) != compactSegments {
		return nil, fmt.Errorf("%w: compact serialization must have %d segments, got %d",
			ErrMalformed, compactSegments, len(segments))
	}

	headers, err := decodeHeaders(segments[0])
	if err != nil {
		return nil, err
	}

	var payload []byte

	if options.detached {
		if segments[1] != "" {
			return nil, fmt.Errorf("%w: payload segment must be empty when a detached payload is given", ErrMalformed)
		}

		payload = options.detachedPayload
	} else {
		// An empty segment is the empty payload. A detached JWS parsed without its payload
		// therefore fails verification unless the signed payload was empty too.
		payload, err = decodeSegment(segments[1], "payload", true)
		if err != nil {
			return nil, err
		}
	}

	signature, err := decodeSegment(segments[2], "signature", false)
	if err != nil {
		return nil, err
	}

	return &JSONWebSignature{
		ProtectedHeaders: headers,
		Payload:          payload,
		signature:        signature,
		rawHeaders:       segments[0],
	}, nil
}

// VerifyJWS parses compact and checks its signature against key.
func VerifyJWS(compact string, key *jwk.JWK, opts ...ParseOpt) (*JSONWebSignature, error) {
	parsed, err := ParseJWS(compact, opts...)
	if err != nil {
		return nil, err
	}

	input, err := parsed.SigningInput()
	if err != nil {
		return nil, err
	}

	if err := VerifySignature(key, parsed.signature, input); err != nil {
		return nil, err
	}

	return parsed, nil
}

// IsCompactJWS reports whether s has the three segments of a compact JWS.
func IsCompactJWS(s string) bool {
	return strings.Count(s, ".") == compactSegments-1
}

func decodeHeaders(segment string) (Headers, error) {
	raw, err := encoder.DecodeString(segment)
	if err != nil {
		return nil, fmt.Errorf("%w: header: %s", ErrMalformed, err.Error())
	}

	var headers Headers

	if err := json.Unmarshal(raw, &headers); err != nil {
		return nil, fmt.Errorf("%w: header: %s", ErrMalformed, err.Error())
	}

	if err := requireAlgorithm(headers); err != nil {
		return nil, err
	}

	return headers, nil
}

func decodeSegment(segment, name string, allowEmpty bool) ([]byte, error) {
	raw, err := encoder.DecodeString(segment)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrMalformed, name, err.Error())
	}

	if len(raw) == 0 && !allowEmpty {
		return nil, fmt.Errorf("%w: empty %s", ErrMalformed, name)
	}

	return raw, nil
}

// signingInput builds "header.payload". An empty rawHeaders means the header
// is encoded from headers. With "b64": false (RFC 7797) the payload is used as is.
func signingInput(rawHeaders string, headers Headers, payload []byte) ([]byte, error) {
	if rawHeaders == "" {
		encoded, err := json.Marshal(headers)
		if err != nil {
			return nil, fmt.Errorf("encode protected headers: %w", err)
		}

		rawHeaders = encoder.EncodeToString(encoded)
	}

	encodePayload := true

	if v, ok := headers[HeaderB64Payload]; ok {
		if encodePayload, ok = v.(bool); !ok {
			return nil, fmt.Errorf("%w: %s header must be a boolean", ErrMalformed, HeaderB64Payload)
		}
	}

	p := string(payload)
	if encodePayload {
		p = encoder.EncodeToString(payload)
	}

	return []byte(rawHeaders + "." + p), nil
}

func requireAlgorithm(headers Headers) error {
	if _, ok := headers[HeaderAlgorithm]; !ok {
		return fmt.Errorf("%w: %s", ErrMissingHeaderField, HeaderAlgorithm)
	}

	return nil
}
