/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jwt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/trustbloc/did-core-go/pkg/bearerdid"
	"github.com/trustbloc/did-core-go/pkg/jws"
)

// Decoded is a parsed JWT.
type Decoded struct {
	Header    jws.Headers
	Claims    Claims
	Signature []byte
	SignerDID string
}

type verifyOptions struct {
	leeway time.Duration
	clock  func() time.Time
}

// VerifyOption is a Verify option.
type VerifyOption func(opts *verifyOptions)

// WithLeeway allows for clock skew when checking exp and nbf.
func WithLeeway(leeway time.Duration) VerifyOption {
	return func(opts *verifyOptions) {
		opts.leeway = leeway
	}
}

// WithClock sets the time source used for exp and nbf checks.
func WithClock(clock func() time.Time) VerifyOption {
	return func(opts *verifyOptions) {
		opts.clock = clock
	}
}

// Sign signs the claims as a JWT with a key of the bearer DID.
func Sign(bd *bearerdid.BearerDID, claims Claims, opts ...jws.SignOption) (string, error) {
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("marshal claims: %w", err)
	}

	return jws.Sign(bd, payload, opts...)
}

// Decode parses a JWT without verifying it.
func Decode(token string) (*Decoded, error) {
	decoded, err := jws.Decode(token)
	if err != nil {
		return nil, err
	}

	return toJWT(decoded)
}

// Verify verifies the JWT signature against the signer's DID document and checks exp and nbf.
func Verify(ctx context.Context, resolver jws.Resolver, token string, opts ...VerifyOption) (*Decoded, error) {
	options := &verifyOptions{clock: time.Now}

	for _, opt := range opts {
		opt(options)
	}

	verified, err := jws.Verify(ctx, resolver, token)
	if err != nil {
		return nil, err
	}

	decoded, err := toJWT(verified)
	if err != nil {
		return nil, err
	}

	validator := jwt.NewValidator(jwt.WithLeeway(options.leeway), jwt.WithTimeFunc(options.clock))

	if err := validator.Validate(decoded.Claims); err != nil {
		return nil, err
	}

	return decoded, nil
}

func toJWT(decoded *jws.Decoded) (*Decoded, error) {
	var claims Claims

	if err := json.Unmarshal(decoded.Payload, &claims); err != nil {
		return nil, fmt.Errorf("%w: unmarshal claims: %s", jwt.ErrTokenMalformed, err.Error())
	}

	return &Decoded{
		Header:    decoded.Header,
		Claims:    claims,
		Signature: decoded.Signature,
		SignerDID: decoded.SignerDID,
	}, nil
}
