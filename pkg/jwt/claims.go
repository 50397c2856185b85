/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jwt

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Registered claim names.
const (
	ClaimIssuer    = "iss"
	ClaimSubject   = "sub"
	ClaimAudience  = "aud"
	ClaimExpiresAt = "exp"
	ClaimNotBefore = "nbf"
	ClaimIssuedAt  = "iat"
	ClaimJWTID     = "jti"
)

var registered = map[string]bool{
	ClaimIssuer:    true,
	ClaimSubject:   true,
	ClaimAudience:  true,
	ClaimExpiresAt: true,
	ClaimNotBefore: true,
	ClaimIssuedAt:  true,
	ClaimJWTID:     true,
}

// Claims is a JWT claim set: the registered claims plus any other claims in Misc.
type Claims struct {
	Issuer    string
	Subject   string
	Audience  jwt.ClaimStrings
	ExpiresAt *jwt.NumericDate
	NotBefore *jwt.NumericDate
	IssuedAt  *jwt.NumericDate
	JWTID     string

	// Misc holds every claim that is not registered, keyed by name.
	Misc map[string]interface{}
}

// MarshalJSON flattens Misc into the claim set. A single audience is written as a string.
func (c Claims) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, len(c.Misc)+len(registered))

	for k, v := range c.Misc {
		if registered[k] {
			return nil, fmt.Errorf("misc claim '%s' collides with a registered claim", k)
		}

		m[k] = v
	}

	setString(m, ClaimIssuer, c.Issuer)
	setString(m, ClaimSubject, c.Subject)
	setString(m, ClaimJWTID, c.JWTID)

	switch len(c.Audience) {
	case 0:
	case 1:
		m[ClaimAudience] = c.Audience[0]
	default:
		m[ClaimAudience] = []string(c.Audience)
	}

	setDate(m, ClaimExpiresAt, c.ExpiresAt)
	setDate(m, ClaimNotBefore, c.NotBefore)
	setDate(m, ClaimIssuedAt, c.IssuedAt)

	return json.Marshal(m)
}

// UnmarshalJSON reads the registered claims and keeps all other claims in Misc unchanged.
func (c *Claims) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var registeredClaims jwt.RegisteredClaims

	if err := json.Unmarshal(data, &registeredClaims); err != nil {
		return err
	}

	parsed := Claims{
		Issuer:    registeredClaims.Issuer,
		Subject:   registeredClaims.Subject,
		Audience:  registeredClaims.Audience,
		ExpiresAt: registeredClaims.ExpiresAt,
		NotBefore: registeredClaims.NotBefore,
		IssuedAt:  registeredClaims.IssuedAt,
		JWTID:     registeredClaims.ID,
	}

	for k, v := range raw {
		if registered[k] {
			continue
		}

		if parsed.Misc == nil {
			parsed.Misc = make(map[string]interface{})
		}

		var value interface{}

		// numbers are kept as json.Number so large integers survive the round trip
		dec := json.NewDecoder(bytes.NewReader(v))
		dec.UseNumber()

		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("claim '%s': %w", k, err)
		}

		parsed.Misc[k] = value
	}

	*c = parsed

	return nil
}

// GetExpirationTime implements jwt.Claims.
func (c Claims) GetExpirationTime() (*jwt.NumericDate, error) {
	return c.ExpiresAt, nil
}

// GetIssuedAt implements jwt.Claims.
func (c Claims) GetIssuedAt() (*jwt.NumericDate, error) {
	return c.IssuedAt, nil
}

// GetNotBefore implements jwt.Claims.
func (c Claims) GetNotBefore() (*jwt.NumericDate, error) {
	return c.NotBefore, nil
}

// GetIssuer implements jwt.Claims.
func (c Claims) GetIssuer() (string, error) {
	return c.Issuer, nil
}

// GetSubject implements jwt.Claims.
func (c Claims) GetSubject() (string, error) {
	return c.Subject, nil
}

// GetAudience implements jwt.Claims.
func (c Claims) GetAudience() (jwt.ClaimStrings, error) {
	return c.Audience, nil
}

func setString(m map[string]interface{}, key, value string) {
	if value != "" {
		m[key] = value
	}
}

func setDate(m map[string]interface{}, key string, value *jwt.NumericDate) {
	if value != nil {
		m[key] = value
	}
}
