/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jws

const (
	// HeaderAlgorithm identifies the cryptographic algorithm used to secure the JWS.
	HeaderAlgorithm = "alg"

	// HeaderKeyID is a hint indicating which key was used to secure the JWS.
	HeaderKeyID = "kid"

	// HeaderType declares the media type of the complete JWS.
	HeaderType = "typ"

	// HeaderB64Payload determines whether the payload is represented in the JWS as base64url (RFC 7797).
	HeaderB64Payload = "b64"

	// TypeJWT is the default "typ" header value.
	TypeJWT = "JWT"
)

// Headers represents JOSE headers.
type Headers map[string]interface{}

// KeyID gets Key ID from JOSE headers.
func (h Headers) KeyID() (string, bool) {
	return h.stringValue(HeaderKeyID)
}

// Algorithm gets Algorithm from JOSE headers.
func (h Headers) Algorithm() (string, bool) {
	return h.stringValue(HeaderAlgorithm)
}

// Type gets the "typ" header.
func (h Headers) Type() (string, bool) {
	return h.stringValue(HeaderType)
}

func (h Headers) stringValue(key string) (string, bool) {
	raw, ok := h[key]
	if !ok {
		return "", false
	}

	value, ok := raw.(string)

	return value, ok
}
