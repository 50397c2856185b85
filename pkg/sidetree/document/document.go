/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package document

import (
	"encoding/json"

	"github.com/trustbloc/did-core-go/pkg/canonicalizer"
)

// Property names of the internal document state.
const (
	IDProperty        = "id"
	PublicKeyProperty = "publicKeys"
	ServiceProperty   = "services"
)

// Document is the internal state that Sidetree patches operate on. Its
// "publicKeys" and "services" arrays are turned into a DID document by
// the didtransformer package.
type Document map[string]interface{}

// FromBytes decodes a JSON document.
func FromBytes(data []byte) (Document, error) {
	doc := Document{}

	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	return doc, nil
}

// FromJSONLDObject wraps a decoded JSON object.
func FromJSONLDObject(jsonldObject map[string]interface{}) Document {
	return jsonldObject
}

// ID returns the "id" property.
func (doc Document) ID() string {
	return doc.GetStringValue(IDProperty)
}

// PublicKeys returns the entries of the "publicKeys" array.
func (doc Document) PublicKeys() []PublicKey {
	return ParsePublicKeys(doc[PublicKeyProperty])
}

// Services returns the entries of the "services" array.
func (doc Document) Services() []Service {
	return ParseServices(doc[ServiceProperty])
}

// GetStringValue returns the string stored under key, or "" if absent or not a string.
func (doc Document) GetStringValue(key string) string {
	return stringEntry(doc[key])
}

// Bytes returns the JCS encoding of the document.
func (doc Document) Bytes() ([]byte, error) {
	return canonicalizer.MarshalCanonical(doc)
}

// JSONLdObject returns the document as a plain map.
func (doc Document) JSONLdObject() map[string]interface{} {
	return doc
}

// ParsePublicKeys converts the object entries of a decoded JSON array into public keys.
func ParsePublicKeys(entry interface{}) []PublicKey {
	return objects(entry, NewPublicKey)
}

// ParseServices converts the object entries of a decoded JSON array into services.
func ParseServices(entry interface{}) []Service {
	return objects(entry, NewService)
}

// StringArray returns the string entries of a decoded JSON array.
func StringArray(entry interface{}) []string {
	var result []string

	for _, e := range array(entry) {
		if s, ok := e.(string); ok {
			result = append(result, s)
		}
	}

	return result
}

func objects[T any](entry interface{}, convert func(map[string]interface{}) T) []T {
	var result []T

	for _, e := range array(entry) {
		if m, ok := e.(map[string]interface{}); ok {
			result = append(result, convert(m))
		}
	}

	return result
}

func array(entry interface{}) []interface{} {
	entries, _ := entry.([]interface{})

	return entries
}

func stringEntry(entry interface{}) string {
	s, _ := entry.(string)

	return s
}
