/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package document

import (
	"encoding/json"
	"fmt"

	"github.com/trustbloc/did-core-go/pkg/jwk"
)

const (
	// TypeProperty describes type.
	TypeProperty = "type"

	// PublicKeyJwkProperty describes the public key JWK.
	PublicKeyJwkProperty = "publicKeyJwk"

	// PurposesProperty describes the key purposes.
	PurposesProperty = "purposes"
)

// PublicKey is a public key entry of the internal document: id, type, publicKeyJwk and purposes.
type PublicKey map[string]interface{}

// NewPublicKey creates new public key.
func NewPublicKey(pk map[string]interface{}) PublicKey {
	return pk
}

// NewPublicKeyFromJWK builds a public key entry for the JWK.
func NewPublicKeyFromJWK(id, keyType string, key *jwk.JWK, purposes []string) (PublicKey, error) {
	jwkObject, err := toObject(key.PublicJWK())
	if err != nil {
		return nil, err
	}

	pk := PublicKey{
		IDProperty:           id,
		TypeProperty:         keyType,
		PublicKeyJwkProperty: jwkObject,
	}

	if len(purposes) > 0 {
		values := make([]interface{}, len(purposes))
		for i, p := range purposes {
			values[i] = p
		}

		pk[PurposesProperty] = values
	}

	return pk, nil
}

// ID is public key ID.
func (pk PublicKey) ID() string {
	return stringEntry(pk[IDProperty])
}

// Type is public key type.
func (pk PublicKey) Type() string {
	return stringEntry(pk[TypeProperty])
}

// PublicKeyJwk returns the key as a JWK.
func (pk PublicKey) PublicKeyJwk() (*jwk.JWK, error) {
	entry, ok := pk[PublicKeyJwkProperty]
	if !ok {
		return nil, fmt.Errorf("public key '%s' is missing %s", pk.ID(), PublicKeyJwkProperty)
	}

	b, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}

	key := &jwk.JWK{}

	err = json.Unmarshal(b, key)
	if err != nil {
		return nil, fmt.Errorf("public key '%s': %w", pk.ID(), err)
	}

	return key, nil
}

// Purposes describes key purposes.
func (pk PublicKey) Purposes() []string {
	return StringArray(pk[PurposesProperty])
}

// JSONLdObject returns map that represents JSON LD Object.
func (pk PublicKey) JSONLdObject() map[string]interface{} {
	return pk
}

func toObject(v interface{}) (map[string]interface{}, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var m map[string]interface{}

	err = json.Unmarshal(b, &m)
	if err != nil {
		return nil, err
	}

	return m, nil
}
