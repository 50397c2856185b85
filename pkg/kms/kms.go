/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package kms

import (
	"errors"
	"fmt"

	"github.com/trustbloc/did-core-go/pkg/crypto"
	"github.com/trustbloc/did-core-go/pkg/jwk"
)

var (
	// ErrKeyNotFound is returned when no key is stored under an alias.
	ErrKeyNotFound = errors.New("key not found")

	// ErrUnsupportedAlgorithm is returned when a key cannot be generated or used for signing.
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")

	// ErrCapabilityNotSupported is returned when a key manager lacks import or export.
	ErrCapabilityNotSupported = errors.New("capability not supported")
)

// KeyManager generates and stores keys and signs with them. Private key material never
// leaves the key manager through this interface.
//
// Every alias returned by GeneratePrivateKey equals GetDeterministicAlias of the key's public JWK.
type KeyManager interface {
	// GeneratePrivateKey creates a key pair and returns its alias.
	GeneratePrivateKey(alg crypto.Algorithm) (string, error)
	// GetPublicKey returns the public JWK stored under alias.
	GetPublicKey(alias string) (*jwk.JWK, error)
	// Sign returns the raw signature over payload made with the key stored under alias.
	Sign(alias string, payload []byte) ([]byte, error)
	// GetDeterministicAlias returns the alias a key is (or would be) stored under.
	GetDeterministicAlias(publicKey *jwk.JWK) (string, error)
}

// KeyImporter is implemented by key managers that accept externally created keys.
type KeyImporter interface {
	// ImportKey stores a private or public JWK and returns its alias.
	ImportKey(key *jwk.JWK) (string, error)
}

// KeyExporter is implemented by key managers that release private key material.
type KeyExporter interface {
	// ExportKey returns the JWK (including d when held) stored under alias.
	ExportKey(alias string) (*jwk.JWK, error)
	// Export returns every stored key.
	Export() ([]*jwk.JWK, error)
}

// AsImporter returns the key manager's import capability.
func AsImporter(km KeyManager) (KeyImporter, error) {
	importer, ok := km.(KeyImporter)
	if !ok {
		return nil, fmt.Errorf("%w: key manager does not support key import", ErrCapabilityNotSupported)
	}

	return importer, nil
}

// AsExporter returns the key manager's export capability.
func AsExporter(km KeyManager) (KeyExporter, error) {
	exporter, ok := km.(KeyExporter)
	if !ok {
		return nil, fmt.Errorf("%w: key manager does not support key export", ErrCapabilityNotSupported)
	}

	return exporter, nil
}

// DeterministicAlias computes the alias for a public key: its RFC 7638 thumbprint.
func DeterministicAlias(publicKey *jwk.JWK) (string, error) {
	if publicKey == nil {
		return "", fmt.Errorf("%w: public key is nil", jwk.ErrInvalidKey)
	}

	return publicKey.Thumbprint()
}
