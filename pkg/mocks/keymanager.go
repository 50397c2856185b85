/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mocks

import (
	"github.com/trustbloc/did-core-go/pkg/crypto"
	"github.com/trustbloc/did-core-go/pkg/jwk"
	"github.com/trustbloc/did-core-go/pkg/kms"
)

// NewMockKeyManager returns a key manager that can generate and sign but neither imports nor exports keys,
// the way hardware backed key managers behave.
func NewMockKeyManager() *MockKeyManager {
	return &MockKeyManager{local: kms.NewLocalKeyManager()}
}

// MockKeyManager mocks a key manager without import and export capabilities.
type MockKeyManager struct {
	local   *kms.LocalKeyManager
	signErr error
}

// WithSignError injects an error returned by Sign.
func (m *MockKeyManager) WithSignError(err error) *MockKeyManager {
	m.signErr = err

	return m
}

// GeneratePrivateKey generates a key pair.
func (m *MockKeyManager) GeneratePrivateKey(alg crypto.Algorithm) (string, error) {
	return m.local.GeneratePrivateKey(alg)
}

// GetPublicKey returns the public key stored under alias.
func (m *MockKeyManager) GetPublicKey(alias string) (*jwk.JWK, error) {
	return m.local.GetPublicKey(alias)
}

// Sign signs with the key stored under alias.
func (m *MockKeyManager) Sign(alias string, payload []byte) ([]byte, error) {
	if m.signErr != nil {
		return nil, m.signErr
	}

	return m.local.Sign(alias, payload)
}

// GetDeterministicAlias returns the alias of the public key.
func (m *MockKeyManager) GetDeterministicAlias(publicKey *jwk.JWK) (string, error) {
	return m.local.GetDeterministicAlias(publicKey)
}
