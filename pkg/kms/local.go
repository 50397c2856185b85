/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package kms

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/trustbloc/did-core-go/pkg/crypto"
	"github.com/trustbloc/did-core-go/pkg/internal/log"
	"github.com/trustbloc/did-core-go/pkg/jwk"
)

var logger = log.New("did-core-kms")

// LocalKeyManager is an in-memory key manager. It implements KeyManager, KeyImporter and
// KeyExporter and is safe for concurrent use.
type LocalKeyManager struct {
	mutex sync.RWMutex
	keys  map[string]*jwk.JWK
}

// Option configures a LocalKeyManager.
type Option func(km *LocalKeyManager)

// WithKeys seeds the key manager with keys. Keys that fail to import are skipped and logged.
func WithKeys(keys ...*jwk.JWK) Option {
	return func(km *LocalKeyManager) {
		for _, key := range keys {
			if _, err := km.ImportKey(key); err != nil {
				logger.Warn("Skipping seed key", log.WithError(err))
			}
		}
	}
}

// NewLocalKeyManager returns an empty in-memory key manager.
func NewLocalKeyManager(opts ...Option) *LocalKeyManager {
	km := &LocalKeyManager{keys: make(map[string]*jwk.JWK)}

	for _, opt := range opts {
		opt(km)
	}

	return km
}

// GeneratePrivateKey generates a key pair for the algorithm and stores it under its thumbprint.
func (km *LocalKeyManager) GeneratePrivateKey(alg crypto.Algorithm) (string, error) {
	privateKey, err := crypto.GeneratePrivateKey(alg)
	if err != nil {
		if errors.Is(err, crypto.ErrUnsupportedAlgorithm) {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, err.Error())
		}

		return "", err
	}

	alias, err := km.store(privateKey)
	if err != nil {
		return "", err
	}

	logger.Debug("Generated key", log.WithAlias(alias), log.WithAlgorithm(string(alg)))

	return alias, nil
}

// GetPublicKey returns the public JWK stored under alias.
func (km *LocalKeyManager) GetPublicKey(alias string) (*jwk.JWK, error) {
	key, err := km.get(alias)
	if err != nil {
		return nil, err
	}

	return key.PublicJWK(), nil
}

// Sign signs payload with the private key stored under alias.
func (km *LocalKeyManager) Sign(alias string, payload []byte) ([]byte, error) {
	key, err := km.get(alias)
	if err != nil {
		return nil, err
	}

	if !key.IsPrivate() {
		return nil, fmt.Errorf("%w: no private key for alias '%s'", ErrKeyNotFound, alias)
	}

	signature, err := crypto.Sign(key, payload)
	if err != nil {
		if errors.Is(err, crypto.ErrUnsupportedAlgorithm) {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, err.Error())
		}

		return nil, fmt.Errorf("sign with alias '%s': %w", alias, err)
	}

	return signature, nil
}

// GetDeterministicAlias returns the thumbprint of the public key.
func (km *LocalKeyManager) GetDeterministicAlias(publicKey *jwk.JWK) (string, error) {
	return DeterministicAlias(publicKey)
}

// ImportKey stores a private or public JWK under its thumbprint. A private key replaces a
// previously imported public-only key with the same thumbprint.
func (km *LocalKeyManager) ImportKey(key *jwk.JWK) (string, error) {
	if key == nil {
		return "", fmt.Errorf("%w: key is nil", jwk.ErrInvalidKey)
	}

	if key.IsPrivate() {
		// reject private keys whose d does not belong to the public members
		if _, err := key.PrivateKey(); err != nil {
			return "", err
		}
	} else if _, err := key.PublicKey(); err != nil {
		return "", err
	}

	imported := *key

	alias, err := km.store(&imported)
	if err != nil {
		return "", err
	}

	logger.Debug("Imported key", log.WithAlias(alias))

	return alias, nil
}

// ExportKey returns a copy of the JWK stored under alias, including d for private keys.
func (km *LocalKeyManager) ExportKey(alias string) (*jwk.JWK, error) {
	key, err := km.get(alias)
	if err != nil {
		return nil, err
	}

	exported := *key

	return &exported, nil
}

// Export returns copies of all stored keys ordered by alias.
func (km *LocalKeyManager) Export() ([]*jwk.JWK, error) {
	km.mutex.RLock()
	defer km.mutex.RUnlock()

	aliases := make([]string, 0, len(km.keys))
	for alias := range km.keys {
		aliases = append(aliases, alias)
	}

	sort.Strings(aliases)

	keys := make([]*jwk.JWK, 0, len(aliases))

	for _, alias := range aliases {
		key := *km.keys[alias]
		keys = append(keys, &key)
	}

	return keys, nil
}

func (km *LocalKeyManager) store(key *jwk.JWK) (string, error) {
	alias, err := DeterministicAlias(key)
	if err != nil {
		return "", err
	}

	km.mutex.Lock()
	defer km.mutex.Unlock()

	if existing, ok := km.keys[alias]; ok && existing.IsPrivate() && !key.IsPrivate() {
		return alias, nil
	}

	km.keys[alias] = key

	return alias, nil
}

func (km *LocalKeyManager) get(alias string) (*jwk.JWK, error) {
	km.mutex.RLock()
	defer km.mutex.RUnlock()

	key, ok := km.keys[alias]
	if !ok {
		return nil, fmt.Errorf("%w: alias '%s'", ErrKeyNotFound, alias)
	}

	return key, nil
}
