/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package bearerdid

import (
	"errors"
	"fmt"

	"github.com/trustbloc/did-core-go/pkg/did"
	"github.com/trustbloc/did-core-go/pkg/document"
	"github.com/trustbloc/did-core-go/pkg/internal/log"
	"github.com/trustbloc/did-core-go/pkg/kms"
)

var logger = log.New("did-core-bearerdid")

// ErrInvalidPortableDID is returned when a portable DID cannot be turned into a bearer DID.
var ErrInvalidPortableDID = errors.New("invalid portable DID")

// SignFunc signs a payload with the key behind a verification method.
type SignFunc func(payload []byte) ([]byte, error)

// BearerDID is a DID together with its document and the key manager holding its private keys.
// BearerDID holds no key material itself; keys are addressed by their thumbprint alias.
type BearerDID struct {
	URI        string
	DID        *did.DID
	KeyManager kms.KeyManager
	Document   *document.Document

	// Metadata carries method specific state, e.g. the did:ion update and recovery key aliases.
	Metadata map[string]interface{}
}

// New returns a bearer DID for the document.
func New(uri string, doc *document.Document, km kms.KeyManager) (*BearerDID, error) {
	parsed, err := did.Parse(uri)
	if err != nil {
		return nil, err
	}

	if doc == nil {
		return nil, errors.New("missing DID document")
	}

	if km == nil {
		return nil, errors.New("missing key manager")
	}

	return &BearerDID{
		URI:        parsed.URI,
		DID:        parsed,
		KeyManager: km,
		Document:   doc,
	}, nil
}

// GetSigner returns a function signing with the key of the selected verification method, along with
// that verification method. A nil selector chooses the first verification method.
func (b *BearerDID) GetSigner(selector document.Selector) (SignFunc, *document.VerificationMethod, error) {
	vm, err := b.Document.SelectVerificationMethod(selector)
	if err != nil {
		return nil, nil, err
	}

	alias, err := b.KeyManager.GetDeterministicAlias(vm.PublicKeyJwk)
	if err != nil {
		return nil, nil, fmt.Errorf("compute key alias for '%s': %w", vm.ID, err)
	}

	logger.Debug("Signer selected", log.WithDID(b.URI), log.WithKeyID(vm.ID), log.WithAlias(alias))

	sign := func(payload []byte) ([]byte, error) {
		return b.KeyManager.Sign(alias, payload)
	}

	return sign, vm, nil
}

// WithService returns a copy of the bearer DID whose document has the service added.
func (b *BearerDID) WithService(s document.Service) *BearerDID {
	return b.withDocument(b.Document.WithService(s))
}

// WithoutService returns a copy of the bearer DID whose document lacks the service with the given id.
func (b *BearerDID) WithoutService(id string) *BearerDID {
	return b.withDocument(b.Document.WithoutService(id))
}

// WithoutServices returns a copy of the bearer DID whose document has no services.
func (b *BearerDID) WithoutServices() *BearerDID {
	return b.withDocument(b.Document.WithoutServices())
}

func (b *BearerDID) withDocument(doc *document.Document) *BearerDID {
	c := *b
	c.Document = doc
	c.Metadata = copyMetadata(b.Metadata)

	return &c
}

func copyMetadata(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}

	c := make(map[string]interface{}, len(m))
	for k, v := range m {
		c[k] = v
	}

	return c
}
