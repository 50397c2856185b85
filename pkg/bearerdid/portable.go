/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package bearerdid

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/trustbloc/did-core-go/pkg/document"
	"github.com/trustbloc/did-core-go/pkg/internal/log"
	"github.com/trustbloc/did-core-go/pkg/jwk"
	"github.com/trustbloc/did-core-go/pkg/kms"
)

//go:embed portable_schema.json
var portableDIDSchema []byte

// PortableDID is a serializable snapshot of a bearer DID including its private keys.
type PortableDID struct {
	URI         string                 `json:"uri"`
	Document    *document.Document     `json:"document"`
	PrivateKeys []*jwk.JWK             `json:"privateKeys"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// ParsePortableDID validates data against the portable DID JSON schema and decodes it.
func ParsePortableDID(data []byte) (*PortableDID, error) {
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(portableDIDSchema), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPortableDID, err.Error())
	}

	if !result.Valid() {
		var msgs []string
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}

		return nil, fmt.Errorf("%w: %s", ErrInvalidPortableDID, strings.Join(msgs, "; "))
	}

	pd := &PortableDID{}

	if err := json.Unmarshal(data, pd); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPortableDID, err.Error())
	}

	return pd, nil
}

// ToPortableDID exports the bearer DID. The key manager must support export. Private keys are
// collected on a best-effort basis: verification methods whose key the manager does not hold are skipped.
func (b *BearerDID) ToPortableDID() (*PortableDID, error) {
	exporter, err := kms.AsExporter(b.KeyManager)
	if err != nil {
		return nil, err
	}

	var privateKeys []*jwk.JWK

	for _, vm := range b.Document.VerificationMethod {
		if vm.PublicKeyJwk == nil {
			continue
		}

		alias, err := b.KeyManager.GetDeterministicAlias(vm.PublicKeyJwk)
		if err != nil {
			logger.Debug("Skipping verification method without thumbprint", log.WithKeyID(vm.ID), log.WithError(err))

			continue
		}

		key, err := exporter.ExportKey(alias)
		if err != nil || !key.IsPrivate() {
			logger.Debug("Skipping verification method without private key", log.WithKeyID(vm.ID), log.WithAlias(alias))

			continue
		}

		privateKeys = append(privateKeys, key)
	}

	return &PortableDID{
		URI:         b.URI,
		Document:    b.Document.Copy(),
		PrivateKeys: privateKeys,
		Metadata:    copyMetadata(b.Metadata),
	}, nil
}

// FromPortableDID imports the portable DID's private keys into km and returns the bearer DID.
// A nil km means a fresh in-memory key manager. The document must have at least one verification
// method, every verification method must carry a public key and every private key must be a valid
// key pair; nothing is imported otherwise.
func FromPortableDID(pd *PortableDID, km kms.KeyManager) (*BearerDID, error) {
	if km == nil {
		km = kms.NewLocalKeyManager()
	}

	importer, err := kms.AsImporter(km)
	if err != nil {
		return nil, err
	}

	if pd == nil || pd.Document == nil {
		return nil, fmt.Errorf("%w: missing document", ErrInvalidPortableDID)
	}

	if len(pd.Document.VerificationMethod) == 0 {
		return nil, fmt.Errorf("%w: document must have at least one verification method", ErrInvalidPortableDID)
	}

	for _, vm := range pd.Document.VerificationMethod {
		if vm.PublicKeyJwk == nil {
			return nil, fmt.Errorf("%w: verification method '%s' has no public key", ErrInvalidPortableDID, vm.ID)
		}
	}

	for i, key := range pd.PrivateKeys {
		if key == nil || !key.IsPrivate() {
			return nil, fmt.Errorf("%w: private keys must contain private key material", ErrInvalidPortableDID)
		}

		if _, err := key.PrivateKey(); err != nil {
			return nil, fmt.Errorf("%w: private key %d: %s", ErrInvalidPortableDID, i, err.Error())
		}
	}

	bd, err := New(pd.URI, pd.Document.Copy(), km)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPortableDID, err.Error())
	}

	bd.Metadata = copyMetadata(pd.Metadata)

	for _, key := range pd.PrivateKeys {
		alias, err := importer.ImportKey(key)
		if err != nil {
			return nil, fmt.Errorf("import private key: %w", err)
		}

		logger.Debug("Imported private key", log.WithDID(pd.URI), log.WithAlias(alias))
	}

	return bd, nil
}
