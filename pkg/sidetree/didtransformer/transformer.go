/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package didtransformer

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/trustbloc/did-core-go/pkg/document"
	"github.com/trustbloc/did-core-go/pkg/sidetree/model"
	sidetreedoc "github.com/trustbloc/did-core-go/pkg/sidetree/document"
)

const (
	jsonWebKey2020                    = "JsonWebKey2020"
	ecdsaSecp256k1VerificationKey2019 = "EcdsaSecp256k1VerificationKey2019"
	ed25519VerificationKey2020        = "Ed25519VerificationKey2020"
	x25519KeyAgreementKey2019         = "X25519KeyAgreementKey2019"

	jsonWebKey2020Ctx                    = "https://w3id.org/security/suites/jws-2020/v1"
	ecdsaSecp256k1VerificationKey2019Ctx = "https://w3id.org/security/suites/secp256k1-2019/v1"
	ed25519VerificationKey2020Ctx        = "https://w3id.org/security/suites/ed25519-2020/v1"
	x25519KeyAgreementKey2019Ctx         = "https://w3id.org/security/suites/x25519-2019/v1"
)

var defaultKeyContextMap = map[string]string{
	jsonWebKey2020:                    jsonWebKey2020Ctx,
	ecdsaSecp256k1VerificationKey2019: ecdsaSecp256k1VerificationKey2019Ctx,
	ed25519VerificationKey2020:        ed25519VerificationKey2020Ctx,
	x25519KeyAgreementKey2019:         x25519KeyAgreementKey2019Ctx,
}

// Info carries the resolution facts that are not part of the resolution model.
type Info struct {
	// ID is the DID the document is resolved for (short or long form).
	ID string

	// Published is true when the create operation has been anchored.
	Published bool

	// CanonicalID is the short-form DID, set once the DID is published.
	CanonicalID string

	// EquivalentID lists other DIDs that resolve to the same document.
	EquivalentID []string
}

// Option is a transformer instance option.
type Option func(opts *Transformer)

// WithMethodContext sets optional method context(s).
func WithMethodContext(ctx ...string) Option {
	return func(opts *Transformer) {
		opts.methodCtx = ctx
	}
}

// WithKeyContext sets the JSON-LD context added for each verification method type.
func WithKeyContext(ctx map[string]string) Option {
	return func(opts *Transformer) {
		opts.keyCtx = ctx
	}
}

// Transformer is responsible for transforming internal to external document.
type Transformer struct {
	keyCtx    map[string]string
	methodCtx []string
}

// New creates a new DID Transformer.
func New(opts ...Option) *Transformer {
	transformer := &Transformer{}

	// apply options
	for _, opt := range opts {
		opt(transformer)
	}

	if len(transformer.keyCtx) == 0 {
		transformer.keyCtx = defaultKeyContextMap
	}

	return transformer
}

// TransformDocument creates the external DID document and its metadata from the internal resolution model.
func (t *Transformer) TransformDocument(rm *model.ResolutionModel, info Info) (*document.Document, *document.DocumentMetadata, error) {
	if rm == nil {
		return nil, nil, errors.New("resolution model is required for document transformation")
	}

	if info.ID == "" {
		return nil, nil, errors.New("id is required for document transformation")
	}

	metadata := &document.DocumentMetadata{
		Deactivated:  rm.Deactivated,
		CanonicalID:  info.CanonicalID,
		EquivalentID: info.EquivalentID,
		Method: &document.MethodMetadata{
			Published:          info.Published,
			RecoveryCommitment: rm.RecoveryCommitment,
			UpdateCommitment:   rm.UpdateCommitment,
		},
	}

	external := document.New(info.ID)

	for _, c := range t.methodCtx {
		external.Context = append(external.Context, c)
	}

	if rm.Deactivated || rm.Doc == nil {
		return external, metadata, nil
	}

	if err := t.processKeys(rm.Doc, external); err != nil {
		return nil, nil, fmt.Errorf("failed to transform public keys for did document: %s", err.Error())
	}

	if err := processServices(rm.Doc, external); err != nil {
		return nil, nil, fmt.Errorf("failed to transform services for did document: %s", err.Error())
	}

	return external, metadata, nil
}

// processKeys adds every internal key to verificationMethod and references it by full id from each
// verification relationship named in its purposes.
func (t *Transformer) processKeys(internal sidetreedoc.Document, external *document.Document) error {
	var keyContexts []string

	for _, pk := range internal.PublicKeys() {
		key, err := pk.PublicKeyJwk()
		if err != nil {
			return err
		}

		vm := document.VerificationMethod{
			ID:           external.ID + "#" + pk.ID(),
			Type:         pk.Type(),
			Controller:   external.ID,
			PublicKeyJwk: key,
		}

		keyContext, ok := t.keyCtx[pk.Type()]
		if !ok {
			return fmt.Errorf("key context not found for key type: %s", pk.Type())
		}

		if !contains(keyContexts, keyContext) {
			keyContexts = append(keyContexts, keyContext)
		}

		var purposes []document.Purpose
		for _, p := range pk.Purposes() {
			purposes = append(purposes, document.Purpose(p))
		}

		external.AddVerificationMethod(vm, purposes...)
	}

	for _, c := range keyContexts {
		external.Context = append(external.Context, c)
	}

	return nil
}

// processServices adds internal services with ids qualified by the DID.
func processServices(internal sidetreedoc.Document, external *document.Document) error {
	for _, sv := range internal.Services() {
		endpoints, err := endpointStrings(sv.Endpoint())
		if err != nil {
			return fmt.Errorf("service '%s': %s", sv.ID(), err.Error())
		}

		external.AddService(document.Service{
			ID:              external.ID + "#" + sv.ID(),
			Type:            sv.Type(),
			ServiceEndpoint: endpoints,
		})
	}

	return nil
}

func endpointStrings(endpoint interface{}) ([]string, error) {
	switch v := endpoint.(type) {
	case string:
		return []string{v}, nil
	case []interface{}:
		var result []string

		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				b, err := json.Marshal(e)
				if err != nil {
					return nil, err
				}

				s = string(b)
			}

			result = append(result, s)
		}

		return result, nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}

		return []string{string(b)}, nil
	}
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}

	return false
}
