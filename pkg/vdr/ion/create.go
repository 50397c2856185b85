/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ion

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"github.com/trustbloc/did-core-go/pkg/bearerdid"
	"github.com/trustbloc/did-core-go/pkg/canonicalizer"
	"github.com/trustbloc/did-core-go/pkg/commitment"
	"github.com/trustbloc/did-core-go/pkg/crypto"
	"github.com/trustbloc/did-core-go/pkg/document"
	"github.com/trustbloc/did-core-go/pkg/internal/log"
	"github.com/trustbloc/did-core-go/pkg/jwk"
	"github.com/trustbloc/did-core-go/pkg/kms"
	"github.com/trustbloc/did-core-go/pkg/sidetree/client"
	sidetreedoc "github.com/trustbloc/did-core-go/pkg/sidetree/document"
	"github.com/trustbloc/did-core-go/pkg/sidetree/patch"
)

// Bearer DID metadata keys.
const (
	MetadataUpdateKeyAlias   = "updateKeyAlias"
	MetadataRecoveryKeyAlias = "recoveryKeyAlias"
	MetadataShortFormURI     = "shortFormUri"
	MetadataLongFormURI      = "longFormUri"
	MetadataPublished        = "published"
)

// update and recovery keys are secp256k1, as ION nodes require
const controlKeyAlgorithm = crypto.SECP256K1

// VerificationKey describes a verification key to generate and embed in the document.
type VerificationKey struct {
	// ID is the key fragment. Defaults to the key's alias.
	ID        string
	Algorithm crypto.Algorithm
	Purposes  []document.Purpose
}

// Metadata describes the control keys of an ION DID. It is kept in the bearer DID metadata.
type Metadata struct {
	UpdateKeyAlias   string `json:"updateKeyAlias"`
	RecoveryKeyAlias string `json:"recoveryKeyAlias"`
	ShortFormURI     string `json:"shortFormUri"`
	LongFormURI      string `json:"longFormUri,omitempty"`
	Published        bool   `json:"published"`
}

// MetadataFrom reads the ION metadata of a bearer DID.
func MetadataFrom(bd *bearerdid.BearerDID) (*Metadata, error) {
	data, err := json.Marshal(bd.Metadata)
	if err != nil {
		return nil, errors.Wrap(err, "marshal bearer DID metadata")
	}

	var md Metadata

	if err := json.Unmarshal(data, &md); err != nil {
		return nil, errors.Wrap(err, "unmarshal ION metadata")
	}

	if md.RecoveryKeyAlias == "" {
		return nil, errors.New("bearer DID has no ION recovery key alias")
	}

	return &md, nil
}

func (m *Metadata) toMap() map[string]interface{} {
	md := map[string]interface{}{
		MetadataUpdateKeyAlias:   m.UpdateKeyAlias,
		MetadataRecoveryKeyAlias: m.RecoveryKeyAlias,
		MetadataShortFormURI:     m.ShortFormURI,
		MetadataPublished:        m.Published,
	}

	if m.LongFormURI != "" {
		md[MetadataLongFormURI] = m.LongFormURI
	}

	return md
}

type operationOptions struct {
	keys     []VerificationKey
	services []document.Service
	publish  bool
}

// OperationOption is a Create or Recover option.
type OperationOption func(opts *operationOptions)

// WithVerificationKey adds a verification key. Without any, a single Ed25519 key is generated.
func WithVerificationKey(key VerificationKey) OperationOption {
	return func(opts *operationOptions) {
		opts.keys = append(opts.keys, key)
	}
}

// WithService adds a service. Service ids are fragments, with or without a leading '#'.
func WithService(s document.Service) OperationOption {
	return func(opts *operationOptions) {
		opts.services = append(opts.services, s)
	}
}

// WithPublish sets whether the operation is submitted to the ION node. Defaults to true.
func WithPublish(publish bool) OperationOption {
	return func(opts *operationOptions) {
		opts.publish = publish
	}
}

func newOperationOptions(opts []OperationOption) *operationOptions {
	options := &operationOptions{publish: true}

	for _, opt := range opts {
		opt(options)
	}

	if len(options.keys) == 0 {
		options.keys = []VerificationKey{{
			Algorithm: crypto.Ed25519,
			Purposes: []document.Purpose{
				document.Authentication,
				document.AssertionMethod,
				document.CapabilityInvocation,
				document.CapabilityDelegation,
			},
		}}
	}

	return options
}

// Create generates the verification, update and recovery keys in the key manager, builds the create
// operation and submits it to the ION node. The returned bearer DID uses the long-form DID, which
// resolves before the operation is anchored. A nil key manager is replaced with a new LocalKeyManager.
func (c *Client) Create(ctx context.Context, km kms.KeyManager, opts ...OperationOption) (*bearerdid.BearerDID, error) {
	options := newOperationOptions(opts)

	if km == nil {
		km = kms.NewLocalKeyManager()
	}

	content, err := newDocumentContent(km, options)
	if err != nil {
		return nil, err
	}

	keys, err := c.newControlKeys(km)
	if err != nil {
		return nil, err
	}

	patches, err := content.patches()
	if err != nil {
		return nil, err
	}

	createRequest, err := client.NewCreateRequestModel(&client.CreateRequestInfo{
		Patches:            patches,
		RecoveryCommitment: keys.recoveryCommitment,
		UpdateCommitment:   keys.updateCommitment,
		MultihashCode:      c.multihashCode,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}

	shortForm, longForm, err := client.GetDIDs(Namespace, createRequest, c.multihashCode)
	if err != nil {
		return nil, err
	}

	result := c.resolveLongForm(longForm)
	if err := result.Err(); err != nil {
		return nil, errors.Wrap(err, "compose long-form document")
	}

	if options.publish {
		request, err := canonicalizer.MarshalCanonical(createRequest)
		if err != nil {
			return nil, errors.Wrap(err, "marshal create request")
		}

		if err := c.submit(ctx, request); err != nil {
			return nil, err
		}
	}

	bd, err := bearerdid.New(longForm, result.Document, km)
	if err != nil {
		return nil, err
	}

	bd.Metadata = (&Metadata{
		UpdateKeyAlias:   keys.updateAlias,
		RecoveryKeyAlias: keys.recoveryAlias,
		ShortFormURI:     shortForm,
		LongFormURI:      longForm,
		Published:        options.publish,
	}).toMap()

	logger.Info("Created DID", log.WithDID(shortForm), log.WithRecoveryCommitment(keys.recoveryCommitment),
		log.WithUpdateCommitment(keys.updateCommitment))

	return bd, nil
}

// documentContent holds the public keys and services of an internal ION document.
type documentContent struct {
	PublicKeys []sidetreedoc.PublicKey `json:"publicKeys"`
	Services   []sidetreedoc.Service   `json:"services,omitempty"`
}

func newDocumentContent(km kms.KeyManager, options *operationOptions) (*documentContent, error) {
	content := &documentContent{}

	for _, key := range options.keys {
		alias, err := km.GeneratePrivateKey(key.Algorithm)
		if err != nil {
			return nil, errors.Wrap(err, "generate verification key")
		}

		pub, err := km.GetPublicKey(alias)
		if err != nil {
			return nil, err
		}

		id := key.ID
		if id == "" {
			id = alias
		}

		purposes := make([]string, len(key.Purposes))
		for i, p := range key.Purposes {
			purposes[i] = string(p)
		}

		pk, err := sidetreedoc.NewPublicKeyFromJWK(strings.TrimPrefix(id, "#"), KeyType, pub, purposes)
		if err != nil {
			return nil, err
		}

		content.PublicKeys = append(content.PublicKeys, pk)
	}

	for _, s := range options.services {
		id := s.ID
		if i := strings.LastIndex(id, "#"); i >= 0 {
			id = id[i+1:]
		}

		var endpoint interface{} = s.ServiceEndpoint
		if len(s.ServiceEndpoint) == 1 {
			endpoint = s.ServiceEndpoint[0]
		}

		content.Services = append(content.Services, sidetreedoc.NewServiceEntry(id, s.Type, endpoint))
	}

	return content, nil
}

// patches returns the add-public-keys and add-services patches that build the document.
func (d *documentContent) patches() ([]patch.Patch, error) {
	keys, err := json.Marshal(d.PublicKeys)
	if err != nil {
		return nil, err
	}

	addKeys, err := patch.NewAddPublicKeysPatch(string(keys))
	if err != nil {
		return nil, errors.Wrap(err, "add public keys patch")
	}

	patches := []patch.Patch{addKeys}

	if len(d.Services) == 0 {
		return patches, nil
	}

	services, err := json.Marshal(d.Services)
	if err != nil {
		return nil, err
	}

	addServices, err := patch.NewAddServiceEndpointsPatch(string(services))
	if err != nil {
		return nil, errors.Wrap(err, "add services patch")
	}

	return append(patches, addServices), nil
}

type controlKeys struct {
	updateAlias        string
	updateCommitment   string
	recoveryAlias      string
	recoveryCommitment string
}

func (c *Client) newControlKeys(km kms.KeyManager) (*controlKeys, error) {
	updateAlias, updateCommitment, err := c.newCommittedKey(km)
	if err != nil {
		return nil, errors.Wrap(err, "update key")
	}

	recoveryAlias, recoveryCommitment, err := c.newCommittedKey(km)
	if err != nil {
		return nil, errors.Wrap(err, "recovery key")
	}

	return &controlKeys{
		updateAlias:        updateAlias,
		updateCommitment:   updateCommitment,
		recoveryAlias:      recoveryAlias,
		recoveryCommitment: recoveryCommitment,
	}, nil
}

func (c *Client) newCommittedKey(km kms.KeyManager) (string, string, error) {
	alias, err := km.GeneratePrivateKey(controlKeyAlgorithm)
	if err != nil {
		return "", "", err
	}

	pub, err := km.GetPublicKey(alias)
	if err != nil {
		return "", "", err
	}

	value, err := commitment.GetCommitment(pub, c.multihashCode)
	if err != nil {
		return "", "", err
	}

	return alias, value, nil
}

func (c *Client) revealValue(key *jwk.JWK) (string, error) {
	return commitment.GetRevealValue(key, c.multihashCode)
}
