/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/trustbloc/did-core-go/pkg/jwk"
)

const (
	// ContextV1 is the W3C DID v1 JSON-LD context.
	ContextV1 = "https://www.w3.org/ns/did/v1"

	// JSONWebKey2020 is the verification method type for keys expressed as publicKeyJwk.
	JSONWebKey2020 = "JsonWebKey2020"

	// JSONWebKey is the verification method type used by newer DID specifications.
	JSONWebKey = "JsonWebKey"
)

var (
	// ErrVerificationMethodNotFound is returned when a selector matches no verification method.
	ErrVerificationMethodNotFound = errors.New("verification method not found")

	// ErrPublicKeyMissing is returned when a verification method has no publicKeyJwk.
	ErrPublicKeyMissing = errors.New("verification method public key missing")

	// ErrInvalidDocument is returned when a document violates its structural invariants.
	ErrInvalidDocument = errors.New("invalid DID document")
)

// Purpose is a verification relationship.
type Purpose string

// Verification relationships.
const (
	Authentication       Purpose = "authentication"
	AssertionMethod      Purpose = "assertionMethod"
	KeyAgreement         Purpose = "keyAgreement"
	CapabilityInvocation Purpose = "capabilityInvocation"
	CapabilityDelegation Purpose = "capabilityDelegation"
)

// Purposes lists every verification relationship in document order.
func Purposes() []Purpose {
	return []Purpose{Authentication, AssertionMethod, KeyAgreement, CapabilityInvocation, CapabilityDelegation}
}

// IsJSONWebKeyType returns true for verification method types that carry a publicKeyJwk.
func IsJSONWebKeyType(vmType string) bool {
	return vmType == JSONWebKey2020 || vmType == JSONWebKey
}

// Document is a DID Document. Purpose lists hold verification method ids, absolute or
// relative (#fragment), that dereference against VerificationMethod.
//
// Documents are treated as values: construction helpers mutate, everything else copies.
type Document struct {
	Context              []interface{}        `json:"@context,omitempty"`
	ID                   string               `json:"id"`
	AlsoKnownAs          []string             `json:"alsoKnownAs,omitempty"`
	Controller           []string             `json:"controller,omitempty"`
	VerificationMethod   []VerificationMethod `json:"verificationMethod,omitempty"`
	Authentication       []string             `json:"authentication,omitempty"`
	AssertionMethod      []string             `json:"assertionMethod,omitempty"`
	KeyAgreement         []string             `json:"keyAgreement,omitempty"`
	CapabilityInvocation []string             `json:"capabilityInvocation,omitempty"`
	CapabilityDelegation []string             `json:"capabilityDelegation,omitempty"`
	Service              []Service            `json:"service,omitempty"`
}

// VerificationMethod is a public key bound to the DID subject.
type VerificationMethod struct {
	ID           string   `json:"id"`
	Type         string   `json:"type"`
	Controller   string   `json:"controller"`
	PublicKeyJwk *jwk.JWK `json:"publicKeyJwk,omitempty"`
}

// Service is a service endpoint advertised by the DID subject.
type Service struct {
	ID              string   `json:"id"`
	Type            string   `json:"type"`
	ServiceEndpoint []string `json:"serviceEndpoint"`
}

// New returns an empty document for the DID with the W3C DID v1 context.
func New(id string) *Document {
	return &Document{
		Context: []interface{}{ContextV1},
		ID:      id,
	}
}

// AddVerificationMethod appends the verification method and references it by id from each purpose.
func (doc *Document) AddVerificationMethod(vm VerificationMethod, purposes ...Purpose) {
	doc.VerificationMethod = append(doc.VerificationMethod, vm)

	for _, p := range purposes {
		refs := doc.references(p)
		if refs != nil {
			*refs = append(*refs, vm.ID)
		}
	}
}

// AddService appends a service.
func (doc *Document) AddService(s Service) {
	doc.Service = append(doc.Service, s)
}

// References returns the verification method ids listed under the purpose.
func (doc *Document) References(p Purpose) []string {
	refs := doc.references(p)
	if refs == nil {
		return nil
	}

	return *refs
}

func (doc *Document) references(p Purpose) *[]string {
	switch p {
	case Authentication:
		return &doc.Authentication
	case AssertionMethod:
		return &doc.AssertionMethod
	case KeyAgreement:
		return &doc.KeyAgreement
	case CapabilityInvocation:
		return &doc.CapabilityInvocation
	case CapabilityDelegation:
		return &doc.CapabilityDelegation
	default:
		return nil
	}
}

// GetAbsoluteResourceID expands a relative (#fragment) id against the document id.
func (doc *Document) GetAbsoluteResourceID(id string) string {
	if strings.HasPrefix(id, "#") {
		return doc.ID + id
	}

	return id
}

// FindVerificationMethod returns the verification method whose id matches ref. Ids are compared
// in both absolute and #fragment forms so "did:x:y#k", "#k" and "k" all match.
func (doc *Document) FindVerificationMethod(ref string) (*VerificationMethod, bool) {
	target := doc.GetAbsoluteResourceID(normalizeRef(ref))

	for i := range doc.VerificationMethod {
		vm := &doc.VerificationMethod[i]

		if doc.GetAbsoluteResourceID(normalizeRef(vm.ID)) == target {
			return vm, true
		}
	}

	return nil, false
}

// normalizeRef turns a bare fragment into a relative reference.
func normalizeRef(ref string) string {
	if ref == "" || strings.HasPrefix(ref, "#") || strings.Contains(ref, ":") {
		return ref
	}

	return "#" + ref
}

// SelectVerificationMethod returns the verification method chosen by selector, or the first
// verification method when selector is nil.
func (doc *Document) SelectVerificationMethod(selector Selector) (*VerificationMethod, error) {
	var (
		vm  *VerificationMethod
		err error
	)

	if selector == nil {
		if len(doc.VerificationMethod) == 0 {
			return nil, fmt.Errorf("%w: document '%s' has no verification methods", ErrVerificationMethodNotFound, doc.ID)
		}

		vm = &doc.VerificationMethod[0]
	} else {
		vm, err = selector.selectFrom(doc)
		if err != nil {
			return nil, err
		}
	}

	if vm.PublicKeyJwk == nil {
		return nil, fmt.Errorf("%w: '%s'", ErrPublicKeyMissing, vm.ID)
	}

	selected := *vm

	return &selected, nil
}

// Validate checks that every purpose reference dereferences to a verification method and that
// ids are unique.
func (doc *Document) Validate() error {
	if doc.ID == "" {
		return fmt.Errorf("%w: id is missing", ErrInvalidDocument)
	}

	seen := make(map[string]struct{})

	for _, vm := range doc.VerificationMethod {
		id := doc.GetAbsoluteResourceID(normalizeRef(vm.ID))
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: duplicate verification method id '%s'", ErrInvalidDocument, vm.ID)
		}

		seen[id] = struct{}{}
	}

	for _, p := range Purposes() {
		for _, ref := range doc.References(p) {
			if _, ok := doc.FindVerificationMethod(ref); !ok {
				return fmt.Errorf("%w: %s reference '%s' does not match a verification method",
					ErrInvalidDocument, p, ref)
			}
		}
	}

	return nil
}

// Copy returns a deep copy of the document.
func (doc *Document) Copy() *Document {
	c := *doc

	c.Context = append([]interface{}(nil), doc.Context...)
	c.AlsoKnownAs = copyStrings(doc.AlsoKnownAs)
	c.Controller = copyStrings(doc.Controller)
	c.Authentication = copyStrings(doc.Authentication)
	c.AssertionMethod = copyStrings(doc.AssertionMethod)
	c.KeyAgreement = copyStrings(doc.KeyAgreement)
	c.CapabilityInvocation = copyStrings(doc.CapabilityInvocation)
	c.CapabilityDelegation = copyStrings(doc.CapabilityDelegation)

	if doc.VerificationMethod != nil {
		c.VerificationMethod = make([]VerificationMethod, len(doc.VerificationMethod))

		for i, vm := range doc.VerificationMethod {
			if vm.PublicKeyJwk != nil {
				key := *vm.PublicKeyJwk
				vm.PublicKeyJwk = &key
			}

			c.VerificationMethod[i] = vm
		}
	}

	if doc.Service != nil {
		c.Service = make([]Service, len(doc.Service))

		for i, s := range doc.Service {
			s.ServiceEndpoint = copyStrings(s.ServiceEndpoint)
			c.Service[i] = s
		}
	}

	return &c
}

// WithService returns a copy of the document with the service added.
func (doc *Document) WithService(s Service) *Document {
	c := doc.Copy()
	s.ServiceEndpoint = copyStrings(s.ServiceEndpoint)
	c.Service = append(c.Service, s)

	return c
}

// WithoutService returns a copy of the document without the service with the given id.
// Absolute and #fragment ids are equivalent.
func (doc *Document) WithoutService(id string) *Document {
	c := doc.Copy()
	target := doc.GetAbsoluteResourceID(normalizeRef(id))

	var services []Service

	for _, s := range c.Service {
		if doc.GetAbsoluteResourceID(normalizeRef(s.ID)) != target {
			services = append(services, s)
		}
	}

	c.Service = services

	return c
}

// WithoutServices returns a copy of the document with no services.
func (doc *Document) WithoutServices() *Document {
	c := doc.Copy()
	c.Service = nil

	return c
}

// UnmarshalJSON accepts the JSON variants found in the wild: a string or array controller and
// @context, and purpose entries that embed a verification method instead of referencing one.
func (doc *Document) UnmarshalJSON(data []byte) error {
	var raw struct {
		Context              interface{}          `json:"@context"`
		ID                   string               `json:"id"`
		AlsoKnownAs          []string             `json:"alsoKnownAs"`
		Controller           stringOrArray        `json:"controller"`
		VerificationMethod   []VerificationMethod `json:"verificationMethod"`
		Authentication       []json.RawMessage    `json:"authentication"`
		AssertionMethod      []json.RawMessage    `json:"assertionMethod"`
		KeyAgreement         []json.RawMessage    `json:"keyAgreement"`
		CapabilityInvocation []json.RawMessage    `json:"capabilityInvocation"`
		CapabilityDelegation []json.RawMessage    `json:"capabilityDelegation"`
		Service              []Service            `json:"service"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	parsed := Document{
		ID:                 raw.ID,
		AlsoKnownAs:        raw.AlsoKnownAs,
		Controller:         raw.Controller,
		VerificationMethod: raw.VerificationMethod,
		Service:            raw.Service,
	}

	switch ctx := raw.Context.(type) {
	case nil:
	case []interface{}:
		parsed.Context = ctx
	default:
		parsed.Context = []interface{}{ctx}
	}

	entries := map[Purpose][]json.RawMessage{
		Authentication:       raw.Authentication,
		AssertionMethod:      raw.AssertionMethod,
		KeyAgreement:         raw.KeyAgreement,
		CapabilityInvocation: raw.CapabilityInvocation,
		CapabilityDelegation: raw.CapabilityDelegation,
	}

	for _, p := range Purposes() {
		for _, entry := range entries[p] {
			if err := parsed.addPurposeEntry(p, entry); err != nil {
				return err
			}
		}
	}

	*doc = parsed

	return nil
}

func (doc *Document) addPurposeEntry(p Purpose, entry json.RawMessage) error {
	var ref string
	if err := json.Unmarshal(entry, &ref); err == nil {
		refs := doc.references(p)
		*refs = append(*refs, ref)

		return nil
	}

	var vm VerificationMethod
	if err := json.Unmarshal(entry, &vm); err != nil {
		return fmt.Errorf("%w: %s entry: %s", ErrInvalidDocument, p, err.Error())
	}

	if _, ok := doc.FindVerificationMethod(vm.ID); ok {
		refs := doc.references(p)
		*refs = append(*refs, vm.ID)

		return nil
	}

	doc.AddVerificationMethod(vm, p)

	return nil
}

// UnmarshalJSON accepts a single endpoint string, an array, or an endpoint object. Non-string
// values are kept as their JSON text.
func (s *Service) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID              string      `json:"id"`
		Type            interface{} `json:"type"`
		ServiceEndpoint interface{} `json:"serviceEndpoint"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	endpoints, err := toStrings(raw.ServiceEndpoint)
	if err != nil {
		return err
	}

	types, err := toStrings(raw.Type)
	if err != nil {
		return err
	}

	*s = Service{ID: raw.ID, Type: strings.Join(types, ","), ServiceEndpoint: endpoints}

	return nil
}

// MarshalJSON writes a single endpoint as a string.
func (s Service) MarshalJSON() ([]byte, error) {
	var endpoint interface{} = s.ServiceEndpoint
	if len(s.ServiceEndpoint) == 1 {
		endpoint = s.ServiceEndpoint[0]
	}

	return json.Marshal(struct {
		ID              string      `json:"id"`
		Type            string      `json:"type"`
		ServiceEndpoint interface{} `json:"serviceEndpoint"`
	}{ID: s.ID, Type: s.Type, ServiceEndpoint: endpoint})
}

type stringOrArray []string

func (s *stringOrArray) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	values, err := toStrings(v)
	if err != nil {
		return err
	}

	*s = values

	return nil
}

func toStrings(v interface{}) ([]string, error) {
	switch value := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{value}, nil
	case []interface{}:
		var result []string

		for _, e := range value {
			s, err := toStrings(e)
			if err != nil {
				return nil, err
			}

			result = append(result, s...)
		}

		return result, nil
	default:
		b, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}

		return []string{string(b)}, nil
	}
}

func copyStrings(s []string) []string {
	if s == nil {
		return nil
	}

	return append([]string(nil), s...)
}
