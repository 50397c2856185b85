/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package patch

import (
	"encoding/json"
	"errors"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch"

	"github.com/trustbloc/did-core-go/pkg/canonicalizer"
	"github.com/trustbloc/did-core-go/pkg/sidetree/document"
)

// Action defines action of document patch.
type Action string

const (
	// Replace captures enum value "replace".
	Replace Action = "replace"

	// AddPublicKeys captures enum value "add-public-keys".
	AddPublicKeys Action = "add-public-keys"

	// RemovePublicKeys captures enum value "remove-public-keys".
	RemovePublicKeys Action = "remove-public-keys"

	// AddServiceEndpoints captures "add-services".
	AddServiceEndpoints Action = "add-services"

	// RemoveServiceEndpoints captures "remove-services".
	RemoveServiceEndpoints Action = "remove-services"

	// JSONPatch captures enum value "ietf-json-patch".
	JSONPatch Action = "ietf-json-patch"
)

// Key defines key that will be used to get document patch information.
type Key string

const (
	// DocumentKey captures "document" key.
	DocumentKey Key = "document"

	// PatchesKey captures "patches" key.
	PatchesKey Key = "patches"

	// PublicKeys captures "publicKeys" key.
	PublicKeys Key = "publicKeys"

	// ServicesKey captures "services" key.
	ServicesKey Key = "services"

	// IdsKey captures "ids" key.
	IdsKey Key = "ids"

	// ActionKey captures "action" key.
	ActionKey Key = "action"
)

// Patch defines generic patch structure.
type Patch map[Key]interface{}

// PatchesFromDocument creates the patches that build the document from scratch: a single
// replace patch with the document's public keys and services.
func PatchesFromDocument(doc string) ([]Patch, error) {
	p, err := NewReplacePatch(doc)
	if err != nil {
		return nil, err
	}

	return []Patch{p}, nil
}

// NewReplacePatch creates new replace patch. The document holds only "publicKeys" and
// "services".
func NewReplacePatch(doc string) (Patch, error) {
	parsed, err := document.FromBytes([]byte(doc))
	if err != nil {
		return nil, err
	}

	if err := validateReplaceDocument(parsed); err != nil {
		return nil, err
	}

	patch := make(Patch)
	patch[ActionKey] = Replace
	patch[DocumentKey] = parsed.JSONLdObject()

	return patch, nil
}

// NewJSONPatch creates new generic update patch (will be used for generic updates).
func NewJSONPatch(patches string) (Patch, error) {
	if err := validateJSONPatches([]byte(patches)); err != nil {
		return nil, err
	}

	var generic []interface{}

	err := json.Unmarshal([]byte(patches), &generic)
	if err != nil {
		return nil, err
	}

	patch := make(Patch)
	patch[ActionKey] = JSONPatch
	patch[PatchesKey] = generic

	return patch, nil
}

// NewAddPublicKeysPatch creates new patch for adding public keys.
func NewAddPublicKeysPatch(publicKeys string) (Patch, error) {
	pubKeys, err := getPublicKeys(publicKeys)
	if err != nil {
		return nil, err
	}

	patch := make(Patch)
	patch[ActionKey] = AddPublicKeys
	patch[PublicKeys] = pubKeys

	return patch, nil
}

// NewRemovePublicKeysPatch creates new patch for removing public keys.
func NewRemovePublicKeysPatch(publicKeyIds string) (Patch, error) {
	ids, err := parseIds(publicKeyIds)
	if err != nil {
		return nil, fmt.Errorf("public key ids not string array: %w", err)
	}

	if len(ids) == 0 {
		return nil, errors.New("missing public key ids")
	}

	patch := make(Patch)
	patch[ActionKey] = RemovePublicKeys
	patch[IdsKey] = toInterfaces(ids)

	return patch, nil
}

// NewAddServiceEndpointsPatch creates new patch for adding service endpoints.
func NewAddServiceEndpointsPatch(serviceEndpoints string) (Patch, error) {
	services, err := getServices(serviceEndpoints)
	if err != nil {
		return nil, err
	}

	patch := make(Patch)
	patch[ActionKey] = AddServiceEndpoints
	patch[ServicesKey] = services

	return patch, nil
}

// NewRemoveServiceEndpointsPatch creates new patch for removing service endpoints.
func NewRemoveServiceEndpointsPatch(serviceEndpointIds string) (Patch, error) {
	ids, err := parseIds(serviceEndpointIds)
	if err != nil {
		return nil, fmt.Errorf("service ids not string array: %w", err)
	}

	if len(ids) == 0 {
		return nil, errors.New("missing service ids")
	}

	patch := make(Patch)
	patch[ActionKey] = RemoveServiceEndpoints
	patch[IdsKey] = toInterfaces(ids)

	return patch, nil
}

// GetValue returns value for specified key or nil if not found.
func (p Patch) GetValue(key Key) interface{} {
	return p[key]
}

// GetAction returns the patch action, or "" if it is missing or not a string.
func (p Patch) GetAction() Action {
	switch action := p[ActionKey].(type) {
	case string:
		return Action(action)
	case Action:
		return action
	default:
		return ""
	}
}

// Bytes returns byte representation of patch.
func (p Patch) Bytes() ([]byte, error) {
	return canonicalizer.MarshalCanonical(p)
}

// Validate validates patch.
func (p Patch) Validate() error {
	entry := p.GetValue(ActionKey)
	if entry == nil {
		return errors.New("patch is missing action property")
	}

	if _, ok := entry.(string); !ok {
		if _, ok := entry.(Action); !ok {
			return errors.New("action is not string value")
		}
	}

	action := p.GetAction()

	switch action {
	case Replace:
		doc, err := p.getRequiredMap(DocumentKey)
		if err != nil {
			return err
		}

		return validateReplaceDocument(document.FromJSONLDObject(doc))
	case JSONPatch:
		return p.validateJSONPatch()
	case AddPublicKeys:
		return p.validateAddPublicKeys()
	case RemovePublicKeys, RemoveServiceEndpoints:
		_, err := p.getRequiredStringArray(IdsKey)

		return err
	case AddServiceEndpoints:
		return p.validateAddServices()
	}

	return fmt.Errorf("action '%s' is not supported", action)
}

// GetPublicKeys returns the public keys carried by an add-public-keys patch.
func (p Patch) GetPublicKeys() []document.PublicKey {
	return document.ParsePublicKeys(p[PublicKeys])
}

// GetServices returns the services carried by an add-services patch.
func (p Patch) GetServices() []document.Service {
	return document.ParseServices(p[ServicesKey])
}

// GetIDs returns the ids carried by a remove patch.
func (p Patch) GetIDs() []string {
	return document.StringArray(p[IdsKey])
}

// GetDocument returns the document carried by a replace patch.
func (p Patch) GetDocument() document.Document {
	doc, ok := p[DocumentKey].(map[string]interface{})
	if !ok {
		return nil
	}

	return document.FromJSONLDObject(doc)
}

// JSONLdObject returns map that represents JSON LD Object.
func (p Patch) JSONLdObject() map[Key]interface{} {
	return p
}

// FromBytes parses provided data into document patch.
func FromBytes(data []byte) (Patch, error) {
	patch := make(Patch)

	err := json.Unmarshal(data, &patch)
	if err != nil {
		return nil, err
	}

	if err := patch.Validate(); err != nil {
		return nil, err
	}

	return patch, nil
}

func (p Patch) validateJSONPatch() error {
	patches, err := p.getRequiredArray(PatchesKey)
	if err != nil {
		return err
	}

	patchesBytes, err := json.Marshal(patches)
	if err != nil {
		return err
	}

	return validateJSONPatches(patchesBytes)
}

func (p Patch) validateAddPublicKeys() error {
	if _, err := p.getRequiredArray(PublicKeys); err != nil {
		return err
	}

	return document.ValidatePublicKeys(p.GetPublicKeys())
}

func (p Patch) validateAddServices() error {
	if _, err := p.getRequiredArray(ServicesKey); err != nil {
		return err
	}

	return document.ValidateServices(p.GetServices())
}

func (p Patch) getRequiredMap(key Key) (map[string]interface{}, error) {
	entry := p.GetValue(key)
	if entry == nil {
		return nil, fmt.Errorf("%s patch is missing %s", p.GetAction(), key)
	}

	m, ok := entry.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%s patch: %s is not an object", p.GetAction(), key)
	}

	return m, nil
}

func (p Patch) getRequiredArray(key Key) ([]interface{}, error) {
	entry := p.GetValue(key)
	if entry == nil {
		return nil, fmt.Errorf("%s patch is missing %s", p.GetAction(), key)
	}

	arr, ok := entry.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%s patch: %s is not an array", p.GetAction(), key)
	}

	return arr, nil
}

func (p Patch) getRequiredStringArray(key Key) ([]string, error) {
	arr, err := p.getRequiredArray(key)
	if err != nil {
		return nil, err
	}

	values := document.StringArray(arr)
	if len(values) != len(arr) {
		return nil, fmt.Errorf("%s patch: %s must contain strings", p.GetAction(), key)
	}

	return values, nil
}

func validateReplaceDocument(doc document.Document) error {
	allowed := map[string]bool{
		document.PublicKeyProperty: true,
		document.ServiceProperty:   true,
	}

	for key := range doc {
		if !allowed[key] {
			return fmt.Errorf("key '%s' is not allowed in replace document", key)
		}
	}

	if err := document.ValidatePublicKeys(doc.PublicKeys()); err != nil {
		return err
	}

	return document.ValidateServices(doc.Services())
}

func validateJSONPatches(patches []byte) error {
	_, err := jsonpatch.DecodePatch(patches)

	return err
}

func getPublicKeys(publicKeys string) ([]interface{}, error) {
	var keys []interface{}

	err := json.Unmarshal([]byte(publicKeys), &keys)
	if err != nil {
		return nil, fmt.Errorf("public keys invalid: %w", err)
	}

	if err := document.ValidatePublicKeys(document.ParsePublicKeys(keys)); err != nil {
		return nil, err
	}

	return keys, nil
}

func getServices(serviceEndpoints string) ([]interface{}, error) {
	var services []interface{}

	err := json.Unmarshal([]byte(serviceEndpoints), &services)
	if err != nil {
		return nil, fmt.Errorf("services invalid: %w", err)
	}

	if err := document.ValidateServices(document.ParseServices(services)); err != nil {
		return nil, err
	}

	return services, nil
}

func parseIds(ids string) ([]string, error) {
	var values []string

	err := json.Unmarshal([]byte(ids), &values)
	if err != nil {
		return nil, err
	}

	return values, nil
}

func toInterfaces(values []string) []interface{} {
	result := make([]interface{}, len(values))
	for i, v := range values {
		result[i] = v
	}

	return result
}
