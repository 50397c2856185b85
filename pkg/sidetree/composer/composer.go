/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package composer

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/pkg/errors"

	"github.com/trustbloc/did-core-go/pkg/internal/log"
	"github.com/trustbloc/did-core-go/pkg/sidetree/document"
	"github.com/trustbloc/did-core-go/pkg/sidetree/patch"
)

var logger = log.New("did-core-composer")

// ApplyPatches applies patches to a copy of the document. A nil document is treated as empty.
func ApplyPatches(original document.Document, patches []patch.Patch) (document.Document, error) {
	doc := make(document.Document, len(original))
	for k, v := range original {
		doc[k] = v
	}

	var err error

	for _, p := range patches {
		doc, err = applyPatch(doc, p)
		if err != nil {
			return nil, err
		}
	}

	return doc, nil
}

func applyPatch(doc document.Document, p patch.Patch) (document.Document, error) {
	action := p.GetAction()

	logger.Debug("Applying patch", log.WithPatch(p))

	switch action {
	case patch.Replace:
		return applyReplace(p)
	case patch.JSONPatch:
		return applyJSON(doc, p)
	case patch.AddPublicKeys:
		return applyAddPublicKeys(doc, p.GetPublicKeys()), nil
	case patch.RemovePublicKeys:
		return applyRemovePublicKeys(doc, p.GetIDs()), nil
	case patch.AddServiceEndpoints:
		return applyAddServiceEndpoints(doc, p.GetServices()), nil
	case patch.RemoveServiceEndpoints:
		return applyRemoveServiceEndpoints(doc, p.GetIDs()), nil
	}

	return nil, fmt.Errorf("action '%s' is not supported", action)
}

func applyReplace(p patch.Patch) (document.Document, error) {
	replaced := p.GetDocument()
	if replaced == nil {
		return nil, errors.Errorf("%s patch is missing document", patch.Replace)
	}

	// the patch owns its document; copy so later patches do not modify it
	b, err := json.Marshal(replaced)
	if err != nil {
		return nil, err
	}

	return document.FromBytes(b)
}

func applyJSON(doc document.Document, p patch.Patch) (document.Document, error) {
	patchesBytes, err := json.Marshal(p.GetValue(patch.PatchesKey))
	if err != nil {
		return nil, err
	}

	jsonPatches, err := jsonpatch.DecodePatch(patchesBytes)
	if err != nil {
		return nil, errors.Wrap(err, "decode json patches")
	}

	docBytes, err := doc.Bytes()
	if err != nil {
		return nil, err
	}

	docBytes, err = jsonPatches.Apply(docBytes)
	if err != nil {
		return nil, errors.Wrap(err, "apply json patches")
	}

	return document.FromBytes(docBytes)
}

// adds public keys to document; a key with an existing id replaces the existing key in place.
func applyAddPublicKeys(doc document.Document, publicKeys []document.PublicKey) document.Document {
	var entries []entry

	for _, pk := range doc.PublicKeys() {
		entries = append(entries, entry{id: pk.ID(), value: pk.JSONLdObject()})
	}

	for _, pk := range publicKeys {
		entries = upsert(entries, entry{id: pk.ID(), value: pk.JSONLdObject()})
	}

	doc[document.PublicKeyProperty] = values(entries)

	return doc
}

func applyRemovePublicKeys(doc document.Document, ids []string) document.Document {
	var entries []entry

	for _, pk := range doc.PublicKeys() {
		entries = append(entries, entry{id: pk.ID(), value: pk.JSONLdObject()})
	}

	doc[document.PublicKeyProperty] = values(remove(entries, ids))

	return doc
}

// adds service endpoints to document; a service with an existing id replaces the existing one in place.
func applyAddServiceEndpoints(doc document.Document, services []document.Service) document.Document {
	var entries []entry

	for _, svc := range doc.Services() {
		entries = append(entries, entry{id: svc.ID(), value: svc.JSONLdObject()})
	}

	for _, svc := range services {
		entries = upsert(entries, entry{id: svc.ID(), value: svc.JSONLdObject()})
	}

	doc[document.ServiceProperty] = values(entries)

	return doc
}

func applyRemoveServiceEndpoints(doc document.Document, ids []string) document.Document {
	var entries []entry

	for _, svc := range doc.Services() {
		entries = append(entries, entry{id: svc.ID(), value: svc.JSONLdObject()})
	}

	doc[document.ServiceProperty] = values(remove(entries, ids))

	return doc
}

type entry struct {
	id    string
	value map[string]interface{}
}

func upsert(entries []entry, e entry) []entry {
	for i := range entries {
		if entries[i].id == e.id {
			entries[i] = e

			return entries
		}
	}

	return append(entries, e)
}

func remove(entries []entry, ids []string) []entry {
	toRemove := make(map[string]bool, len(ids))
	for _, id := range ids {
		toRemove[id] = true
	}

	var result []entry

	for _, e := range entries {
		if !toRemove[e.id] {
			result = append(result, e)
		}
	}

	return result
}

func values(entries []entry) []interface{} {
	result := make([]interface{}, 0, len(entries))
	for _, e := range entries {
		result = append(result, e.value)
	}

	return result
}
