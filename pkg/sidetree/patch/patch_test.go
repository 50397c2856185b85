/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package patch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromBytes(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		patch, err := FromBytes([]byte(replacePatch))
		require.NoError(t, err)
		require.NotNil(t, patch)
		require.Equal(t, Replace, patch.GetAction())

		bytes, err := patch.Bytes()
		require.NoError(t, err)
		require.Equal(t, `{"action":"replace","document":{"publicKeys":[{"id":"key1","publicKeyJwk":`+
			`{"crv":"secp256k1","kty":"EC","x":"PUymIqdtF_qxaAqPABSw-C-owT1KYYQbsMKFM-L9fJA",`+
			`"y":"nM84jDHCMOTGTh_ZdHq4dBBdo4Z5PkEOW9jA8z8IsGc"},"purposes":["authentication"],`+
			`"type":"EcdsaSecp256k1VerificationKey2019"}]}}`, string(bytes))

		require.NotNil(t, patch.JSONLdObject())
		require.Len(t, patch.GetDocument().PublicKeys(), 1)
	})

	t.Run("parse error - invalid character", func(t *testing.T) {
		patch, err := FromBytes([]byte("[test : 123]"))
		require.Error(t, err)
		require.Nil(t, patch)
		require.Contains(t, err.Error(), "invalid character")
	})
}

func TestActionValidation(t *testing.T) {
	t.Run("missing action", func(t *testing.T) {
		patch, err := FromBytes([]byte(`{}`))
		require.Error(t, err)
		require.Nil(t, patch)
		require.Contains(t, err.Error(), "patch is missing action property")
	})

	t.Run("action is not string", func(t *testing.T) {
		patch, err := FromBytes([]byte(`{"action": 10}`))
		require.Error(t, err)
		require.Nil(t, patch)
		require.Contains(t, err.Error(), "action is not string value")
		require.Equal(t, Action(""), Patch{ActionKey: 10}.GetAction())
	})

	t.Run("action not supported", func(t *testing.T) {
		patch, err := FromBytes([]byte(`{"action": "invalid"}`))
		require.Error(t, err)
		require.Nil(t, patch)
		require.Equal(t, "action 'invalid' is not supported", err.Error())
	})
}

func TestReplacePatch(t *testing.T) {
	t.Run("missing document", func(t *testing.T) {
		patch, err := FromBytes([]byte(`{"action": "replace"}`))
		require.Error(t, err)
		require.Nil(t, patch)
		require.Contains(t, err.Error(), "replace patch is missing document")
	})

	t.Run("success from new", func(t *testing.T) {
		p, err := NewReplacePatch(replaceDoc)
		require.NoError(t, err)
		require.NoError(t, p.Validate())
		require.Equal(t, Replace, p.GetAction())

		patches, err := PatchesFromDocument(replaceDoc)
		require.NoError(t, err)
		require.Len(t, patches, 1)
		require.Equal(t, p, patches[0])
	})

	t.Run("error - document has id", func(t *testing.T) {
		p, err := NewReplacePatch(`{"id": "did:ion:abc"}`)
		require.Error(t, err)
		require.Nil(t, p)
		require.Contains(t, err.Error(), "key 'id' is not allowed in replace document")
	})

	t.Run("error - invalid public key", func(t *testing.T) {
		p, err := NewReplacePatch(`{"publicKeys": [{"id": "key1", "type": "T"}]}`)
		require.Error(t, err)
		require.Nil(t, p)
		require.Contains(t, err.Error(), "missing publicKeyJwk")
	})

	t.Run("error - invalid json", func(t *testing.T) {
		_, err := NewReplacePatch(`{`)
		require.Error(t, err)
	})
}

func TestAddPublicKeysPatch(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		p, err := NewAddPublicKeysPatch(publicKeys)
		require.NoError(t, err)
		require.Equal(t, AddPublicKeys, p.GetAction())
		require.Len(t, p.GetPublicKeys(), 1)
		require.NoError(t, p.Validate())

		parsed, err := FromBytes([]byte(`{"action": "add-public-keys", "publicKeys": ` + publicKeys + `}`))
		require.NoError(t, err)
		require.Equal(t, "key1", parsed.GetPublicKeys()[0].ID())
	})

	t.Run("errors", func(t *testing.T) {
		_, err := NewAddPublicKeysPatch(`{}`)
		require.Error(t, err)
		require.Contains(t, err.Error(), "public keys invalid")

		_, err = NewAddPublicKeysPatch(`[{"id": "key1"}]`)
		require.Error(t, err)

		_, err = FromBytes([]byte(`{"action": "add-public-keys"}`))
		require.Error(t, err)
		require.Contains(t, err.Error(), "add-public-keys patch is missing publicKeys")

		_, err = FromBytes([]byte(`{"action": "add-public-keys", "publicKeys": "key"}`))
		require.Error(t, err)
		require.Contains(t, err.Error(), "is not an array")
	})
}

func TestRemovePatches(t *testing.T) {
	t.Run("public keys", func(t *testing.T) {
		p, err := NewRemovePublicKeysPatch(`["key1", "key2"]`)
		require.NoError(t, err)
		require.Equal(t, RemovePublicKeys, p.GetAction())
		require.Equal(t, []string{"key1", "key2"}, p.GetIDs())
		require.NoError(t, p.Validate())

		_, err = NewRemovePublicKeysPatch(`[]`)
		require.Error(t, err)
		require.Contains(t, err.Error(), "missing public key ids")

		_, err = NewRemovePublicKeysPatch(`[1]`)
		require.Error(t, err)
		require.Contains(t, err.Error(), "public key ids not string array")
	})

	t.Run("services", func(t *testing.T) {
		p, err := NewRemoveServiceEndpointsPatch(`["svc1"]`)
		require.NoError(t, err)
		require.Equal(t, RemoveServiceEndpoints, p.GetAction())
		require.Equal(t, []string{"svc1"}, p.GetIDs())

		_, err = NewRemoveServiceEndpointsPatch(`[]`)
		require.Error(t, err)
		require.Contains(t, err.Error(), "missing service ids")

		_, err = NewRemoveServiceEndpointsPatch(`"svc1"`)
		require.Error(t, err)
		require.Contains(t, err.Error(), "service ids not string array")

		_, err = FromBytes([]byte(`{"action": "remove-services", "ids": [1]}`))
		require.Error(t, err)
		require.Contains(t, err.Error(), "must contain strings")
	})
}

func TestAddServiceEndpointsPatch(t *testing.T) {
	p, err := NewAddServiceEndpointsPatch(services)
	require.NoError(t, err)
	require.Equal(t, AddServiceEndpoints, p.GetAction())
	require.Len(t, p.GetServices(), 1)
	require.NoError(t, p.Validate())

	_, err = NewAddServiceEndpointsPatch(`[{"id": "svc1", "type": "T"}]`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "service endpoint is missing")

	_, err = NewAddServiceEndpointsPatch(`{`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "services invalid")

	_, err = FromBytes([]byte(`{"action": "add-services"}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "add-services patch is missing services")
}

func TestJSONPatch(t *testing.T) {
	p, err := NewJSONPatch(jsonPatches)
	require.NoError(t, err)
	require.Equal(t, JSONPatch, p.GetAction())
	require.NoError(t, p.Validate())

	_, err = NewJSONPatch(`{}`)
	require.Error(t, err)

	_, err = FromBytes([]byte(`{"action": "ietf-json-patch"}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "ietf-json-patch patch is missing patches")
}

const publicKeys = `[{
	"id": "key1",
	"type": "JsonWebKey2020",
	"purposes": ["authentication"],
	"publicKeyJwk": {
		"kty": "OKP",
		"crv": "Ed25519",
		"x": "11qYAYKxCrfVS_7TyWQHOg7hcvPapiMlrwIaaPcHURo"
	}
}]`

const services = `[{
	"id": "svc1",
	"type": "LinkedDomains",
	"serviceEndpoint": "https://example.com"
}]`

const replaceDoc = `{
	"publicKeys": ` + publicKeys + `,
	"services": ` + services + `
}`

const replacePatch = `{
	"action": "replace",
	"document": {
		"publicKeys": [{
			"id": "key1",
			"type": "EcdsaSecp256k1VerificationKey2019",
			"purposes": ["authentication"],
			"publicKeyJwk": {
				"kty": "EC",
				"crv": "secp256k1",
				"x": "PUymIqdtF_qxaAqPABSw-C-owT1KYYQbsMKFM-L9fJA",
				"y": "nM84jDHCMOTGTh_ZdHq4dBBdo4Z5PkEOW9jA8z8IsGc"
			}
		}]
	}
}`

const jsonPatches = `[{"op": "replace", "path": "/name", "value": "value"}]`
