/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package canonicalizer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical(t *testing.T) {
	const sorted = `{"crv":"Ed25519","kty":"OKP","x":"11qYAYKxCrfVS_7TyWQHOg7hcvPapiMlrwIaaPcHURo"}`

	t.Run("struct keys are sorted", func(t *testing.T) {
		key := struct {
			X   string `json:"x"`
			Kty string `json:"kty"`
			Crv string `json:"crv"`
		}{X: "11qYAYKxCrfVS_7TyWQHOg7hcvPapiMlrwIaaPcHURo", Kty: "OKP", Crv: "Ed25519"}

		result, err := MarshalCanonical(key)
		require.NoError(t, err)
		require.Equal(t, sorted, string(result))
	})

	t.Run("json bytes are re-encoded", func(t *testing.T) {
		result, err := MarshalCanonical([]byte(`{ "x": "11qYAYKxCrfVS_7TyWQHOg7hcvPapiMlrwIaaPcHURo",
			"kty": "OKP", "crv": "Ed25519" }`))
		require.NoError(t, err)
		require.Equal(t, sorted, string(result))
	})

	t.Run("nested values and numbers", func(t *testing.T) {
		result, err := MarshalCanonical(map[string]interface{}{
			"z": []interface{}{3.0, "b", true},
			"a": map[string]interface{}{"y": 1e21, "x": 0.5},
		})
		require.NoError(t, err)
		require.Equal(t, `{"a":{"x":0.5,"y":1e+21},"z":[3,"b",true]}`, string(result))
	})

	t.Run("invalid json bytes", func(t *testing.T) {
		result, err := MarshalCanonical([]byte(`{"a":`))
		require.ErrorContains(t, err, "canonicalize json")
		require.Nil(t, result)
	})

	t.Run("unsupported type", func(t *testing.T) {
		result, err := MarshalCanonical(make(chan int))
		require.ErrorContains(t, err, "unsupported type")
		require.Nil(t, result)
	})
}
