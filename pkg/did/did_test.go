/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("bare DID", func(t *testing.T) {
		d, err := Parse("did:key:z6MkhaXgBZDvotDkL5257faiztiGiC2QtKLGpbnnEGta2doK")
		require.NoError(t, err)
		require.Equal(t, "key", d.Method)
		require.Equal(t, "z6MkhaXgBZDvotDkL5257faiztiGiC2QtKLGpbnnEGta2doK", d.ID)
		require.Equal(t, "did:key:z6MkhaXgBZDvotDkL5257faiztiGiC2QtKLGpbnnEGta2doK", d.String())
		require.False(t, d.IsURL())
	})

	t.Run("long form ion DID with colons", func(t *testing.T) {
		d, err := Parse("did:ion:EiA1:eyJkZWx0YSI6e30")
		require.NoError(t, err)
		require.Equal(t, "ion", d.Method)
		require.Equal(t, "EiA1:eyJkZWx0YSI6e30", d.ID)
	})

	t.Run("DID URL", func(t *testing.T) {
		d, err := Parse("did:example:123;service=agent;relativeRef=%2Fpath/some/path?versionId=1#key-1")
		require.NoError(t, err)
		require.Equal(t, "did:example:123", d.URI)
		require.Equal(t, map[string]string{"service": "agent", "relativeRef": "%2Fpath"}, d.Params)
		require.Equal(t, "/some/path", d.Path)
		require.Equal(t, "versionId=1", d.Query)
		require.Equal(t, "key-1", d.Fragment)
		require.True(t, d.IsURL())
	})

	t.Run("fragment only", func(t *testing.T) {
		d, err := Parse("did:dht:i9xkp8ddcbcg8jwq54ox699wuzxyifsqx4jru45zodqu453ksz6y#0")
		require.NoError(t, err)
		require.Equal(t, "0", d.Fragment)
		require.Equal(t, "did:dht:i9xkp8ddcbcg8jwq54ox699wuzxyifsqx4jru45zodqu453ksz6y", d.URI)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := Parse("dud:key:abc")
		require.True(t, errors.Is(err, ErrInvalidScheme))

		_, err = Parse("did:KEY:abc")
		require.True(t, errors.Is(err, ErrInvalidMethod))

		_, err = Parse("did:key")
		require.True(t, errors.Is(err, ErrInvalidMethod))

		_, err = Parse("did:key:")
		require.True(t, errors.Is(err, ErrInvalidID))

		_, err = Parse("did:key:abc:")
		require.True(t, errors.Is(err, ErrInvalidID))

		_, err = Parse("did:key:a b")
		require.True(t, errors.Is(err, ErrInvalidID))

		_, err = Parse("did:key:abc;noequals")
		require.True(t, errors.Is(err, ErrInvalidID))
	})
}
