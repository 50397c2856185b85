/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package vdr

import (
	"github.com/trustbloc/did-core-go/pkg/vdr/dht"
	"github.com/trustbloc/did-core-go/pkg/vdr/ion"
	"github.com/trustbloc/did-core-go/pkg/vdr/key"
)

// NewDefault returns a registry resolving did:key, did:ion and did:dht with their default endpoints.
// Methods passed in opts are registered ahead of the defaults, so they can replace them.
func NewDefault(opts ...Option) *Registry {
	return New(append(opts,
		WithMethod(key.New()),
		WithMethod(ion.New()),
		WithMethod(dht.New()),
	)...)
}
