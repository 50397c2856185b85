/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package canonicalizer encodes values with the JSON Canonicalization Scheme (RFC 8785).
package canonicalizer

import (
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// MarshalCanonical returns the JCS encoding of value. A []byte value is
// taken to be JSON text already.
func MarshalCanonical(value interface{}) ([]byte, error) {
	raw, isJSON := value.([]byte)
	if !isJSON {
		b, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}

		raw = b
	}

	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalize json: %w", err)
	}

	return canonical, nil
}
