/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package operationparser

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/trustbloc/did-core-go/pkg/canonicalizer"
	"github.com/trustbloc/did-core-go/pkg/encoder"
	"github.com/trustbloc/did-core-go/pkg/sidetree/model"
)

const namespaceDelimiter = ":"

// ErrInvalidInitialState is returned when the initial state of a long-form DID
// is not the canonical encoding of its suffix data and delta.
var ErrInvalidInitialState = errors.New("initial state is not valid")

// ParseDID splits uri into its short-form DID and, for a long-form DID, the
// canonical create request carried in its initial state. The create request
// is nil for a short-form DID.
func (p *Parser) ParseDID(namespace, uri string) (string, []byte, error) {
	prefix := namespace + namespaceDelimiter

	rest, ok := strings.CutPrefix(uri, prefix)
	if !ok {
		return "", nil, fmt.Errorf("did must start with namespace %s", namespace)
	}

	if rest == "" {
		return "", nil, errors.New("missing unique suffix")
	}

	suffix, initialState, long := strings.Cut(rest, namespaceDelimiter)
	if !long {
		return uri, nil, nil
	}

	req, err := decodeInitialState(initialState)
	if err != nil {
		return "", nil, err
	}

	createRequest, err := canonicalizer.MarshalCanonical(req)
	if err != nil {
		return "", nil, err
	}

	return prefix + suffix, createRequest, nil
}

func decodeInitialState(initialState string) (*model.CreateRequest, error) {
	raw, err := encoder.DecodeString(initialState)
	if err != nil {
		return nil, fmt.Errorf("decode initial state: %w", err)
	}

	var state model.LongFormInitialState

	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode initial state: %w", err)
	}

	canonical, err := canonicalizer.MarshalCanonical(state)
	if err != nil {
		return nil, err
	}

	if encoder.EncodeToString(canonical) != initialState {
		return nil, ErrInvalidInitialState
	}

	return &model.CreateRequest{
		Operation:  model.OperationTypeCreate,
		SuffixData: state.SuffixData,
		Delta:      state.Delta,
	}, nil
}
