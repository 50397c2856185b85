/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package operationparser

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/trustbloc/did-core-go/pkg/hashing"
	"github.com/trustbloc/did-core-go/pkg/sidetree/model"
	"github.com/trustbloc/did-core-go/pkg/sidetree/patch"
)

// ParseCreateOperation validates a create request and derives its unique suffix.
func (p *Parser) ParseCreateOperation(request []byte) (*model.Operation, error) {
	var req model.CreateRequest

	if err := json.Unmarshal(request, &req); err != nil {
		return nil, fmt.Errorf("decode create request: %w", err)
	}

	switch {
	case req.Delta == nil:
		return nil, errors.New("missing delta")
	case req.SuffixData == nil:
		return nil, errors.New("missing suffix data")
	}

	if err := p.ValidateSuffixData(req.SuffixData); err != nil {
		return nil, err
	}

	if err := p.ValidateDelta(req.Delta); err != nil {
		return nil, err
	}

	if err := hashing.IsValidModelMultihash(req.Delta, req.SuffixData.DeltaHash); err != nil {
		return nil, fmt.Errorf("delta hash in suffix data does not match delta: %w", err)
	}

	if req.Delta.UpdateCommitment == req.SuffixData.RecoveryCommitment {
		return nil, fmt.Errorf("update and recovery commitments are equal: %w", ErrCommitmentReuse)
	}

	suffix, err := model.GetUniqueSuffix(req.SuffixData, p.multihashCode)
	if err != nil {
		return nil, err
	}

	return &model.Operation{
		Type:            model.OperationTypeCreate,
		OperationBuffer: request,
		UniqueSuffix:    suffix,
		SuffixData:      req.SuffixData,
		Delta:           req.Delta,
	}, nil
}

// ValidateDelta checks that delta carries valid patches and an update commitment.
func (p *Parser) ValidateDelta(delta *model.DeltaModel) error {
	if delta == nil {
		return errors.New("missing delta")
	}

	if len(delta.Patches) == 0 {
		return errors.New("missing patches")
	}

	for _, ptch := range delta.Patches {
		action := ptch.GetAction()
		if action == patch.Replace && !p.enableReplacePatch {
			return fmt.Errorf("%s patch action is not enabled", action)
		}

		if err := ptch.Validate(); err != nil {
			return err
		}
	}

	return p.requireMultihash(delta.UpdateCommitment, "update commitment")
}

// ValidateSuffixData checks the recovery commitment and delta hash encodings.
func (p *Parser) ValidateSuffixData(suffixData *model.SuffixDataModel) error {
	if suffixData == nil {
		return errors.New("missing suffix data")
	}

	if err := p.requireMultihash(suffixData.RecoveryCommitment, "recovery commitment"); err != nil {
		return err
	}

	return p.requireMultihash(suffixData.DeltaHash, "delta hash")
}
