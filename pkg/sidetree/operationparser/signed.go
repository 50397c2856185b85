/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package operationparser

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/trustbloc/did-core-go/pkg/commitment"
	"github.com/trustbloc/did-core-go/pkg/hashing"
	"github.com/trustbloc/did-core-go/pkg/jwk"
	"github.com/trustbloc/did-core-go/pkg/jws"
	"github.com/trustbloc/did-core-go/pkg/sidetree/model"
)

// ParseUpdateOperation validates an update request. The signature itself is
// checked when the operation is applied.
func (p *Parser) ParseUpdateOperation(request []byte) (*model.Operation, error) {
	var req model.UpdateRequest

	if err := json.Unmarshal(request, &req); err != nil {
		return nil, fmt.Errorf("decode update request: %w", err)
	}

	if err := p.checkRevealRequest(req.DidSuffix, req.SignedData, req.RevealValue); err != nil {
		return nil, err
	}

	signed, err := p.ParseSignedDataForUpdate(req.SignedData)
	if err != nil {
		return nil, err
	}

	if err := p.ValidateDelta(req.Delta); err != nil {
		return nil, err
	}

	if err := checkNotCommittedTo(signed.UpdateKey, req.Delta.UpdateCommitment); err != nil {
		return nil, err
	}

	if err := hashing.IsValidModelMultihash(signed.UpdateKey, req.RevealValue); err != nil {
		return nil, fmt.Errorf("update key does not match reveal value: %w", err)
	}

	return &model.Operation{
		Type:            model.OperationTypeUpdate,
		OperationBuffer: request,
		UniqueSuffix:    req.DidSuffix,
		Delta:           req.Delta,
		SignedData:      req.SignedData,
		RevealValue:     req.RevealValue,
	}, nil
}

// ParseRecoverOperation validates a recover request.
func (p *Parser) ParseRecoverOperation(request []byte) (*model.Operation, error) {
	var req model.RecoverRequest

	if err := json.Unmarshal(request, &req); err != nil {
		return nil, fmt.Errorf("decode recover request: %w", err)
	}

	if err := p.checkRevealRequest(req.DidSuffix, req.SignedData, req.RevealValue); err != nil {
		return nil, err
	}

	signed, err := p.ParseSignedDataForRecover(req.SignedData)
	if err != nil {
		return nil, err
	}

	if err := p.ValidateDelta(req.Delta); err != nil {
		return nil, err
	}

	if req.Delta.UpdateCommitment == signed.RecoveryCommitment {
		return nil, fmt.Errorf("update and recovery commitments are equal: %w", ErrCommitmentReuse)
	}

	if err := hashing.IsValidModelMultihash(signed.RecoveryKey, req.RevealValue); err != nil {
		return nil, fmt.Errorf("recovery key does not match reveal value: %w", err)
	}

	return &model.Operation{
		Type:            model.OperationTypeRecover,
		OperationBuffer: request,
		UniqueSuffix:    req.DidSuffix,
		Delta:           req.Delta,
		SignedData:      req.SignedData,
		RevealValue:     req.RevealValue,
	}, nil
}

// ParseDeactivateOperation validates a deactivate request.
func (p *Parser) ParseDeactivateOperation(request []byte) (*model.Operation, error) {
	var req model.DeactivateRequest

	if err := json.Unmarshal(request, &req); err != nil {
		return nil, fmt.Errorf("decode deactivate request: %w", err)
	}

	if err := p.checkRevealRequest(req.DidSuffix, req.SignedData, req.RevealValue); err != nil {
		return nil, err
	}

	signed, err := p.ParseSignedDataForDeactivate(req.SignedData)
	if err != nil {
		return nil, err
	}

	if signed.DidSuffix != req.DidSuffix {
		return nil, errors.New("signed did suffix does not match request did suffix")
	}

	if err := hashing.IsValidModelMultihash(signed.RecoveryKey, req.RevealValue); err != nil {
		return nil, fmt.Errorf("recovery key does not match reveal value: %w", err)
	}

	return &model.Operation{
		Type:            model.OperationTypeDeactivate,
		OperationBuffer: request,
		UniqueSuffix:    req.DidSuffix,
		SignedData:      req.SignedData,
		RevealValue:     req.RevealValue,
	}, nil
}

// ParseSignedDataForUpdate decodes and checks the signed data of an update.
func (p *Parser) ParseSignedDataForUpdate(compactJWS string) (*model.UpdateSignedDataModel, error) {
	signed, err := decodeSignedData[model.UpdateSignedDataModel](p, compactJWS)
	if err != nil {
		return nil, err
	}

	if err := p.checkOperationKey(signed.UpdateKey); err != nil {
		return nil, fmt.Errorf("update key: %w", err)
	}

	if err := p.requireMultihash(signed.DeltaHash, "delta hash"); err != nil {
		return nil, err
	}

	return signed, nil
}

// ParseSignedDataForRecover decodes and checks the signed data of a recovery.
func (p *Parser) ParseSignedDataForRecover(compactJWS string) (*model.RecoverSignedDataModel, error) {
	signed, err := decodeSignedData[model.RecoverSignedDataModel](p, compactJWS)
	if err != nil {
		return nil, err
	}

	if err := p.checkOperationKey(signed.RecoveryKey); err != nil {
		return nil, fmt.Errorf("recovery key: %w", err)
	}

	if err := p.requireMultihash(signed.RecoveryCommitment, "recovery commitment"); err != nil {
		return nil, err
	}

	if err := p.requireMultihash(signed.DeltaHash, "delta hash"); err != nil {
		return nil, err
	}

	if err := checkNotCommittedTo(signed.RecoveryKey, signed.RecoveryCommitment); err != nil {
		return nil, err
	}

	return signed, nil
}

// ParseSignedDataForDeactivate decodes and checks the signed data of a deactivation.
func (p *Parser) ParseSignedDataForDeactivate(compactJWS string) (*model.DeactivateSignedDataModel, error) {
	signed, err := decodeSignedData[model.DeactivateSignedDataModel](p, compactJWS)
	if err != nil {
		return nil, err
	}

	if err := p.checkOperationKey(signed.RecoveryKey); err != nil {
		return nil, fmt.Errorf("recovery key: %w", err)
	}

	return signed, nil
}

func (p *Parser) checkRevealRequest(suffix, signedData, revealValue string) error {
	if suffix == "" {
		return errors.New("missing did suffix")
	}

	if signedData == "" {
		return errors.New("missing signed data")
	}

	return p.requireMultihash(revealValue, "reveal value")
}

// decodeSignedData parses the compact JWS and unmarshals its payload into T.
// Only "alg" and "kid" may appear in the protected header.
func decodeSignedData[T any](p *Parser, compactJWS string) (*T, error) {
	if compactJWS == "" {
		return nil, errors.New("missing signed data")
	}

	parsed, err := jws.ParseJWS(compactJWS)
	if err != nil {
		return nil, fmt.Errorf("parse signed data: %w", err)
	}

	if err := p.checkProtectedHeaders(parsed.ProtectedHeaders); err != nil {
		return nil, fmt.Errorf("parse signed data: %w", err)
	}

	var payload T

	if err := json.Unmarshal(parsed.Payload, &payload); err != nil {
		return nil, fmt.Errorf("decode signed data payload: %w", err)
	}

	return &payload, nil
}

func (p *Parser) checkProtectedHeaders(headers jws.Headers) error {
	if headers == nil {
		return errors.New("missing protected headers")
	}

	for name := range headers {
		if name != jws.HeaderAlgorithm && name != jws.HeaderKeyID {
			return fmt.Errorf("protected header %q is not allowed", name)
		}
	}

	alg, ok := headers.Algorithm()
	if !ok || alg == "" {
		return errors.New("protected header must carry an algorithm")
	}

	if !slices.Contains(p.signatureAlgorithms, alg) {
		return fmt.Errorf("signature algorithm %q is not allowed", alg)
	}

	return nil
}

func (p *Parser) checkOperationKey(key *jwk.JWK) error {
	if key == nil {
		return errors.New("missing public key")
	}

	if err := key.Validate(); err != nil {
		return err
	}

	if key.IsPrivate() {
		return errors.New("must not contain private key material")
	}

	if !slices.Contains(p.keyAlgorithms, key.Crv) {
		return fmt.Errorf("key curve %q is not allowed", key.Crv)
	}

	return nil
}

// checkNotCommittedTo fails when next is the commitment of key, which would
// let the next operation reveal the same key again.
func checkNotCommittedTo(key *jwk.JWK, next string) error {
	code, err := hashing.GetMultihashCode(next)
	if err != nil {
		return err
	}

	current, err := commitment.GetCommitment(key, uint(code))
	if err != nil {
		return fmt.Errorf("compute commitment: %w", err)
	}

	if current == next {
		return ErrCommitmentReuse
	}

	return nil
}
