/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package operationapplier replays Sidetree operations into document state.
package operationapplier

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/trustbloc/did-core-go/pkg/commitment"
	"github.com/trustbloc/did-core-go/pkg/hashing"
	"github.com/trustbloc/did-core-go/pkg/internal/log"
	"github.com/trustbloc/did-core-go/pkg/jwk"
	"github.com/trustbloc/did-core-go/pkg/jws"
	"github.com/trustbloc/did-core-go/pkg/sidetree/composer"
	"github.com/trustbloc/did-core-go/pkg/sidetree/document"
	"github.com/trustbloc/did-core-go/pkg/sidetree/model"
)

var logger = log.New("did-core-applier")

var (
	// ErrCommitmentMismatch is returned when an operation's reveal value does not open the current commitment.
	ErrCommitmentMismatch = errors.New("reveal value doesn't match commitment")

	// ErrDeactivated is returned for any operation applied after a deactivate.
	ErrDeactivated = errors.New("document is deactivated")
)

// OperationParser checks deltas and decodes the signed data of operations.
type OperationParser interface {
	ValidateDelta(delta *model.DeltaModel) error
	ParseSignedDataForUpdate(compactJWS string) (*model.UpdateSignedDataModel, error)
	ParseSignedDataForDeactivate(compactJWS string) (*model.DeactivateSignedDataModel, error)
	ParseSignedDataForRecover(compactJWS string) (*model.RecoverSignedDataModel, error)
}

// Applier folds parsed operations into a resolution model.
type Applier struct {
	parser OperationParser
}

// New returns an applier that uses parser to decode signed data.
func New(parser OperationParser) *Applier {
	return &Applier{parser: parser}
}

// Apply returns the state after op. A nil rm is the state of a DID with no
// operations. rm is not modified.
//
// Once an operation's reveal value and signature check out, its commitments
// are consumed even when its delta turns out to be invalid. In that case the
// document content is left as the delta could not be applied.
func (a *Applier) Apply(op *model.Operation, rm *model.ResolutionModel) (*model.ResolutionModel, error) {
	if rm == nil {
		rm = &model.ResolutionModel{}
	}

	if rm.Deactivated {
		return nil, ErrDeactivated
	}

	logger.Debug("Applying operation", log.WithSuffix(op.UniqueSuffix), log.WithOperationType(string(op.Type)))

	switch op.Type {
	case model.OperationTypeCreate:
		return a.create(op, rm)
	case model.OperationTypeUpdate:
		return a.update(op, rm)
	case model.OperationTypeRecover:
		return a.recover(op, rm)
	case model.OperationTypeDeactivate:
		return a.deactivate(op, rm)
	default:
		return nil, fmt.Errorf("operation type %q is not supported", op.Type)
	}
}

func (a *Applier) create(op *model.Operation, rm *model.ResolutionModel) (*model.ResolutionModel, error) {
	if rm.Doc != nil {
		return nil, errors.New("create must be the first operation")
	}

	if op.SuffixData == nil || op.Delta == nil {
		return nil, errors.New("create operation is missing suffix data or delta")
	}

	next := &model.ResolutionModel{
		Doc:                document.Document{},
		RecoveryCommitment: op.SuffixData.RecoveryCommitment,
	}

	a.replaceContent(op, op.SuffixData.DeltaHash, next)

	return next, nil
}

func (a *Applier) update(op *model.Operation, rm *model.ResolutionModel) (*model.ResolutionModel, error) {
	if rm.Doc == nil {
		return nil, errors.New("update requires an existing document")
	}

	if err := openCommitment(op.RevealValue, rm.UpdateCommitment); err != nil {
		return nil, errors.WithMessage(err, "update")
	}

	signed, err := a.parser.ParseSignedDataForUpdate(op.SignedData)
	if err != nil {
		return nil, errors.WithMessage(err, "update signed data")
	}

	if err := hashing.IsValidModelMultihash(op.Delta, signed.DeltaHash); err != nil {
		return nil, errors.WithMessage(err, "update delta does not match signed delta hash")
	}

	if err := verify(op.SignedData, signed.UpdateKey); err != nil {
		return nil, err
	}

	if err := a.parser.ValidateDelta(op.Delta); err != nil {
		return nil, errors.WithMessage(err, "update delta")
	}

	next := &model.ResolutionModel{
		Doc:                rm.Doc,
		UpdateCommitment:   op.Delta.UpdateCommitment,
		RecoveryCommitment: rm.RecoveryCommitment,
	}

	doc, err := composer.ApplyPatches(rm.Doc, op.Delta.Patches)
	if err != nil {
		logger.Info("Patches not applied, update commitment consumed",
			log.WithSuffix(op.UniqueSuffix), log.WithError(err))

		return next, nil
	}

	next.Doc = doc

	return next, nil
}

func (a *Applier) recover(op *model.Operation, rm *model.ResolutionModel) (*model.ResolutionModel, error) {
	if rm.Doc == nil {
		return nil, errors.New("recover requires an existing document")
	}

	if err := openCommitment(op.RevealValue, rm.RecoveryCommitment); err != nil {
		return nil, errors.WithMessage(err, "recover")
	}

	signed, err := a.parser.ParseSignedDataForRecover(op.SignedData)
	if err != nil {
		return nil, errors.WithMessage(err, "recover signed data")
	}

	if err := verify(op.SignedData, signed.RecoveryKey); err != nil {
		return nil, err
	}

	next := &model.ResolutionModel{
		Doc:                document.Document{},
		RecoveryCommitment: signed.RecoveryCommitment,
	}

	a.replaceContent(op, signed.DeltaHash, next)

	return next, nil
}

func (a *Applier) deactivate(op *model.Operation, rm *model.ResolutionModel) (*model.ResolutionModel, error) {
	if rm.Doc == nil {
		return nil, errors.New("deactivate requires an existing document")
	}

	if err := openCommitment(op.RevealValue, rm.RecoveryCommitment); err != nil {
		return nil, errors.WithMessage(err, "deactivate")
	}

	signed, err := a.parser.ParseSignedDataForDeactivate(op.SignedData)
	if err != nil {
		return nil, errors.WithMessage(err, "deactivate signed data")
	}

	if signed.DidSuffix != op.UniqueSuffix {
		return nil, errors.New("signed did suffix does not match operation")
	}

	if err := verify(op.SignedData, signed.RecoveryKey); err != nil {
		return nil, err
	}

	return &model.ResolutionModel{Doc: document.Document{}, Deactivated: true}, nil
}

// replaceContent builds the document of a create or recover from the delta
// and sets the next update commitment. A delta that does not hash to
// deltaHash or fails validation leaves the document empty and no update
// commitment pending.
func (a *Applier) replaceContent(op *model.Operation, deltaHash string, next *model.ResolutionModel) {
	if err := hashing.IsValidModelMultihash(op.Delta, deltaHash); err != nil {
		logger.Info("Delta does not match delta hash, no update commitment",
			log.WithSuffix(op.UniqueSuffix), log.WithOperationType(string(op.Type)), log.WithError(err))

		return
	}

	if err := a.parser.ValidateDelta(op.Delta); err != nil {
		logger.Info("Invalid delta, no update commitment",
			log.WithSuffix(op.UniqueSuffix), log.WithOperationType(string(op.Type)), log.WithError(err))

		return
	}

	next.UpdateCommitment = op.Delta.UpdateCommitment

	doc, err := composer.ApplyPatches(document.Document{}, op.Delta.Patches)
	if err != nil {
		logger.Info("Patches not applied",
			log.WithSuffix(op.UniqueSuffix), log.WithOperationType(string(op.Type)), log.WithError(err))

		return
	}

	next.Doc = doc
}

func verify(signedData string, key *jwk.JWK) error {
	if _, err := jws.VerifyJWS(signedData, key); err != nil {
		return errors.WithMessage(err, "verify signed data")
	}

	return nil
}

// openCommitment checks that revealValue is the preimage of the pending commitment.
func openCommitment(revealValue, pending string) error {
	if pending == "" {
		return errors.Wrap(ErrCommitmentMismatch, "no commitment is pending")
	}

	c, err := commitment.GetCommitmentFromRevealValue(revealValue)
	if err != nil {
		return errors.WithMessage(err, "commitment from reveal value")
	}

	if c != pending {
		logger.Debug("Reveal value does not open commitment",
			log.WithRevealValue(revealValue), log.WithCommitment(pending))

		return ErrCommitmentMismatch
	}

	return nil
}
