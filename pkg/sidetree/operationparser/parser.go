/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package operationparser checks Sidetree operation requests before they are
// sent to an ION node or applied locally to a long-form DID.
package operationparser

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/trustbloc/did-core-go/pkg/hashing"
	"github.com/trustbloc/did-core-go/pkg/internal/log"
	"github.com/trustbloc/did-core-go/pkg/jwk"
	"github.com/trustbloc/did-core-go/pkg/sidetree/model"
)

var logger = log.New("did-core-parser")

// ErrCommitmentReuse is returned when an operation commits to the key it reveals,
// or when the update and recovery commitments are the same.
var ErrCommitmentReuse = errors.New("commitment re-uses a public key")

const defaultMaxOperationSize = 10000

// Parser validates Sidetree operation requests.
type Parser struct {
	multihashCode       uint
	maxOperationSize    int
	keyAlgorithms       []string
	signatureAlgorithms []string
	enableReplacePatch  bool
}

// Option configures a Parser.
type Option func(p *Parser)

// WithMultihashCode sets the multihash code that commitments, reveal values and delta hashes must use.
func WithMultihashCode(code uint) Option {
	return func(p *Parser) {
		p.multihashCode = code
	}
}

// WithMaxOperationSize sets the largest request, in bytes, that ParseOperation accepts.
func WithMaxOperationSize(size int) Option {
	return func(p *Parser) {
		p.maxOperationSize = size
	}
}

// WithKeyAlgorithms restricts the curves of update and recovery keys.
func WithKeyAlgorithms(curves ...string) Option {
	return func(p *Parser) {
		p.keyAlgorithms = curves
	}
}

// WithSignatureAlgorithms restricts the JWS algorithms of signed data.
func WithSignatureAlgorithms(algs ...string) Option {
	return func(p *Parser) {
		p.signatureAlgorithms = algs
	}
}

// WithReplacePatchEnabled toggles acceptance of the replace patch action.
func WithReplacePatchEnabled(enabled bool) Option {
	return func(p *Parser) {
		p.enableReplacePatch = enabled
	}
}

// New returns a parser with ION defaults: sha2-256 multihashes and
// secp256k1, P-256 or Ed25519 operation keys.
func New(opts ...Option) *Parser {
	p := &Parser{
		multihashCode:       hashing.SHA2_256,
		maxOperationSize:    defaultMaxOperationSize,
		keyAlgorithms:       []string{jwk.CurveSecp256k1, jwk.CurveP256, jwk.CurveEd25519},
		signatureAlgorithms: []string{jwk.AlgES256K, jwk.AlgES256, jwk.AlgEdDSA},
		enableReplacePatch:  true,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// ParseOperation dispatches on the request "type" field and returns the
// parsed operation with its DID set under namespace.
func (p *Parser) ParseOperation(namespace string, request []byte) (*model.Operation, error) {
	if len(request) > p.maxOperationSize {
		return nil, fmt.Errorf("operation is %d bytes and exceeds maximum operation size of %d",
			len(request), p.maxOperationSize)
	}

	var header struct {
		Type model.OperationType `json:"type"`
	}

	if err := json.Unmarshal(request, &header); err != nil {
		return nil, fmt.Errorf("read operation type: %w", err)
	}

	var (
		op  *model.Operation
		err error
	)

	switch header.Type {
	case model.OperationTypeCreate:
		op, err = p.ParseCreateOperation(request)
	case model.OperationTypeUpdate:
		op, err = p.ParseUpdateOperation(request)
	case model.OperationTypeRecover:
		op, err = p.ParseRecoverOperation(request)
	case model.OperationTypeDeactivate:
		op, err = p.ParseDeactivateOperation(request)
	default:
		return nil, fmt.Errorf("operation type %q is not supported", header.Type)
	}

	if err != nil {
		logger.Warn("Rejected operation", log.WithOperationType(string(header.Type)), log.WithError(err))

		return nil, err
	}

	op.Namespace = namespace
	op.ID = namespace + namespaceDelimiter + op.UniqueSuffix

	return op, nil
}

// requireMultihash checks that value is an encoded multihash using the configured code.
func (p *Parser) requireMultihash(value, name string) error {
	if !hashing.IsComputedUsingMultihashAlgorithm(value, uint64(p.multihashCode)) {
		return fmt.Errorf("%s must use multihash code %d", name, p.multihashCode)
	}

	return nil
}
