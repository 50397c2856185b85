/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ion

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/trustbloc/did-core-go/pkg/did"
	"github.com/trustbloc/did-core-go/pkg/document"
	"github.com/trustbloc/did-core-go/pkg/internal/log"
	"github.com/trustbloc/did-core-go/pkg/sidetree/didtransformer"
	"github.com/trustbloc/did-core-go/pkg/sidetree/model"
	"github.com/trustbloc/did-core-go/pkg/sidetree/operationparser"
)

// IsLongForm returns true if the DID embeds its create operation.
func IsLongForm(uri string) bool {
	return strings.Contains(strings.TrimPrefix(uri, Namespace+":"), ":")
}

// ParseLongForm splits a long-form DID into its short form and the create operation it embeds. The
// suffix of the short form must be the hash of the embedded suffix data.
func ParseLongForm(uri string) (string, *model.Operation, error) {
	return parseLongForm(operationparser.New(), uri)
}

func parseLongForm(parser *operationparser.Parser, uri string) (string, *model.Operation, error) {
	shortForm, createRequest, err := parser.ParseDID(Namespace, uri)
	if err != nil {
		return "", nil, errors.Wrap(err, "parse long-form DID")
	}

	if createRequest == nil {
		return "", nil, errors.Errorf("not a long-form DID: %s", uri)
	}

	op, err := parser.ParseCreateOperation(createRequest)
	if err != nil {
		return "", nil, errors.Wrap(err, "parse long-form initial state")
	}

	if shortForm != Namespace+":"+op.UniqueSuffix {
		return "", nil, errors.Errorf("long-form DID suffix does not match initial state: %s", shortForm)
	}

	op.ID = shortForm
	op.Namespace = Namespace

	return shortForm, op, nil
}

// resolveLongForm composes the document of an unpublished long-form DID from its embedded create operation.
func (c *Client) resolveLongForm(uri string) *document.ResolutionResult {
	shortForm, op, err := parseLongForm(c.parser, uri)
	if err != nil {
		logger.Debug("Invalid long-form DID", log.WithDID(uri), log.WithError(err))

		return document.NewResolutionError(document.InvalidDID, err.Error())
	}

	rm, err := c.applier.Apply(op, &model.ResolutionModel{})
	if err != nil {
		return document.NewResolutionError(document.InvalidDIDDocument, err.Error())
	}

	doc, metadata, err := c.transformer.TransformDocument(rm, didtransformer.Info{
		ID:           uri,
		Published:    false,
		EquivalentID: []string{shortForm},
	})
	if err != nil {
		return document.NewResolutionError(document.InvalidDIDDocument, err.Error())
	}

	logger.Debug("Resolved unpublished long-form DID", log.WithDID(shortForm), log.WithSuffix(op.UniqueSuffix))

	return document.NewResolutionResult(doc, metadata)
}

// uniqueSuffix returns the unique suffix of a short or long-form did:ion DID.
func uniqueSuffix(uri string) (string, error) {
	parsed, err := did.Parse(uri)
	if err != nil {
		return "", err
	}

	if parsed.Method != MethodName {
		return "", errors.Wrapf(did.ErrInvalidMethod, "expected '%s', got '%s'", MethodName, parsed.Method)
	}

	suffix, _, _ := strings.Cut(parsed.ID, ":")

	return suffix, nil
}
