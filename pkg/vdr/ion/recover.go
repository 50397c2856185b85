/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ion

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/trustbloc/did-core-go/pkg/bearerdid"
	"github.com/trustbloc/did-core-go/pkg/internal/log"
	"github.com/trustbloc/did-core-go/pkg/kms"
	"github.com/trustbloc/did-core-go/pkg/sidetree/client"
	"github.com/trustbloc/did-core-go/pkg/sidetree/composer"
	"github.com/trustbloc/did-core-go/pkg/sidetree/didtransformer"
	"github.com/trustbloc/did-core-go/pkg/sidetree/model"
	"github.com/trustbloc/did-core-go/pkg/sidetree/signutil"
)

// Recover replaces the document of the DID with new verification keys and services and rolls the update
// and recovery keys. The operation is signed with the current recovery key, which it reveals; the caller
// must pass the alias of the key matching the DID's current recovery commitment.
func (c *Client) Recover(ctx context.Context, km kms.KeyManager, uri, recoveryKeyAlias string,
	opts ...OperationOption) (*bearerdid.BearerDID, error) {
	if km == nil {
		return nil, errors.New("missing key manager")
	}

	options := newOperationOptions(opts)

	suffix, err := uniqueSuffix(uri)
	if err != nil {
		return nil, err
	}

	signer, err := signutil.NewKeyManagerSigner(km, recoveryKeyAlias)
	if err != nil {
		return nil, errors.Wrap(err, "recovery key")
	}

	revealValue, err := c.revealValue(signer.PublicKey())
	if err != nil {
		return nil, err
	}

	content, err := newDocumentContent(km, options)
	if err != nil {
		return nil, err
	}

	opaque, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}

	keys, err := c.newControlKeys(km)
	if err != nil {
		return nil, err
	}

	request, err := client.NewRecoverRequest(&client.RecoverRequestInfo{
		DidSuffix:          suffix,
		RecoveryKey:        signer.PublicKey(),
		OpaqueDocument:     string(opaque),
		RecoveryCommitment: keys.recoveryCommitment,
		UpdateCommitment:   keys.updateCommitment,
		MultihashCode:      c.multihashCode,
		Signer:             signer,
		RevealValue:        revealValue,
	})
	if err != nil {
		return nil, errors.Wrap(err, "recover request")
	}

	op, err := c.parser.ParseRecoverOperation(request)
	if err != nil {
		return nil, errors.Wrap(err, "recover request")
	}

	doc, err := composer.ApplyPatches(nil, op.Delta.Patches)
	if err != nil {
		return nil, errors.Wrap(err, "compose recovered document")
	}

	if options.publish {
		if err := c.submit(ctx, request); err != nil {
			return nil, err
		}
	}

	external, _, err := c.transformer.TransformDocument(&model.ResolutionModel{
		Doc:                doc,
		UpdateCommitment:   keys.updateCommitment,
		RecoveryCommitment: keys.recoveryCommitment,
	}, didtransformer.Info{ID: uri, Published: options.publish})
	if err != nil {
		return nil, err
	}

	bd, err := bearerdid.New(uri, external, km)
	if err != nil {
		return nil, err
	}

	md := &Metadata{
		UpdateKeyAlias:   keys.updateAlias,
		RecoveryKeyAlias: keys.recoveryAlias,
		ShortFormURI:     Namespace + ":" + suffix,
		Published:        options.publish,
	}

	if IsLongForm(uri) {
		md.LongFormURI = uri
	}

	bd.Metadata = md.toMap()

	logger.Info("Recovered DID", log.WithSuffix(suffix), log.WithRecoveryCommitment(keys.recoveryCommitment),
		log.WithUpdateCommitment(keys.updateCommitment))

	return bd, nil
}

// Deactivate permanently deactivates the DID. The operation is signed with the current recovery key.
func (c *Client) Deactivate(ctx context.Context, km kms.KeyManager, uri, recoveryKeyAlias string) error {
	if km == nil {
		return errors.New("missing key manager")
	}

	suffix, err := uniqueSuffix(uri)
	if err != nil {
		return err
	}

	signer, err := signutil.NewKeyManagerSigner(km, recoveryKeyAlias)
	if err != nil {
		return errors.Wrap(err, "recovery key")
	}

	revealValue, err := c.revealValue(signer.PublicKey())
	if err != nil {
		return err
	}

	request, err := client.NewDeactivateRequest(&client.DeactivateRequestInfo{
		DidSuffix:   suffix,
		RecoveryKey: signer.PublicKey(),
		Signer:      signer,
		RevealValue: revealValue,
	})
	if err != nil {
		return errors.Wrap(err, "deactivate request")
	}

	if _, err := c.parser.ParseDeactivateOperation(request); err != nil {
		return errors.Wrap(err, "deactivate request")
	}

	if err := c.submit(ctx, request); err != nil {
		return err
	}

	logger.Info("Deactivated DID", log.WithSuffix(suffix))

	return nil
}
