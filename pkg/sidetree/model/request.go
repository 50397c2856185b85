/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package model

import (
	"github.com/trustbloc/did-core-go/pkg/jwk"
	"github.com/trustbloc/did-core-go/pkg/sidetree/patch"
)

// CreateRequest is the body POSTed to an ION node to anchor a new DID.
type CreateRequest struct {
	Operation  OperationType    `json:"type,omitempty"`
	SuffixData *SuffixDataModel `json:"suffixData,omitempty"`
	Delta      *DeltaModel      `json:"delta,omitempty"`
}

// SuffixDataModel is hashed to derive the DID unique suffix.
type SuffixDataModel struct {
	DeltaHash          string `json:"deltaHash,omitempty"`
	RecoveryCommitment string `json:"recoveryCommitment,omitempty"`
}

// DeltaModel holds the patches of a create, update or recover operation
// together with the commitment for the next update.
type DeltaModel struct {
	UpdateCommitment string        `json:"updateCommitment,omitempty"`
	Patches          []patch.Patch `json:"patches,omitempty"`
}

// UpdateRequest patches a DID document with the current update key.
type UpdateRequest struct {
	Operation   OperationType `json:"type"`
	DidSuffix   string        `json:"didSuffix"`
	RevealValue string        `json:"revealValue"`
	SignedData  string        `json:"signedData"`
	Delta       *DeltaModel   `json:"delta"`
}

// RecoverRequest replaces a DID document and rotates both commitments.
type RecoverRequest struct {
	Operation   OperationType `json:"type"`
	DidSuffix   string        `json:"didSuffix"`
	RevealValue string        `json:"revealValue"`
	SignedData  string        `json:"signedData"`
	Delta       *DeltaModel   `json:"delta"`
}

// DeactivateRequest permanently deactivates a DID.
type DeactivateRequest struct {
	Operation   OperationType `json:"type"`
	DidSuffix   string        `json:"didSuffix"`
	RevealValue string        `json:"revealValue"`
	SignedData  string        `json:"signedData"`
}

// UpdateSignedDataModel is the JWS payload of an update. DeltaHash covers the unsigned delta.
type UpdateSignedDataModel struct {
	UpdateKey *jwk.JWK `json:"updateKey"`
	DeltaHash string   `json:"deltaHash"`
}

// RecoverSignedDataModel is the JWS payload of a recovery.
type RecoverSignedDataModel struct {
	DeltaHash          string   `json:"deltaHash"`
	RecoveryKey        *jwk.JWK `json:"recoveryKey"`
	RecoveryCommitment string   `json:"recoveryCommitment"`
}

// DeactivateSignedDataModel is the JWS payload of a deactivation.
type DeactivateSignedDataModel struct {
	DidSuffix   string   `json:"didSuffix"`
	RecoveryKey *jwk.JWK `json:"recoveryKey"`
}

// LongFormInitialState is the create payload embedded in a long-form DID.
type LongFormInitialState struct {
	SuffixData *SuffixDataModel `json:"suffixData"`
	Delta      *DeltaModel      `json:"delta"`
}
