/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package model

import (
	"github.com/trustbloc/did-core-go/pkg/sidetree/document"
)

// OperationType is the "type" of a Sidetree operation request.
type OperationType string

// Operation types.
const (
	OperationTypeCreate     OperationType = "create"
	OperationTypeUpdate     OperationType = "update"
	OperationTypeRecover    OperationType = "recover"
	OperationTypeDeactivate OperationType = "deactivate"
)

// Operation is a parsed operation request of one DID.
type Operation struct {
	Type         OperationType
	Namespace    string
	ID           string // namespace:suffix
	UniqueSuffix string

	// OperationBuffer holds the request as received.
	OperationBuffer []byte

	SignedData  string // compact JWS, empty for create
	RevealValue string
	Delta       *DeltaModel
	SuffixData  *SuffixDataModel
}

// ResolutionModel is the state of a DID after zero or more operations.
type ResolutionModel struct {
	Doc                document.Document
	UpdateCommitment   string
	RecoveryCommitment string
	Deactivated        bool
}
