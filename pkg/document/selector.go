/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package document

import (
	"fmt"
)

// Selector chooses a verification method from a document.
type Selector interface {
	selectFrom(doc *Document) (*VerificationMethod, error)
	String() string
}

type idSelector string

// ByID selects the verification method with the given id. Absolute and #fragment ids are equivalent.
func ByID(id string) Selector {
	return idSelector(id)
}

func (s idSelector) selectFrom(doc *Document) (*VerificationMethod, error) {
	vm, ok := doc.FindVerificationMethod(string(s))
	if !ok {
		return nil, fmt.Errorf("%w: id '%s'", ErrVerificationMethodNotFound, string(s))
	}

	return vm, nil
}

func (s idSelector) String() string {
	return "id=" + string(s)
}

type purposeSelector Purpose

// ByPurpose selects the first verification method referenced by the purpose.
func ByPurpose(p Purpose) Selector {
	return purposeSelector(p)
}

func (s purposeSelector) selectFrom(doc *Document) (*VerificationMethod, error) {
	refs := doc.References(Purpose(s))
	if len(refs) == 0 {
		return nil, fmt.Errorf("%w: no %s references", ErrVerificationMethodNotFound, string(s))
	}

	vm, ok := doc.FindVerificationMethod(refs[0])
	if !ok {
		return nil, fmt.Errorf("%w: %s reference '%s'", ErrVerificationMethodNotFound, string(s), refs[0])
	}

	return vm, nil
}

func (s purposeSelector) String() string {
	return "purpose=" + string(s)
}
