/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package document

import (
	"errors"
	"fmt"
)

const (
	// ResolutionContext is the JSON-LD context of a DID resolution result.
	ResolutionContext = "https://w3id.org/did-resolution/v1"

	// ContentTypeDIDLDJSON is the content type of a resolved DID document.
	ContentTypeDIDLDJSON = "application/did+ld+json"
)

// ErrorCode is a DID resolution error code.
type ErrorCode string

// Resolution error codes.
const (
	InvalidDID                 ErrorCode = "invalidDid"
	NotFound                   ErrorCode = "notFound"
	MethodNotSupported         ErrorCode = "methodNotSupported"
	InternalError              ErrorCode = "internalError"
	InvalidPublicKey           ErrorCode = "invalidPublicKey"
	RepresentationNotSupported ErrorCode = "representationNotSupported"
	InvalidDIDDocument         ErrorCode = "invalidDidDocument"
)

var (
	// ErrInvalidDID matches resolution results carrying the invalidDid code.
	ErrInvalidDID = errors.New(string(InvalidDID))

	// ErrNotFound matches resolution results carrying the notFound code.
	ErrNotFound = errors.New(string(NotFound))

	// ErrMethodNotSupported matches resolution results carrying the methodNotSupported code.
	ErrMethodNotSupported = errors.New(string(MethodNotSupported))

	// ErrInternal matches resolution results carrying the internalError code.
	ErrInternal = errors.New(string(InternalError))

	sentinels = map[ErrorCode]error{
		InvalidDID:         ErrInvalidDID,
		NotFound:           ErrNotFound,
		MethodNotSupported: ErrMethodNotSupported,
		InternalError:      ErrInternal,
	}
)

// ResolutionResult is the outcome of resolving a DID. Failures are reported as data in
// ResolutionMetadata.Error rather than as Go errors.
type ResolutionResult struct {
	Context            string              `json:"@context,omitempty"`
	Document           *Document           `json:"didDocument,omitempty"`
	DocumentMetadata   *DocumentMetadata   `json:"didDocumentMetadata,omitempty"`
	ResolutionMetadata *ResolutionMetadata `json:"didResolutionMetadata"`
}

// DocumentMetadata describes the resolved document.
type DocumentMetadata struct {
	Created      string          `json:"created,omitempty"`
	Updated      string          `json:"updated,omitempty"`
	Deactivated  bool            `json:"deactivated,omitempty"`
	VersionID    string          `json:"versionId,omitempty"`
	NextUpdate   string          `json:"nextUpdate,omitempty"`
	EquivalentID []string        `json:"equivalentId,omitempty"`
	CanonicalID  string          `json:"canonicalId,omitempty"`
	Method       *MethodMetadata `json:"method,omitempty"`
}

// MethodMetadata holds method specific metadata. Only Sidetree based methods populate it.
type MethodMetadata struct {
	Published          bool   `json:"published"`
	RecoveryCommitment string `json:"recoveryCommitment,omitempty"`
	UpdateCommitment   string `json:"updateCommitment,omitempty"`
}

// ResolutionMetadata describes the resolution process.
type ResolutionMetadata struct {
	ContentType  string    `json:"contentType,omitempty"`
	Error        ErrorCode `json:"error,omitempty"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
}

// NewResolutionResult returns a successful resolution result for the document.
func NewResolutionResult(doc *Document, metadata *DocumentMetadata) *ResolutionResult {
	if metadata == nil {
		metadata = &DocumentMetadata{}
	}

	return &ResolutionResult{
		Context:            ResolutionContext,
		Document:           doc,
		DocumentMetadata:   metadata,
		ResolutionMetadata: &ResolutionMetadata{ContentType: ContentTypeDIDLDJSON},
	}
}

// Copy returns a copy of the result that shares no document or metadata with r.
func (r *ResolutionResult) Copy() *ResolutionResult {
	c := *r

	if r.Document != nil {
		c.Document = r.Document.Copy()
	}

	if r.DocumentMetadata != nil {
		md := *r.DocumentMetadata
		md.EquivalentID = copyStrings(r.DocumentMetadata.EquivalentID)

		if r.DocumentMetadata.Method != nil {
			method := *r.DocumentMetadata.Method
			md.Method = &method
		}

		c.DocumentMetadata = &md
	}

	if r.ResolutionMetadata != nil {
		rm := *r.ResolutionMetadata
		c.ResolutionMetadata = &rm
	}

	return &c
}

// NewResolutionError returns a failed resolution result.
func NewResolutionError(code ErrorCode, msg string) *ResolutionResult {
	return &ResolutionResult{
		Context:            ResolutionContext,
		DocumentMetadata:   &DocumentMetadata{},
		ResolutionMetadata: &ResolutionMetadata{Error: code, ErrorMessage: msg},
	}
}

// Failed returns true if the result carries an error code.
func (r *ResolutionResult) Failed() bool {
	return r.ResolutionMetadata != nil && r.ResolutionMetadata.Error != ""
}

// Err returns the resolution failure as an error, or nil on success.
func (r *ResolutionResult) Err() error {
	if !r.Failed() {
		return nil
	}

	return &ResolutionError{Code: r.ResolutionMetadata.Error, Message: r.ResolutionMetadata.ErrorMessage}
}

// ResolutionError is a resolution failure surfaced as an error.
type ResolutionError struct {
	Code    ErrorCode
	Message string
}

func (e *ResolutionError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("resolution failed: %s", e.Code)
	}

	return fmt.Sprintf("resolution failed: %s: %s", e.Code, e.Message)
}

// Is matches the sentinel error for the code.
func (e *ResolutionError) Is(target error) bool {
	sentinel, ok := sentinels[e.Code]

	return ok && sentinel == target
}
