/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package log

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log Fields.
const (
	FieldURI                = "uri"
	FieldDID                = "did"
	FieldMethod             = "method"
	FieldAlias              = "alias"
	FieldAliases            = "aliases"
	FieldAlgorithm          = "algorithm"
	FieldKeyID              = "kid"
	FieldSuffix             = "suffix"
	FieldOperationType      = "operationType"
	FieldCommitment         = "commitment"
	FieldRecoveryCommitment = "recoveryCommitment"
	FieldUpdateCommitment   = "updateCommitment"
	FieldRevealValue        = "revealValue"
	FieldDocument           = "document"
	FieldPatch              = "patch"
	FieldSequence           = "seq"
	FieldTotal              = "total"
	FieldStatusCode         = "statusCode"
	FieldErrorCode          = "errorCode"
	FieldRequestBody        = "requestBody"
	FieldSelector           = "selector"
	FieldCached             = "cached"
	FieldPath               = "path"
	FieldHTTPMethod         = "httpMethod"
)

// WithError sets the error field.
func WithError(err error) zap.Field {
	return zap.Error(err)
}

// WithURIString sets the uri field.
func WithURIString(value string) zap.Field {
	return zap.String(FieldURI, value)
}

// WithDID sets the did field.
func WithDID(value string) zap.Field {
	return zap.String(FieldDID, value)
}

// WithMethod sets the method field.
func WithMethod(value string) zap.Field {
	return zap.String(FieldMethod, value)
}

// WithAlias sets the alias field.
func WithAlias(value string) zap.Field {
	return zap.String(FieldAlias, value)
}

// WithAliases sets the aliases field.
func WithAliases(value ...string) zap.Field {
	return zap.Array(FieldAliases, NewStringArrayMarshaller(value))
}

// WithAlgorithm sets the algorithm field.
func WithAlgorithm(value string) zap.Field {
	return zap.String(FieldAlgorithm, value)
}

// WithKeyID sets the kid field.
func WithKeyID(value string) zap.Field {
	return zap.String(FieldKeyID, value)
}

// WithSuffix sets the suffix field.
func WithSuffix(value string) zap.Field {
	return zap.String(FieldSuffix, value)
}

// WithOperationType sets the operation-type field.
func WithOperationType(value string) zap.Field {
	return zap.String(FieldOperationType, value)
}

// WithCommitment sets the commitment field.
func WithCommitment(value string) zap.Field {
	return zap.String(FieldCommitment, value)
}

// WithRecoveryCommitment sets the recovery-commitment field.
func WithRecoveryCommitment(value string) zap.Field {
	return zap.String(FieldRecoveryCommitment, value)
}

// WithUpdateCommitment sets the update-commitment field.
func WithUpdateCommitment(value string) zap.Field {
	return zap.String(FieldUpdateCommitment, value)
}

// WithRevealValue sets the reveal-value field.
func WithRevealValue(value string) zap.Field {
	return zap.String(FieldRevealValue, value)
}

// WithDocument sets the document field. The value is marshalled to JSON.
func WithDocument(value interface{}) zap.Field {
	return zap.Inline(newJSONMarshaller(FieldDocument, value))
}

// WithPatch sets the patch field.
func WithPatch(value interface{}) zap.Field {
	return zap.Inline(NewObjectMarshaller(FieldPatch, value))
}

// WithSequence sets the seq field.
func WithSequence(value int64) zap.Field {
	return zap.Int64(FieldSequence, value)
}

// WithTotal sets the total field.
func WithTotal(value int) zap.Field {
	return zap.Int(FieldTotal, value)
}

// WithStatusCode sets the status-code field.
func WithStatusCode(value int) zap.Field {
	return zap.Int(FieldStatusCode, value)
}

// WithErrorCode sets the error-code field.
func WithErrorCode(value string) zap.Field {
	return zap.String(FieldErrorCode, value)
}

// WithRequestBody sets the request-body field.
func WithRequestBody(value []byte) zap.Field {
	return zap.String(FieldRequestBody, string(value))
}

// WithSelector sets the selector field.
func WithSelector(value string) zap.Field {
	return zap.String(FieldSelector, value)
}

// WithCached sets the cached field.
func WithCached(value bool) zap.Field {
	return zap.Bool(FieldCached, value)
}

// WithPath sets the path field.
func WithPath(value string) zap.Field {
	return zap.String(FieldPath, value)
}

// WithHTTPMethod sets the httpMethod field.
func WithHTTPMethod(value string) zap.Field {
	return zap.String(FieldHTTPMethod, value)
}

type jsonMarshaller struct {
	key string
	obj interface{}
}

func newJSONMarshaller(key string, value interface{}) *jsonMarshaller {
	return &jsonMarshaller{key: key, obj: value}
}

func (m *jsonMarshaller) MarshalLogObject(e zapcore.ObjectEncoder) error {
	b, err := json.Marshal(m.obj)
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	e.AddString(m.key, string(b))

	return nil
}

// ObjectMarshaller uses reflection to marshal an object's fields.
type ObjectMarshaller struct {
	key string
	obj interface{}
}

// NewObjectMarshaller returns a new ObjectMarshaller.
func NewObjectMarshaller(key string, obj interface{}) *ObjectMarshaller {
	return &ObjectMarshaller{key: key, obj: obj}
}

// MarshalLogObject marshals the object's fields.
func (m *ObjectMarshaller) MarshalLogObject(e zapcore.ObjectEncoder) error {
	return e.AddReflected(m.key, m.obj)
}

// StringArrayMarshaller marshals an array of strings into a log field.
type StringArrayMarshaller struct {
	values []string
}

// NewStringArrayMarshaller returns a new StringArrayMarshaller.
func NewStringArrayMarshaller(values []string) *StringArrayMarshaller {
	return &StringArrayMarshaller{values: values}
}

// MarshalLogArray marshals the array.
func (m *StringArrayMarshaller) MarshalLogArray(e zapcore.ArrayEncoder) error {
	for _, v := range m.values {
		e.AppendString(v)
	}

	return nil
}
