/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mocks

import (
	"context"
	"sync"

	"github.com/trustbloc/did-core-go/pkg/document"
)

// NewMockMethod returns a mock DID method resolving DIDs of the given method name.
func NewMockMethod(name string) *MockMethod {
	return &MockMethod{
		name:    name,
		results: make(map[string]*document.ResolutionResult),
	}
}

// MockMethod mocks a DID method.
type MockMethod struct {
	mutex   sync.Mutex
	name    string
	results map[string]*document.ResolutionResult
	calls   int
}

// WithDocument makes the mock resolve the document's DID to the document.
func (m *MockMethod) WithDocument(doc *document.Document) *MockMethod {
	return m.WithResult(doc.ID, document.NewResolutionResult(doc, &document.DocumentMetadata{}))
}

// WithResult makes the mock return the result for the DID.
func (m *MockMethod) WithResult(uri string, result *document.ResolutionResult) *MockMethod {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.results[uri] = result

	return m
}

// Accept accepts the mock's method name.
func (m *MockMethod) Accept(method string) bool {
	return method == m.name
}

// Resolve returns the preset result, or notFound.
func (m *MockMethod) Resolve(_ context.Context, uri string) *document.ResolutionResult {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.calls++

	result, ok := m.results[uri]
	if !ok {
		return document.NewResolutionError(document.NotFound, uri)
	}

	return result
}

// Calls returns the number of Resolve calls.
func (m *MockMethod) Calls() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.calls
}
