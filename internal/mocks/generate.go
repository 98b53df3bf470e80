// Package mocks provides mock implementations for testing the syncdock sync-job system.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our core port interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockStore := mocks.NewMockDocumentStore(ctrl)
//	mockStore.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(doc, nil)
package mocks

// Generate mock for DocumentStore interface from internal/core package.
// This creates MockDocumentStore with methods for all DocumentStore interface methods:
// Get, Index, Update, Delete, Search
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=document_store_mock.go github.com/seatrove/syncdock/internal/core DocumentStore

// Generate mock for ConnectorLookup interface from internal/core package.
// This creates MockConnectorLookup with methods for all ConnectorLookup interface methods:
// GetConnector
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=connector_lookup_mock.go github.com/seatrove/syncdock/internal/core ConnectorLookup
