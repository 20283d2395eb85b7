// Package mocks provides a testify mock of the remote client for
// repository tests.
package mocks

import (
	"context"
	"net/url"

	"github.com/stretchr/testify/mock"

	"lugares-client/infrastructure/remote"
)

type MockClient struct {
	mock.Mock
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Get(ctx context.Context, path string, query url.Values) (*remote.Envelope, error) {
	args := m.Called(ctx, path, query)
	if env := args.Get(0); env != nil {
		return env.(*remote.Envelope), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClient) Post(ctx context.Context, path string, body any) (*remote.Envelope, error) {
	args := m.Called(ctx, path, body)
	if env := args.Get(0); env != nil {
		return env.(*remote.Envelope), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClient) SetToken(token string) {
	m.Called(token)
}

func (m *MockClient) ClearToken() {
	m.Called()
}
