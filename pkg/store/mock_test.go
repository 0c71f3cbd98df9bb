package store

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/harun/scribe/pkg/resource"
)

// MockSyncer is a mock implementation of Syncer
type MockSyncer struct {
	mock.Mock
}

func (m *MockSyncer) LoadAll(ctx context.Context) ([]*resource.Resource, error) {
	args := m.Called(ctx)
	loaded, _ := args.Get(0).([]*resource.Resource)
	return loaded, args.Error(1)
}

func (m *MockSyncer) Persist(ctx context.Context, r *resource.Resource) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockSyncer) Delete(ctx context.Context, hash string) error {
	args := m.Called(ctx, hash)
	return args.Error(0)
}

// MockAuditor adds Audit to MockSyncer
type MockAuditor struct {
	MockSyncer
}

func (m *MockAuditor) Audit(ctx context.Context, resources []*resource.Resource) error {
	args := m.Called(ctx, resources)
	return args.Error(0)
}

func withHash(hash string) interface{} {
	return mock.MatchedBy(func(r *resource.Resource) bool {
		return r.Hash() == hash
	})
}
