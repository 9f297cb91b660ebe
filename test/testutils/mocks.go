// Package testutils provides mock implementations for testing
package testutils

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/nutriplan/dietplan/internal/domain/nutrition"
	"github.com/nutriplan/dietplan/internal/domain/plan"
	"github.com/nutriplan/dietplan/internal/domain/profile"
	"github.com/nutriplan/dietplan/internal/ports/inbound"
	"github.com/nutriplan/dietplan/internal/ports/outbound"
)

var (
	_ outbound.PlanGenerator     = (*MockPlanGenerator)(nil)
	_ outbound.NutritionProvider = (*MockNutritionProvider)(nil)
	_ outbound.DocumentRenderer  = (*MockDocumentRenderer)(nil)
	_ outbound.DocumentStore     = (*MockDocumentStore)(nil)
	_ outbound.CacheRepository   = (*MockCacheRepository)(nil)
	_ inbound.PlanService        = (*MockPlanService)(nil)
)

// MockPlanGenerator provides a mock implementation of PlanGenerator
type MockPlanGenerator struct {
	mock.Mock
}

// GeneratePlan returns the configured plan
func (m *MockPlanGenerator) GeneratePlan(ctx context.Context, prompt string) (*plan.DietPlan, error) {
	args := m.Called(ctx, prompt)
	if p := args.Get(0); p != nil {
		return p.(*plan.DietPlan), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockNutritionProvider provides a mock implementation of NutritionProvider
type MockNutritionProvider struct {
	mock.Mock
}

// Lookup returns the configured nutrition facts
func (m *MockNutritionProvider) Lookup(ctx context.Context, food string) (*nutrition.Info, error) {
	args := m.Called(ctx, food)
	if info := args.Get(0); info != nil {
		return info.(*nutrition.Info), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockDocumentRenderer provides a mock implementation of DocumentRenderer
type MockDocumentRenderer struct {
	mock.Mock
}

// Render returns the configured document
func (m *MockDocumentRenderer) Render(ctx context.Context, in plan.DocumentInput) (*plan.Document, error) {
	args := m.Called(ctx, in)
	if doc := args.Get(0); doc != nil {
		return doc.(*plan.Document), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockDocumentStore provides a mock implementation of DocumentStore
type MockDocumentStore struct {
	mock.Mock
}

// Save returns the configured token
func (m *MockDocumentStore) Save(ctx context.Context, doc *plan.Document) (string, error) {
	args := m.Called(ctx, doc)
	return args.String(0), args.Error(1)
}

// Load returns the configured document
func (m *MockDocumentStore) Load(ctx context.Context, token string) (*plan.Document, error) {
	args := m.Called(ctx, token)
	if doc := args.Get(0); doc != nil {
		return doc.(*plan.Document), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockCacheRepository provides a mock implementation of CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

// Get retrieves a value from the mock cache
func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if v := args.Get(0); v != nil {
		return v.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

// Set stores a value in the mock cache
func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

// Delete removes a value from the mock cache
func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// Exists checks if a key exists in the mock cache
func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

// Ping checks the mock cache
func (m *MockCacheRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockPlanService provides a mock implementation of the inbound PlanService
type MockPlanService struct {
	mock.Mock
}

// Generate returns the configured result
func (m *MockPlanService) Generate(ctx context.Context, p *profile.UserProfile) (*inbound.PlanResult, error) {
	args := m.Called(ctx, p)
	if r := args.Get(0); r != nil {
		return r.(*inbound.PlanResult), args.Error(1)
	}
	return nil, args.Error(1)
}

// LookupNutrition returns the configured nutrition facts
func (m *MockPlanService) LookupNutrition(ctx context.Context, food string) (*nutrition.Info, error) {
	args := m.Called(ctx, food)
	if info := args.Get(0); info != nil {
		return info.(*nutrition.Info), args.Error(1)
	}
	return nil, args.Error(1)
}
