// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/nutriplan/dietplan/internal/domain/nutrition"
	"github.com/nutriplan/dietplan/internal/domain/plan"
)

// ErrCacheMiss is returned by CacheRepository.Get for absent or expired keys
var ErrCacheMiss = errors.New("cache miss")

// PlanGenerator sends a prompt to a chat-completion model
type PlanGenerator interface {
	GeneratePlan(ctx context.Context, prompt string) (*plan.DietPlan, error)
}

// NutritionProvider looks up nutrition facts for a single food name
type NutritionProvider interface {
	Lookup(ctx context.Context, food string) (*nutrition.Info, error)
}

// DocumentRenderer turns a plan into a downloadable document
type DocumentRenderer interface {
	Render(ctx context.Context, in plan.DocumentInput) (*plan.Document, error)
}

// DocumentStore holds rendered documents for a short time so they can be
// downloaded by token
type DocumentStore interface {
	Save(ctx context.Context, doc *plan.Document) (token string, err error)
	Load(ctx context.Context, token string) (*plan.Document, error)
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Ping(ctx context.Context) error
}
