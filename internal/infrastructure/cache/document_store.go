package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nutriplan/dietplan/internal/domain/plan"
	"github.com/nutriplan/dietplan/internal/infrastructure/monitoring"
	"github.com/nutriplan/dietplan/internal/ports/outbound"
	apperrors "github.com/nutriplan/dietplan/pkg/errors"
)

const documentCacheName = "document"

// DocumentStore keeps rendered documents for download under a random token
type DocumentStore struct {
	cache   outbound.CacheRepository
	keys    *KeyBuilder
	ttl     time.Duration
	metrics *monitoring.MetricsCollector
	logger  *zap.Logger
}

var _ outbound.DocumentStore = (*DocumentStore)(nil)

// NewDocumentStore creates a store whose entries expire after ttl
func NewDocumentStore(cache outbound.CacheRepository, ttl time.Duration, metrics *monitoring.MetricsCollector, logger *zap.Logger) *DocumentStore {
	return &DocumentStore{
		cache:   cache,
		keys:    NewKeyBuilder(documentCacheName),
		ttl:     ttl,
		metrics: metrics,
		logger:  logger.Named("document-store"),
	}
}

// Save stores doc and returns the token it can be loaded with
func (s *DocumentStore) Save(ctx context.Context, doc *plan.Document) (string, error) {
	if doc == nil {
		return "", apperrors.NewBadRequestError("no document to store")
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to encode document")
	}

	token := uuid.NewString()
	if err := s.cache.Set(ctx, s.keys.BuildKey(token), data, s.ttl); err != nil {
		s.metrics.CacheOperation(documentCacheName, "error")
		return "", apperrors.Wrap(err, "failed to store document")
	}

	s.logger.Debug("Document stored",
		zap.String("token", token),
		zap.String("filename", doc.Filename),
		zap.Int("size", len(doc.Data)),
		zap.Duration("ttl", s.ttl))

	return token, nil
}

// Load returns the document stored under token. Unknown, malformed and
// expired tokens all yield NOT_FOUND.
func (s *DocumentStore) Load(ctx context.Context, token string) (*plan.Document, error) {
	if _, err := uuid.Parse(token); err != nil {
		return nil, apperrors.NewNotFoundError("document")
	}

	data, err := s.cache.Get(ctx, s.keys.BuildKey(token))
	if err != nil {
		if errors.Is(err, outbound.ErrCacheMiss) {
			s.metrics.CacheOperation(documentCacheName, "miss")
			return nil, apperrors.NewNotFoundError("document")
		}
		s.metrics.CacheOperation(documentCacheName, "error")
		return nil, apperrors.Wrap(err, "failed to load document")
	}

	var doc plan.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		s.metrics.CacheOperation(documentCacheName, "error")
		return nil, apperrors.Wrap(fmt.Errorf("decode document %s: %w", token, err), "failed to load document")
	}

	s.metrics.CacheOperation(documentCacheName, "hit")
	return &doc, nil
}
