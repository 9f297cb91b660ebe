// Package cache layers caching on top of the outbound ports: a nutrition
// lookup decorator and a short-lived document store. Both work against any
// outbound.CacheRepository, so the backend (memory or Redis) is a config choice.
package cache

import "strings"

// KeyBuilder provides standardized cache key generation
type KeyBuilder struct {
	namespace string
	separator string
}

// NewKeyBuilder creates a key builder for the given namespace
func NewKeyBuilder(namespace string) *KeyBuilder {
	return &KeyBuilder{
		namespace: namespace,
		separator: ":",
	}
}

// BuildKey constructs a cache key from components
func (kb *KeyBuilder) BuildKey(components ...string) string {
	parts := make([]string, 0, len(components)+1)
	parts = append(parts, kb.namespace)
	parts = append(parts, components...)
	return strings.Join(parts, kb.separator)
}
