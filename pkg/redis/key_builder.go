package redis

import "fmt"

// KeyBuilder provides environment-aware Redis key building functionality
type KeyBuilder struct {
	prefix string // Environment prefix (staging/prod)
}

// NewKeyBuilder creates a new key builder with environment-based prefix
func NewKeyBuilder(environment string) *KeyBuilder {
	prefix := "prod"
	if environment == "development" || environment == "staging" || environment == "test" {
		prefix = "staging"
	}

	return &KeyBuilder{
		prefix: prefix,
	}
}

// BuildKey constructs a Redis key with the environment prefix
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("%s:%s", kb.prefix, key)
}

// GetPrefix returns the current environment prefix
func (kb *KeyBuilder) GetPrefix() string {
	return kb.prefix
}

// Draw key builders
func (kb *KeyBuilder) KeyDrawStatus(drawID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyDrawStatus, drawID))
}

func (kb *KeyBuilder) KeyDrawParticipants(drawID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyDrawParticipants, drawID))
}

func (kb *KeyBuilder) KeyCurrentMajor() string {
	return kb.BuildKey(KeyCurrentMajor)
}

func (kb *KeyBuilder) KeySelectionLock(drawID string) string {
	return kb.BuildKey(fmt.Sprintf(KeySelectionLock, drawID))
}

// Generic key builders for custom patterns
func (kb *KeyBuilder) KeyCustom(pattern string, args ...interface{}) string {
	key := fmt.Sprintf(pattern, args...)
	return kb.BuildKey(key)
}
