package snapshotkey

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Generator defines the interface for snapshot key strategies
type Generator interface {
	// GenerateKey creates the storage key of one item snapshot
	GenerateKey(itemID, versionID uuid.UUID, metadata *KeyMetadata) string
}

// KeyMetadata contains information that influences key generation
type KeyMetadata struct {
	ContentType string
	Owner       string
	TakenAt     time.Time
}

// FlatGenerator stores snapshots as items/{item}/{version}.json
type FlatGenerator struct{}

func NewFlatGenerator() *FlatGenerator {
	return &FlatGenerator{}
}

func (g *FlatGenerator) GenerateKey(itemID, versionID uuid.UUID, metadata *KeyMetadata) string {
	return fmt.Sprintf("items/%s/%s.json", itemID, versionID)
}

// ShardedGenerator provides Git-style sharding grouped by content type
// Structure: snapshots/{content_type}/ab/cd1234ef.../{timestamp}_{version}.json
type ShardedGenerator struct {
	// ShardLength controls how many characters to use for sharding (default: 2)
	ShardLength int
}

func NewShardedGenerator() *ShardedGenerator {
	return &ShardedGenerator{
		ShardLength: 2,
	}
}

func (g *ShardedGenerator) GenerateKey(itemID, versionID uuid.UUID, metadata *KeyMetadata) string {
	itemIDStr := strings.ReplaceAll(itemID.String(), "-", "")

	shardLength := g.ShardLength
	if shardLength <= 0 || shardLength > len(itemIDStr) {
		shardLength = 2
	}
	shardDir := itemIDStr[:shardLength]
	remaining := itemIDStr[shardLength:]

	contentType := "untyped"
	takenAt := time.Now().UTC()
	if metadata != nil {
		if metadata.ContentType != "" {
			contentType = sanitizePathComponent(metadata.ContentType)
		}
		if !metadata.TakenAt.IsZero() {
			takenAt = metadata.TakenAt.UTC()
		}
	}

	return fmt.Sprintf("snapshots/%s/%s/%s/%s_%s.json",
		contentType, shardDir, remaining, takenAt.Format("20060102T150405Z"), versionID)
}

// OwnerAwareGenerator isolates snapshots per owner
// Structure: owners/{owner}/{base key}
type OwnerAwareGenerator struct {
	BaseGenerator Generator
	DefaultOwner  string
}

func NewOwnerAwareGenerator() *OwnerAwareGenerator {
	return &OwnerAwareGenerator{
		BaseGenerator: NewShardedGenerator(),
		DefaultOwner:  "anonymous",
	}
}

func (g *OwnerAwareGenerator) GenerateKey(itemID, versionID uuid.UUID, metadata *KeyMetadata) string {
	owner := g.DefaultOwner
	if metadata != nil && metadata.Owner != "" {
		owner = sanitizePathComponent(metadata.Owner)
	}
	return fmt.Sprintf("owners/%s/%s", owner, g.BaseGenerator.GenerateKey(itemID, versionID, metadata))
}

// HashedGenerator derives a deterministic key from item and version IDs, so
// snapshotting the same version twice overwrites the same object
type HashedGenerator struct {
	ShardLength int
}

func NewHashedGenerator() *HashedGenerator {
	return &HashedGenerator{
		ShardLength: 2,
	}
}

func (g *HashedGenerator) GenerateKey(itemID, versionID uuid.UUID, metadata *KeyMetadata) string {
	hash := sha256.Sum256([]byte(itemID.String() + versionID.String()))
	hashStr := fmt.Sprintf("%x", hash)

	shardLength := g.ShardLength
	if shardLength <= 0 || shardLength >= 16 {
		shardLength = 2
	}
	return fmt.Sprintf("snapshots/%s/%s.json", hashStr[:shardLength], hashStr[shardLength:16])
}

// CustomFuncGenerator allows users to provide their own key generation function
type CustomFuncGenerator struct {
	GenerateFunc func(itemID, versionID uuid.UUID, metadata *KeyMetadata) string
}

func NewCustomFuncGenerator(fn func(itemID, versionID uuid.UUID, metadata *KeyMetadata) string) *CustomFuncGenerator {
	return &CustomFuncGenerator{
		GenerateFunc: fn,
	}
}

func (g *CustomFuncGenerator) GenerateKey(itemID, versionID uuid.UUID, metadata *KeyMetadata) string {
	return g.GenerateFunc(itemID, versionID, metadata)
}

func sanitizePathComponent(component string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "_",
		"..", "_",
	)
	return strings.ToLower(replacer.Replace(component))
}

// NewRecommendedGenerator returns the recommended generator for new installations
func NewRecommendedGenerator() Generator {
	return NewShardedGenerator()
}
