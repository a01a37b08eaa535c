// Package llmsvc declares the trait-shaped external services the engine
// consumes — EmbeddingService, LlmService, a Governor budget guard, and
// FileSystem/Git collaborators — grounded on the teacher's
// internal/embedding EmbeddingEngine interface split between contract and
// concrete provider. The core owns no provider code (spec.md §1, §6):
// only interfaces and in-memory test doubles live here.
package llmsvc

import (
	"context"
	"errors"
	"time"
)

// ErrProviderUnavailable is returned when no embedding or LLM provider is
// configured; it surfaces as the stable "provider_unavailable" code.
var ErrProviderUnavailable = errors.New("provider_unavailable")

// ErrBudgetExhausted is returned by Governor.CheckBudget when the
// configured token, time, or money budget has been exceeded.
var ErrBudgetExhausted = errors.New("budget_exhausted")

// EmbeddingService produces a vector for a piece of text under a named
// model. Implementations must be deterministic for a given (text, modelId)
// up to provider guarantees.
type EmbeddingService interface {
	Embed(ctx context.Context, text string, modelID string) ([]float32, error)
	Dimensions(modelID string) int
}

// ChatMessage is one turn in an LlmService.Chat request.
type ChatMessage struct {
	Role    string
	Content string
}

// ChatRequest bundles everything Chat needs for one completion.
type ChatRequest struct {
	Provider string
	ModelID  string
	Messages []ChatMessage
	Governor Governor
}

// ChatResponse is an LlmService.Chat result.
type ChatResponse struct {
	Content string
}

// LlmService drives summarization and purpose extraction. Absence is a
// hard failure for operations that require it (spec.md §4.D).
type LlmService interface {
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
}

// Governor tracks a run's token/time/money budget and rejects further
// expensive work once exhausted. Counters are monotonically increasing
// within a run (spec.md §5).
type Governor interface {
	CheckBudget(ctx context.Context) error
	Spend(tokens int, elapsed time.Duration)
}

// FileSystem abstracts reading source files for the indexing pipeline.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	Stat(path string) (FileInfo, error)
	Walk(root string, fn func(path string, info FileInfo) error) error
}

// FileInfo is the subset of os.FileInfo the engine needs.
type FileInfo struct {
	Path    string
	Size    int64
	ModTime time.Time
	IsDir   bool
}

// Commit is one git commit relevant to co-change analysis (spec.md §4.F).
type Commit struct {
	SHA   string
	Files []string
	When  time.Time
}

// Git abstracts commit-history access for co-change graph construction.
// The engine never shells out to a git binary directly (Non-goals);
// concrete implementations live outside the core.
type Git interface {
	RecentCommits(ctx context.Context, maxCommits int) ([]Commit, error)
}
