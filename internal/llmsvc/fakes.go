package llmsvc

import (
	"context"
	"hash/fnv"
	"math"
	"sort"
	"sync"
	"time"
)

// FakeEmbeddingService is a deterministic in-memory EmbeddingService for
// tests: it hashes text into a low-dimensional vector so the same input
// always yields the same output, without any network dependency.
type FakeEmbeddingService struct {
	Dims int
}

// NewFakeEmbeddingService returns a fake with the given vector width.
func NewFakeEmbeddingService(dims int) *FakeEmbeddingService {
	if dims <= 0 {
		dims = 16
	}
	return &FakeEmbeddingService{Dims: dims}
}

func (f *FakeEmbeddingService) Dimensions(modelID string) int { return f.Dims }

func (f *FakeEmbeddingService) Embed(ctx context.Context, text string, modelID string) ([]float32, error) {
	if text == "" {
		return make([]float32, f.Dims), nil
	}
	vec := make([]float32, f.Dims)
	h := fnv.New64a()
	for i := 0; i < f.Dims; i++ {
		h.Write([]byte{byte(i)})
		h.Write([]byte(text))
		sum := h.Sum64()
		vec[i] = float32(math.Sin(float64(sum%1000000))) // bounded, deterministic
	}
	normalize(vec)
	return vec, nil
}

func normalize(v []float32) {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return
	}
	norm := math.Sqrt(sumSq)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
}

// FakeLlmService is a canned-response LlmService for tests.
type FakeLlmService struct {
	mu          sync.Mutex
	Responses   map[string]string // keyed by last message content; "" is default
	CallCount   int
	Unavailable bool // when true, Chat always returns ErrProviderUnavailable
}

// NewFakeLlmService returns a fake that echoes a stock summary unless a
// per-prompt override is registered.
func NewFakeLlmService() *FakeLlmService {
	return &FakeLlmService{Responses: make(map[string]string)}
}

func (f *FakeLlmService) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	if f.Unavailable {
		return ChatResponse{}, ErrProviderUnavailable
	}
	if req.Governor != nil {
		if err := req.Governor.CheckBudget(ctx); err != nil {
			return ChatResponse{}, err
		}
	}
	f.mu.Lock()
	f.CallCount++
	f.mu.Unlock()
	if len(req.Messages) == 0 {
		return ChatResponse{}, ErrProviderUnavailable
	}
	last := req.Messages[len(req.Messages)-1].Content
	if resp, ok := f.Responses[last]; ok {
		if req.Governor != nil {
			req.Governor.Spend(len(resp)/4, 0)
		}
		return ChatResponse{Content: resp}, nil
	}
	resp := "summary of: " + truncate(last, 60)
	if req.Governor != nil {
		req.Governor.Spend(len(resp)/4, 0)
	}
	return ChatResponse{Content: resp}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// FakeGovernor enforces a simple token/time budget for tests.
type FakeGovernor struct {
	mu            sync.Mutex
	MaxTokens     int
	MaxElapsed    time.Duration
	spentTokens   int
	spentElapsed  time.Duration
}

// NewFakeGovernor returns a governor with the given caps. A zero cap
// means unlimited for that dimension.
func NewFakeGovernor(maxTokens int, maxElapsed time.Duration) *FakeGovernor {
	return &FakeGovernor{MaxTokens: maxTokens, MaxElapsed: maxElapsed}
}

func (g *FakeGovernor) CheckBudget(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.MaxTokens > 0 && g.spentTokens >= g.MaxTokens {
		return ErrBudgetExhausted
	}
	if g.MaxElapsed > 0 && g.spentElapsed >= g.MaxElapsed {
		return ErrBudgetExhausted
	}
	return nil
}

func (g *FakeGovernor) Spend(tokens int, elapsed time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.spentTokens += tokens
	g.spentElapsed += elapsed
}

// FakeFileSystem is an in-memory FileSystem for tests.
type FakeFileSystem struct {
	Files map[string][]byte
	Mtimes map[string]time.Time
}

// NewFakeFileSystem returns an empty in-memory filesystem.
func NewFakeFileSystem() *FakeFileSystem {
	return &FakeFileSystem{Files: make(map[string][]byte), Mtimes: make(map[string]time.Time)}
}

func (f *FakeFileSystem) ReadFile(path string) ([]byte, error) {
	data, ok := f.Files[path]
	if !ok {
		return nil, &notFoundError{path: path}
	}
	return data, nil
}

func (f *FakeFileSystem) Stat(path string) (FileInfo, error) {
	data, ok := f.Files[path]
	if !ok {
		return FileInfo{}, &notFoundError{path: path}
	}
	return FileInfo{Path: path, Size: int64(len(data)), ModTime: f.Mtimes[path]}, nil
}

func (f *FakeFileSystem) Walk(root string, fn func(path string, info FileInfo) error) error {
	paths := make([]string, 0, len(f.Files))
	for p := range f.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		info, err := f.Stat(p)
		if err != nil {
			return err
		}
		if err := fn(p, info); err != nil {
			return err
		}
	}
	return nil
}

type notFoundError struct{ path string }

func (e *notFoundError) Error() string { return "file not found: " + e.path }

// FakeGit is an in-memory Git for co-change tests.
type FakeGit struct {
	Commits []Commit
}

func (g *FakeGit) RecentCommits(ctx context.Context, maxCommits int) ([]Commit, error) {
	if maxCommits <= 0 || maxCommits > len(g.Commits) {
		maxCommits = len(g.Commits)
	}
	return g.Commits[:maxCommits], nil
}
