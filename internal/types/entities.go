package types

import "time"

// FileCategory classifies a FileEntity by what kind of content it holds.
type FileCategory string

const (
	FileCategoryCode   FileCategory = "code"
	FileCategoryTest   FileCategory = "test"
	FileCategoryConfig FileCategory = "config"
	FileCategoryDoc    FileCategory = "doc"
)

// Durability is the staleness class assigned to a file (spec.md §3, §4.C).
// It is also called the file's "staleness class" in the glossary.
type Durability string

const (
	DurabilityImmutable Durability = "immutable"
	DurabilityStable    Durability = "stable"
	DurabilityVolatile  Durability = "volatile"
	DurabilityMissing   Durability = "missing"
)

// FileEntity records a source file's identity, classification, and content link.
type FileEntity struct {
	Path         string // workspace-relative, normalized to forward-slash
	Category     FileCategory
	Checksum     string // SHA-256 hex, truncated to 16 hex chars for interning
	LastIndexed  time.Time
	LastModified time.Time
	ContentRef   string // key into FileContent / content cache
}

// FunctionEntity records a single function or method and its rolling
// confidence and outcome counters.
type FunctionEntity struct {
	ID         string // stable, e.g. "{filePath}:{name}"
	FilePath   string
	Name       string
	StartLine  int
	EndLine    int
	Signature  string
	Purpose    string // optional; empty means absent
	Confidence float64

	AccessCount   int64
	SuccessCount  int64
	FailureCount  int64
	LastAccessed  time.Time
}

// TargetID returns the canonical pack-target join key for this function,
// per spec.md invariant 1: "{filePath}:{functionName}".
func (f FunctionEntity) TargetID() string {
	return f.FilePath + ":" + f.Name
}

// ModuleEntity records a module/file-level grouping with its exports and
// dependencies.
type ModuleEntity struct {
	Path         string
	Purpose      string
	Exports      []string
	Dependencies []ModuleDependency
	Confidence   float64
}

// TargetID returns the canonical pack-target join key for this module,
// per spec.md invariant 1: the bare path.
func (m ModuleEntity) TargetID() string {
	return m.Path
}

// ModuleDependency names an import by path and package identifier.
type ModuleDependency struct {
	Path    string
	Package string
}

// EdgeType enumerates the relationship kinds between entities.
type EdgeType string

const (
	EdgeCalls       EdgeType = "calls"
	EdgeImports     EdgeType = "imports"
	EdgeReviewedBy  EdgeType = "reviewed_by"
	EdgeAuthoredBy  EdgeType = "authored_by"
	EdgeDocuments   EdgeType = "documents"
	EdgeTests       EdgeType = "tests"
	EdgePartOf      EdgeType = "part_of"
	EdgeSimilarTo   EdgeType = "similar_to"
	EdgeDependsOn   EdgeType = "depends_on"
)

// Edge is a directed, typed relationship between two known entity IDs.
type Edge struct {
	FromID     string
	ToID       string
	EdgeType   EdgeType
	SourceFile string
	Weight     float64
	Confidence float64
	ComputedAt time.Time
}
