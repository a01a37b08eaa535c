// Package symbols extracts functions, types, and import edges from
// source files via tree-sitter, for the Indexing Pipeline's structural
// scan and symbol-extraction phases (spec.md §4.D). Adapted from the
// teacher's internal/world/ast_treesitter.go, which emitted generic
// Mangle facts ("symbol_graph"/"dependency_link" predicate tuples);
// here the same per-language AST walks instead populate typed Symbol and
// Dependency values that feed directly into internal/types entities.
package symbols

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Kind names what a Symbol represents.
type Kind string

const (
	KindFunction  Kind = "function"
	KindMethod    Kind = "method"
	KindType      Kind = "type"
	KindStruct    Kind = "struct"
	KindInterface Kind = "interface"
	KindClass     Kind = "class"
	KindEnum      Kind = "enum"
	KindModule    Kind = "module"
	KindField     Kind = "field"
)

// Visibility is the exported/private classification of a Symbol.
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityPrivate   Visibility = "private"
	VisibilityProtected Visibility = "protected"
)

// Symbol is one extracted function, method, type, or field.
type Symbol struct {
	ID         string
	Kind       Kind
	Visibility Visibility
	Path       string
	Signature  string
	StartLine  int
	EndLine    int
}

// Dependency is one extracted import/use edge from a file to an external
// package or module path.
type Dependency struct {
	FromPath string
	Target   string // "pkg:net/http", "mod:os", "crate:serde", ...
	RawPath  string
}

// Language identifies which tree-sitter grammar to use.
type Language string

const (
	LangGo         Language = "go"
	LangPython     Language = "python"
	LangRust       Language = "rust"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangUnknown    Language = ""
)

// LanguageForPath infers a Language from a file extension.
func LanguageForPath(path string) Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return LangGo
	case ".py":
		return LangPython
	case ".rs":
		return LangRust
	case ".js", ".jsx", ".mjs":
		return LangJavaScript
	case ".ts", ".tsx":
		return LangTypeScript
	default:
		return LangUnknown
	}
}

// Parser holds one tree-sitter parser per supported language, reused
// across files to avoid re-allocating grammar state per call.
type Parser struct {
	goParser     *sitter.Parser
	pythonParser *sitter.Parser
	rustParser   *sitter.Parser
	jsParser     *sitter.Parser
	tsParser     *sitter.Parser
}

// NewParser constructs a Parser with every supported grammar loaded.
func NewParser() *Parser {
	goP := sitter.NewParser()
	goP.SetLanguage(golang.GetLanguage())
	pyP := sitter.NewParser()
	pyP.SetLanguage(python.GetLanguage())
	rsP := sitter.NewParser()
	rsP.SetLanguage(rust.GetLanguage())
	jsP := sitter.NewParser()
	jsP.SetLanguage(javascript.GetLanguage())
	tsP := sitter.NewParser()
	tsP.SetLanguage(typescript.GetLanguage())
	return &Parser{goParser: goP, pythonParser: pyP, rustParser: rsP, jsParser: jsP, tsParser: tsP}
}

// Close releases every underlying tree-sitter parser.
func (p *Parser) Close() {
	p.goParser.Close()
	p.pythonParser.Close()
	p.rustParser.Close()
	p.jsParser.Close()
	p.tsParser.Close()
}

// Parse dispatches to the language-specific extractor for path's
// extension. Unsupported languages return (nil, nil, nil) — a file the
// pipeline should still classify and cache, just without symbols.
func (p *Parser) Parse(ctx context.Context, path string, content []byte) ([]Symbol, []Dependency, error) {
	switch LanguageForPath(path) {
	case LangGo:
		return p.parseWith(ctx, p.goParser, path, content, extractGo)
	case LangPython:
		return p.parseWith(ctx, p.pythonParser, path, content, extractPython)
	case LangRust:
		return p.parseWith(ctx, p.rustParser, path, content, extractRust)
	case LangJavaScript:
		return p.parseWith(ctx, p.jsParser, path, content, extractJS)
	case LangTypeScript:
		return p.parseWith(ctx, p.tsParser, path, content, extractJS)
	default:
		return nil, nil, nil
	}
}

type extractorFunc func(root *sitter.Node, path, content string) ([]Symbol, []Dependency)

func (p *Parser) parseWith(ctx context.Context, parser *sitter.Parser, path string, content []byte, extract extractorFunc) ([]Symbol, []Dependency, error) {
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()
	syms, deps := extract(tree.RootNode(), path, string(content))
	return syms, deps, nil
}

func exported(name string) bool {
	return len(name) > 0 && name[0] >= 'A' && name[0] <= 'Z'
}

func visibilityFromExported(name string) Visibility {
	if exported(name) {
		return VisibilityPublic
	}
	return VisibilityPrivate
}

func lineRange(n *sitter.Node) (int, int) {
	return int(n.StartPoint().Row) + 1, int(n.EndPoint().Row) + 1
}

func walk(n *sitter.Node, visit func(*sitter.Node)) {
	visit(n)
	for i := 0; i < int(n.ChildCount()); i++ {
		walk(n.Child(i), visit)
	}
}
