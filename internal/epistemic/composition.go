package epistemic

import (
	"github.com/nateschmiedehaus/librarian-sub012/internal/apperrors"
)

// OperatorKind distinguishes an operator that may originate a
// relationship edge from one that may only be a target (spec.md §9
// design notes: "edges from non-edge operators forbidden" under graph
// version 2).
type OperatorKind string

const (
	OperatorPrimitive OperatorKind = "primitive"
	OperatorEdge      OperatorKind = "edge"
)

// Operator is one node in a composition graph: a technique primitive or
// an edge operator, identified by a workspace-unique ID.
type Operator struct {
	ID   string
	Kind OperatorKind
}

// Relationship is one directed edge in a composition graph, from an
// operator to the primitives or operators it composes.
type Relationship struct {
	FromOperatorID string
	ToPrimitiveIDs []string
}

// Composition is a named arrangement of technique primitives, operators,
// and relationships forming a reusable reasoning pattern (spec.md
// glossary). GraphVersion gates which structural rules apply.
type Composition struct {
	Name          string
	GraphVersion  int
	Operators     []Operator
	Primitives    []string
	Relationships []Relationship
}

// ValidateComposition checks a Composition against spec.md §9's
// referential-integrity rules, returning the first violation found as a
// *apperrors.Error carrying one of the composition_* codes, or nil if the
// graph is well-formed. Grounded on internal/epistemic.SupportGraph's
// arena (id-keyed adjacency) shape, generalized from an undirected
// support walk to a directed, validated dependency graph.
func ValidateComposition(c Composition) error {
	if c.GraphVersion != 1 && c.GraphVersion != 2 {
		return apperrors.New(apperrors.CodeCompositionGraphVersionInvalid, "graph version must be 1 or 2")
	}

	operatorByID := make(map[string]Operator, len(c.Operators))
	for _, op := range c.Operators {
		if _, dup := operatorByID[op.ID]; dup {
			return apperrors.New(apperrors.CodeCompositionDuplicateOperatorIDs, "duplicate operator id: "+op.ID)
		}
		operatorByID[op.ID] = op
	}

	primitiveSet := make(map[string]bool, len(c.Primitives))
	for _, p := range c.Primitives {
		primitiveSet[p] = true
	}

	for _, rel := range c.Relationships {
		from, ok := operatorByID[rel.FromOperatorID]
		if !ok {
			return apperrors.New(apperrors.CodeCompositionMissingRelationshipRefs, "relationship references unknown operator: "+rel.FromOperatorID)
		}
		if c.GraphVersion >= 2 && from.Kind != OperatorEdge {
			return apperrors.New(apperrors.CodeCompositionRelationshipEdgeOperator, "relationship originates from a non-edge operator: "+rel.FromOperatorID)
		}
		if len(rel.ToPrimitiveIDs) == 0 {
			return apperrors.New(apperrors.CodeCompositionMissingPrimitives, "relationship has no target primitives: "+rel.FromOperatorID)
		}
		for _, p := range rel.ToPrimitiveIDs {
			if !primitiveSet[p] {
				return apperrors.New(apperrors.CodeCompositionMissingPrimitives, "relationship references unknown primitive: "+p)
			}
		}
	}

	if id, ok := findCompositionCycle(c.Relationships); ok {
		return apperrors.New(apperrors.CodeCompositionMissingRelationshipRefs, "composition dependency cycle at operator: "+id).WithTrace("composition_dependency_cycle")
	}
	return nil
}

// CompositionRegistry holds the set of compositions an engine has
// accepted, so a later registration can be checked for an operator ID
// that collides with one already claimed by a different composition
// (distinct from CodeCompositionDuplicateOperatorIDs, which catches a
// collision within a single incoming graph).
type CompositionRegistry struct {
	ownerOf map[string]string // operator ID -> owning composition name
}

// NewCompositionRegistry returns an empty registry.
func NewCompositionRegistry() *CompositionRegistry {
	return &CompositionRegistry{ownerOf: make(map[string]string)}
}

// Register validates c and, if valid, claims its operator IDs; it
// rejects c without registering anything if any operator ID is already
// owned by a different composition.
func (r *CompositionRegistry) Register(c Composition) error {
	if err := ValidateComposition(c); err != nil {
		return err
	}
	for _, op := range c.Operators {
		if owner, claimed := r.ownerOf[op.ID]; claimed && owner != c.Name {
			return apperrors.New(apperrors.CodeCompositionOperatorIDCollision, "operator id already owned by composition "+owner+": "+op.ID)
		}
	}
	for _, op := range c.Operators {
		r.ownerOf[op.ID] = c.Name
	}
	return nil
}

// findCompositionCycle detects a cycle in the operator-to-operator
// dependency graph implied by relationships (an operator "depends on"
// any operator that is itself a target primitive ID). Composition
// dependency graphs forbid cycles outright (spec.md §9), unlike the
// co-change and support graphs elsewhere in this package, which tolerate
// them.
func findCompositionCycle(relationships []Relationship) (string, bool) {
	adjacency := make(map[string][]string, len(relationships))
	for _, rel := range relationships {
		adjacency[rel.FromOperatorID] = append(adjacency[rel.FromOperatorID], rel.ToPrimitiveIDs...)
	}

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(adjacency))

	var visit func(id string) bool
	visit = func(id string) bool {
		switch state[id] {
		case visiting:
			return true
		case done:
			return false
		}
		state[id] = visiting
		for _, next := range adjacency[id] {
			if visit(next) {
				return true
			}
		}
		state[id] = done
		return false
	}

	for id := range adjacency {
		if visit(id) {
			return id, true
		}
	}
	return "", false
}
