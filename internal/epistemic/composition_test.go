package epistemic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nateschmiedehaus/librarian-sub012/internal/apperrors"
)

func validComposition() Composition {
	return Composition{
		Name:         "bug-triage",
		GraphVersion: 2,
		Operators: []Operator{
			{ID: "op1", Kind: OperatorEdge},
		},
		Primitives: []string{"prim1", "prim2"},
		Relationships: []Relationship{
			{FromOperatorID: "op1", ToPrimitiveIDs: []string{"prim1", "prim2"}},
		},
	}
}

func TestValidateCompositionAcceptsWellFormedGraph(t *testing.T) {
	assert.NoError(t, ValidateComposition(validComposition()))
}

func TestValidateCompositionRejectsInvalidGraphVersion(t *testing.T) {
	c := validComposition()
	c.GraphVersion = 3
	err := ValidateComposition(c)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeCompositionGraphVersionInvalid, apperrors.CodeOf(err))
}

func TestValidateCompositionRejectsDuplicateOperatorIDs(t *testing.T) {
	c := validComposition()
	c.Operators = append(c.Operators, Operator{ID: "op1", Kind: OperatorEdge})
	err := ValidateComposition(c)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeCompositionDuplicateOperatorIDs, apperrors.CodeOf(err))
}

func TestValidateCompositionRejectsNonEdgeOperatorOriginatingEdgeUnderV2(t *testing.T) {
	c := validComposition()
	c.Operators = []Operator{{ID: "op1", Kind: OperatorPrimitive}}
	err := ValidateComposition(c)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeCompositionRelationshipEdgeOperator, apperrors.CodeOf(err))
}

func TestValidateCompositionAllowsNonEdgeOperatorUnderV1(t *testing.T) {
	c := validComposition()
	c.GraphVersion = 1
	c.Operators = []Operator{{ID: "op1", Kind: OperatorPrimitive}}
	assert.NoError(t, ValidateComposition(c))
}

func TestValidateCompositionRejectsMissingPrimitive(t *testing.T) {
	c := validComposition()
	c.Relationships[0].ToPrimitiveIDs = []string{"prim1", "does-not-exist"}
	err := ValidateComposition(c)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeCompositionMissingPrimitives, apperrors.CodeOf(err))
}

func TestValidateCompositionRejectsUnknownRelationshipOperator(t *testing.T) {
	c := validComposition()
	c.Relationships[0].FromOperatorID = "ghost-op"
	err := ValidateComposition(c)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeCompositionMissingRelationshipRefs, apperrors.CodeOf(err))
}

func TestValidateCompositionRejectsDependencyCycle(t *testing.T) {
	c := Composition{
		Name:         "cyclic",
		GraphVersion: 2,
		Operators: []Operator{
			{ID: "a", Kind: OperatorEdge},
			{ID: "b", Kind: OperatorEdge},
		},
		Primitives: []string{"a", "b"},
		Relationships: []Relationship{
			{FromOperatorID: "a", ToPrimitiveIDs: []string{"b"}},
			{FromOperatorID: "b", ToPrimitiveIDs: []string{"a"}},
		},
	}
	err := ValidateComposition(c)
	require.Error(t, err)
}

func TestCompositionRegistryRejectsCrossCompositionOperatorCollision(t *testing.T) {
	r := NewCompositionRegistry()
	require.NoError(t, r.Register(validComposition()))

	other := validComposition()
	other.Name = "security-review"
	err := r.Register(other)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeCompositionOperatorIDCollision, apperrors.CodeOf(err))
}

func TestCompositionRegistryAllowsReRegisteringSameComposition(t *testing.T) {
	r := NewCompositionRegistry()
	require.NoError(t, r.Register(validComposition()))
	assert.NoError(t, r.Register(validComposition()))
}
