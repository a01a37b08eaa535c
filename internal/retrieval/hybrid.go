package retrieval

// HybridWeights are the α/β/γ coefficients of the final hybrid score.
type HybridWeights struct {
	Semantic   float64 // α
	Keyword    float64 // β
	Structural float64 // γ
}

// DefaultHybridWeights matches spec.md §4.G's defaults.
func DefaultHybridWeights() HybridWeights {
	return HybridWeights{Semantic: 0.60, Keyword: 0.30, Structural: 0.10}
}

const maxStructuralBoost = 0.50

// StructuralBoost adds up to +0.50 when a candidate imports or is
// imported by the top results, or shares a module with them.
func StructuralBoost(candidate string, candidateModule string, topImports, topImportedBy map[string]bool, topModules map[string]bool) float64 {
	var boost float64
	if topImports[candidate] {
		boost += 0.2
	}
	if topImportedBy[candidate] {
		boost += 0.2
	}
	if candidateModule != "" && topModules[candidateModule] {
		boost += 0.1
	}
	if boost > maxStructuralBoost {
		boost = maxStructuralBoost
	}
	return boost
}

// HybridScore computes α·semantic + β·keyword + γ·structuralBoost.
func HybridScore(semantic, keyword, structuralBoost float64, w HybridWeights) float64 {
	return w.Semantic*semantic + w.Keyword*keyword + w.Structural*structuralBoost
}
