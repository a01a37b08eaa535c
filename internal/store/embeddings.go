package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"math"
	"sort"
	"time"

	"github.com/nateschmiedehaus/librarian-sub012/internal/types"
)

// encodeVector serializes a float32 vector to a little-endian blob.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeVector is the inverse of encodeVector.
func decodeVector(buf []byte) []float32 {
	n := len(buf) / 4
	vec := make([]float32, n)
	for i := 0; i < n; i++ {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}

// SaveMultiVector persists every populated aspect of mv as its own row.
// Vectors are stored as raw float32 blobs; spec.md §4.B's Non-goal ("no
// general-purpose vector database") rules out a dedicated ANN index, so
// similarity search (SearchSimilar, below) is a Go-side scan instead of a
// virtual-table extension.
func (s *Store) SaveMultiVector(ctx context.Context, mv *types.MultiVector) error {
	return s.WithTransaction(ctx, nil, func(tx *sql.Tx) error {
		for aspect, vec := range mv.Vectors {
			if len(vec) == 0 {
				continue
			}
			input := mv.Inputs[aspect]
			_, err := tx.ExecContext(ctx, `
				INSERT INTO embeddings (file_path, aspect, model_id, vector, input, last_updated)
				VALUES (?, ?, ?, ?, ?, ?)
				ON CONFLICT(file_path, aspect, model_id) DO UPDATE SET
					vector = excluded.vector, input = excluded.input, last_updated = excluded.last_updated
			`, mv.FilePath, string(aspect), mv.ModelID, encodeVector(vec), input, mv.LastUpdated.UnixMilli())
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadMultiVector reconstructs every stored aspect vector for filePath
// under modelID.
func (s *Store) LoadMultiVector(ctx context.Context, filePath, modelID string) (*types.MultiVector, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT aspect, vector, input, last_updated FROM embeddings
		WHERE file_path = ? AND model_id = ?`, filePath, modelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	mv := types.NewMultiVector(filePath, modelID)
	found := false
	for rows.Next() {
		var aspect, input string
		var blob []byte
		var lastUpdatedMillis int64
		if err := rows.Scan(&aspect, &blob, &input, &lastUpdatedMillis); err != nil {
			return nil, err
		}
		found = true
		if err := mv.Set(types.Aspect(aspect), decodeVector(blob), input); err != nil {
			return nil, err
		}
		if t := time.UnixMilli(lastUpdatedMillis); t.After(mv.LastUpdated) {
			mv.LastUpdated = t
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return mv, nil
}

// SimilarityMatch is one scored candidate from SearchSimilar.
type SimilarityMatch struct {
	FilePath string
	Score    float64
}

// SearchSimilar scans every stored vector for aspect/modelID and returns
// the topK most cosine-similar to query, descending, ties broken
// lexically by path. A brute-force scan is appropriate at the scale
// spec.md describes (bounded, sub-kilobyte per-entity vectors); it avoids
// standing up a dedicated vector index for a workload that doesn't need one.
func (s *Store) SearchSimilar(ctx context.Context, aspect types.Aspect, modelID string, query []float32, topK int) ([]SimilarityMatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT file_path, vector FROM embeddings WHERE aspect = ? AND model_id = ?`, string(aspect), modelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []SimilarityMatch
	for rows.Next() {
		var path string
		var blob []byte
		if err := rows.Scan(&path, &blob); err != nil {
			return nil, err
		}
		vec := decodeVector(blob)
		matches = append(matches, SimilarityMatch{FilePath: path, Score: cosineSimilarity(query, vec)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].FilePath < matches[j].FilePath
	})
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		da, db := float64(a[i]), float64(b[i])
		dot += da * db
		normA += da * da
		normB += db * db
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
