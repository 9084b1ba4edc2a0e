package store

import (
	"context"
	"fmt"
	"strings"

	pgvector "github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/pageza/alchemorsel-search/internal/search"
)

// CandidateStore retrieves recipes nearest to a query embedding using the
// pgvector cosine distance operator. It requires postgres.
type CandidateStore struct {
	db *gorm.DB
}

func NewCandidateStore(db *gorm.DB) *CandidateStore {
	return &CandidateStore{db: db}
}

// FindBySimilarity implements search.CandidateRetriever. Recipes without an
// embedding are never returned.
func (s *CandidateStore) FindBySimilarity(ctx context.Context, embedding []float32, limit int, titleContains string) ([]search.SimilarityCandidate, error) {
	if limit <= 0 {
		return nil, nil
	}
	vec := pgvector.NewVector(embedding)

	var sb strings.Builder
	sb.WriteString(`SELECT id, title, summary,
		embedding <=> ? AS cosine_distance,
		1 - (embedding <=> ?) AS raw_similarity
	FROM recipes
	WHERE deleted_at IS NULL AND embedding IS NOT NULL`)
	args := []interface{}{vec, vec}
	if t := strings.TrimSpace(titleContains); t != "" {
		sb.WriteString(` AND title ILIKE ?`)
		args = append(args, "%"+escapeLike(t)+"%")
	}
	sb.WriteString(` ORDER BY embedding <=> ? LIMIT ?`)
	args = append(args, vec, limit)

	var rows []search.SimilarityCandidate
	if err := s.db.WithContext(ctx).Raw(sb.String(), args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("similarity query: %w", err)
	}
	return rows, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
