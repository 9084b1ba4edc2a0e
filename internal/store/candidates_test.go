package store

import (
	"context"
	"testing"

	pgvector "github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/alchemorsel-search/internal/model"
	"github.com/pageza/alchemorsel-search/internal/testhelpers"
)

func unitVector(axis int, lean float32) []float32 {
	v := make([]float32, 768)
	v[axis] = 1
	v[(axis+1)%768] = lean
	return v
}

func TestFindBySimilarity(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	ctx := context.Background()

	seed := []struct {
		title     string
		embedding []float32
	}{
		{"Spicy Tofu", unitVector(0, 0.1)},
		{"Tofu Soup", unitVector(0, 0.5)},
		{"Beef Stew", unitVector(5, 0)},
	}
	ids := make([]int64, len(seed))
	for i, s := range seed {
		vec := pgvector.NewVector(s.embedding)
		r := model.Recipe{Title: s.title, Instructions: "cook", Embedding: &vec}
		require.NoError(t, db.Create(&r).Error)
		ids[i] = r.ID
	}
	require.NoError(t, db.Create(&model.Recipe{Title: "Unenriched Tofu", Instructions: "cook"}).Error)

	candidates := NewCandidateStore(db)
	query := unitVector(0, 0)

	t.Run("should order by cosine distance", func(t *testing.T) {
		got, err := candidates.FindBySimilarity(ctx, query, 10, "")
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, []int64{ids[0], ids[1], ids[2]}, []int64{got[0].ID, got[1].ID, got[2].ID})
		assert.InDelta(t, 1-got[0].CosineDistance, got[0].RawSimilarity, 1e-6)
		assert.InDelta(t, 0, got[2].RawSimilarity, 1e-6)
	})

	t.Run("should respect the limit", func(t *testing.T) {
		got, err := candidates.FindBySimilarity(ctx, query, 1, "")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, ids[0], got[0].ID)
	})

	t.Run("should filter titles case-insensitively", func(t *testing.T) {
		got, err := candidates.FindBySimilarity(ctx, query, 10, "soup")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Tofu Soup", got[0].Title)
	})
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_now\\`, escapeLike(`50% off_now\`))
}
