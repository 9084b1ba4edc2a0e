package report

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/alchemorsel-search/internal/enrichment"
)

type memoryStore struct {
	objects     map[string][]byte
	contentType string
	err         error
}

func (m *memoryStore) PutObject(_ context.Context, key, contentType string, body []byte) error {
	if m.err != nil {
		return m.err
	}
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[key] = body
	m.contentType = contentType
	return nil
}

func (m *memoryStore) GeneratePresignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	return "https://bucket.example/" + key + "?ttl=" + ttl.String(), nil
}

func TestArchive(t *testing.T) {
	store := &memoryStore{}
	archiver := NewS3Archiver(store, "")

	report := &enrichment.RunReport{
		RunID:           "run-42",
		Processed:       3,
		Committed:       2,
		Failed:          1,
		FailuresByStage: map[enrichment.Stage]int{enrichment.StageSummary: 1},
		FailuresByKind:  map[string]int{"validation": 1},
		LastID:          17,
	}

	key, err := archiver.Archive(context.Background(), report)
	require.NoError(t, err)
	assert.Equal(t, "enrichment-runs/run-42.json", key)
	assert.Equal(t, "application/json", store.contentType)

	var decoded enrichment.RunReport
	require.NoError(t, json.Unmarshal(store.objects[key], &decoded))
	assert.Equal(t, 2, decoded.Committed)
	assert.Equal(t, 1, decoded.FailuresByStage[enrichment.StageSummary])
	assert.Equal(t, int64(17), decoded.LastID)
}

func TestArchiveErrors(t *testing.T) {
	t.Run("should require a run id", func(t *testing.T) {
		_, err := NewS3Archiver(&memoryStore{}, "reports").Archive(context.Background(), &enrichment.RunReport{})
		assert.Error(t, err)
	})

	t.Run("should surface upload failures", func(t *testing.T) {
		store := &memoryStore{err: errors.New("access denied")}
		_, err := NewS3Archiver(store, "reports").Archive(context.Background(), &enrichment.RunReport{RunID: "r"})
		assert.ErrorContains(t, err, "access denied")
	})
}

func TestLink(t *testing.T) {
	archiver := NewS3Archiver(&memoryStore{}, "reports")
	url, err := archiver.Link(context.Background(), "run-1", 0)
	require.NoError(t, err)
	assert.Equal(t, "https://bucket.example/reports/run-1.json?ttl=15m0s", url)
}
