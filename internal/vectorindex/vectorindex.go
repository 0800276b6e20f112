package vectorindex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fadilmartias/resume-screener/internal/logger"
)

const tableName = "resume_vectors"

var (
	ErrEmptyFilter    = errors.New("vector index: delete requires a non-empty filter")
	ErrEmptyVector    = errors.New("vector index: empty vector")
	ErrIndexNotExists = errors.New("vector index: table does not exist")
)

// DimensionMismatchError means the stored index was built for another
// embedding provider. It is a setup error; recreate the index to fix it.
type DimensionMismatchError struct {
	Stored int
	Want   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vector index dimension is %d but the embedding provider produces %d; recreate the index", e.Stored, e.Want)
}

type Match struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata"`
}

type Index interface {
	Upsert(ctx context.Context, id string, vector []float32, metadata map[string]any) (string, error)
	Search(ctx context.Context, query []float32, topK int, filter map[string]any) ([]Match, error)
	Delete(ctx context.Context, filter map[string]any) (int64, error)
}

// PGIndex stores vectors in a pgvector table sized to one dimension.
type PGIndex struct {
	db        *gorm.DB
	dimension int
	logger    *zap.Logger
}

func New(db *gorm.DB, dimension int, log *zap.Logger) *PGIndex {
	return &PGIndex{db: db, dimension: dimension, logger: logger.OrNop(log).Named("vectorindex")}
}

func (x *PGIndex) Dimension() int {
	return x.dimension
}

// StoredDimension reads the declared dimension of the embedding column.
func (x *PGIndex) StoredDimension(ctx context.Context) (int, error) {
	var typmod []int
	err := x.db.WithContext(ctx).Raw(`
		SELECT a.atttypmod
		FROM pg_attribute a
		JOIN pg_class c ON a.attrelid = c.oid
		WHERE c.relname = ? AND a.attname = 'embedding' AND NOT a.attisdropped
	`, tableName).Scan(&typmod).Error
	if err != nil {
		return 0, fmt.Errorf("read index dimension: %w", err)
	}
	if len(typmod) == 0 {
		return 0, ErrIndexNotExists
	}
	return typmod[0], nil
}

// Ensure creates the index if missing and verifies its dimension. A
// mismatch drops and recreates the table only when recreate is set.
func (x *PGIndex) Ensure(ctx context.Context, recreate bool) error {
	db := x.db.WithContext(ctx)
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS vector`).Error; err != nil {
		return fmt.Errorf("enable pgvector: %w", err)
	}

	stored, err := x.StoredDimension(ctx)
	switch {
	case errors.Is(err, ErrIndexNotExists):
		return x.create(db)
	case err != nil:
		return err
	}

	if err := checkDimension(stored, x.dimension); err != nil {
		if !recreate {
			return err
		}
		x.logger.Warn("recreating vector index", zap.Int("stored_dimension", stored), zap.Int("dimension", x.dimension))
		if err := db.Exec(`DROP TABLE IF EXISTS ` + tableName).Error; err != nil {
			return fmt.Errorf("drop vector index: %w", err)
		}
		return x.create(db)
	}
	return nil
}

func (x *PGIndex) create(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		stmts := []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				id uuid PRIMARY KEY,
				embedding vector(%d) NOT NULL,
				metadata jsonb NOT NULL DEFAULT '{}',
				created_at timestamptz NOT NULL DEFAULT now()
			)`, tableName, x.dimension),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %[1]s_metadata_idx ON %[1]s USING gin (metadata)`, tableName),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %[1]s_embedding_idx ON %[1]s USING hnsw (embedding vector_cosine_ops)`, tableName),
		}
		for _, stmt := range stmts {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("create vector index: %w", err)
			}
		}
		x.logger.Info("vector index ready", zap.Int("dimension", x.dimension))
		return nil
	})
}

// Upsert stores vector under id, generating one when id is empty.
func (x *PGIndex) Upsert(ctx context.Context, id string, vector []float32, metadata map[string]any) (string, error) {
	if len(vector) == 0 {
		return "", ErrEmptyVector
	}
	if err := checkDimension(len(vector), x.dimension); err != nil {
		return "", err
	}
	if id == "" {
		id = uuid.NewString()
	}
	meta, err := toJSON(metadata)
	if err != nil {
		return "", err
	}

	err = x.db.WithContext(ctx).Exec(`
		INSERT INTO `+tableName+` (id, embedding, metadata)
		VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET embedding = EXCLUDED.embedding, metadata = EXCLUDED.metadata
	`, id, pgvector.NewVector(vector), meta).Error
	if err != nil {
		return "", fmt.Errorf("upsert vector: %w", err)
	}
	return id, nil
}

// Search returns the topK nearest vectors by cosine distance whose metadata
// contains filter. Score is cosine similarity.
func (x *PGIndex) Search(ctx context.Context, query []float32, topK int, filter map[string]any) ([]Match, error) {
	if len(query) == 0 {
		return []Match{}, nil
	}
	if err := checkDimension(len(query), x.dimension); err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = 10
	}
	meta, err := toJSON(filter)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		ID       string
		Score    float64
		Metadata datatypes.JSON
	}
	vec := pgvector.NewVector(query)
	err = x.db.WithContext(ctx).Raw(`
		SELECT id::text AS id, 1 - (embedding <=> ?) AS score, metadata
		FROM `+tableName+`
		WHERE metadata @> ?
		ORDER BY embedding <=> ?
		LIMIT ?
	`, vec, meta, vec, topK).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("search vectors: %w", err)
	}

	matches := make([]Match, 0, len(rows))
	for _, r := range rows {
		m := Match{ID: r.ID, Score: r.Score, Metadata: map[string]any{}}
		if len(r.Metadata) > 0 {
			if err := json.Unmarshal(r.Metadata, &m.Metadata); err != nil {
				return nil, fmt.Errorf("decode vector metadata: %w", err)
			}
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// Delete removes every vector whose metadata contains filter.
func (x *PGIndex) Delete(ctx context.Context, filter map[string]any) (int64, error) {
	if len(filter) == 0 {
		return 0, ErrEmptyFilter
	}
	meta, err := toJSON(filter)
	if err != nil {
		return 0, err
	}
	res := x.db.WithContext(ctx).Exec(`DELETE FROM `+tableName+` WHERE metadata @> ?`, meta)
	if res.Error != nil {
		return 0, fmt.Errorf("delete vectors: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func checkDimension(got, want int) error {
	if got != want {
		return &DimensionMismatchError{Stored: got, Want: want}
	}
	return nil
}

func toJSON(m map[string]any) (datatypes.JSON, error) {
	if m == nil {
		m = map[string]any{}
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode vector metadata: %w", err)
	}
	return datatypes.JSON(raw), nil
}
