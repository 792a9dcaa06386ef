package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/steuerkompass/editorial/internal/models"
	"github.com/steuerkompass/editorial/internal/types"
)

type PostgresConfig struct {
	ConnString  string
	TablePrefix string
	VectorDim   int
	BatchSize   int
}

// PostgresStore is the persistence/search collaborator backed by Postgres.
// Packages are stored as a row plus searchable content rows; chunk rows
// carry an optional pgvector embedding.
type PostgresStore struct {
	config PostgresConfig
	pool   *pgxpool.Pool
}

func NewPostgresStore(config PostgresConfig) (*PostgresStore, error) {
	if config.TablePrefix == "" {
		config.TablePrefix = "editorial"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 768
	}
	if config.BatchSize == 0 {
		config.BatchSize = 100
	}

	pool, err := pgxpool.New(context.Background(), config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	ps := &PostgresStore{config: config, pool: pool}
	if err := ps.initialize(); err != nil {
		pool.Close()
		return nil, err
	}

	return ps, nil
}

func (ps *PostgresStore) initialize() error {
	ctx := context.Background()

	_, err := ps.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return fmt.Errorf("failed to create vector extension: %v", err)
	}

	createPackages := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s_packages (
			package_id TEXT PRIMARY KEY,
			topic TEXT NOT NULL,
			version INTEGER NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			coverage_score DOUBLE PRECISION,
			consistency_score DOUBLE PRECISION,
			authority_score DOUBLE PRECISION,
			total_violations INTEGER,
			payload JSONB NOT NULL
		)`, ps.config.TablePrefix)

	if _, err := ps.pool.Exec(ctx, createPackages); err != nil {
		return fmt.Errorf("failed to create packages table: %v", err)
	}

	createContent := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s_content (
			id TEXT PRIMARY KEY,
			package_id TEXT NOT NULL,
			topic TEXT NOT NULL,
			content_type TEXT NOT NULL,
			title TEXT,
			body TEXT NOT NULL,
			embedding vector(%d)
		)`, ps.config.TablePrefix, ps.config.VectorDim)

	if _, err := ps.pool.Exec(ctx, createContent); err != nil {
		return fmt.Errorf("failed to create content table: %v", err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_content_topic_idx
		ON %s_content (topic, content_type)`,
		ps.config.TablePrefix, ps.config.TablePrefix)

	if _, err := ps.pool.Exec(ctx, createIndex); err != nil {
		return fmt.Errorf("failed to create content index: %v", err)
	}

	return nil
}

func (ps *PostgresStore) StorePackage(ctx context.Context, pkg *models.EditorialPackage) error {
	payload, err := json.Marshal(pkg)
	if err != nil {
		return fmt.Errorf("failed to marshal package: %v", err)
	}

	tx, err := ps.pool.Begin(ctx)
	if err != nil {
		return &models.PersistenceError{Op: "store_package", Err: err}
	}
	defer tx.Rollback(ctx)

	insertPackage := fmt.Sprintf(`
		INSERT INTO %s_packages
			(package_id, topic, version, created_at, coverage_score, consistency_score, authority_score, total_violations, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		ps.config.TablePrefix)

	_, err = tx.Exec(ctx, insertPackage,
		pkg.PackageID,
		pkg.Topic,
		pkg.Version,
		pkg.CreatedAt,
		pkg.Quality.CoverageScore,
		pkg.Quality.ConsistencyScore,
		pkg.Quality.AuthorityScore,
		pkg.Quality.TotalViolations,
		payload,
	)
	if err != nil {
		return &models.PersistenceError{Op: "store_package", Err: err}
	}

	insertContent := fmt.Sprintf(`
		INSERT INTO %s_content (id, package_id, topic, content_type, title, body, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			package_id = EXCLUDED.package_id,
			body = EXCLUDED.body,
			embedding = EXCLUDED.embedding`,
		ps.config.TablePrefix)

	for _, rule := range pkg.RuleSpecs {
		id := fmt.Sprintf("%s_%s", pkg.PackageID, rule.RuleID)
		_, err = tx.Exec(ctx, insertContent, id, pkg.PackageID, pkg.Topic, "rule", rule.RuleID, rule.Definition, nil)
		if err != nil {
			return &models.PersistenceError{Op: "store_package", Err: err}
		}
	}
	for _, note := range pkg.Notes {
		id := fmt.Sprintf("%s_%s", pkg.PackageID, note.ID)
		_, err = tx.Exec(ctx, insertContent, id, pkg.PackageID, pkg.Topic, "note", string(note.Audience), note.Text, nil)
		if err != nil {
			return &models.PersistenceError{Op: "store_package", Err: err}
		}
	}
	for i, step := range pkg.Steps {
		id := fmt.Sprintf("%s_step_%d", pkg.PackageID, i)
		_, err = tx.Exec(ctx, insertContent, id, pkg.PackageID, pkg.Topic, "step", step.Title, step.How, nil)
		if err != nil {
			return &models.PersistenceError{Op: "store_package", Err: err}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return &models.PersistenceError{Op: "store_package", Err: err}
	}

	return nil
}

// StoreChunks persists normalized chunks with their optional embeddings,
// feeding the search index.
func (ps *PostgresStore) StoreChunks(ctx context.Context, packageID, topic string, chunks []models.DocumentChunk) error {
	tx, err := ps.pool.Begin(ctx)
	if err != nil {
		return &models.PersistenceError{Op: "store_chunks", Err: err}
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(`
		INSERT INTO %s_content (id, package_id, topic, content_type, title, body, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			package_id = EXCLUDED.package_id,
			body = EXCLUDED.body,
			embedding = EXCLUDED.embedding`,
		ps.config.TablePrefix)

	for _, chunk := range chunks {
		var embedding any
		if len(chunk.Embedding) == ps.config.VectorDim {
			embedding = pgvector.NewVector(chunk.Embedding)
		}
		_, err = tx.Exec(ctx, stmt, chunk.ChunkID, packageID, topic, "chunk", chunk.Paragraph, chunk.Text, embedding)
		if err != nil {
			return &models.PersistenceError{Op: "store_chunks", Err: err}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return &models.PersistenceError{Op: "store_chunks", Err: err}
	}

	return nil
}

func (ps *PostgresStore) SearchContent(ctx context.Context, query string, filter types.SearchFilter) ([]types.ContentRecord, error) {
	if filter.Limit == 0 {
		filter.Limit = 10
	}

	sql := fmt.Sprintf(`
		SELECT id, topic, content_type, COALESCE(title, ''), body
		FROM %s_content
		WHERE body ILIKE '%%' || $1 || '%%'
			AND ($2 = '' OR content_type = $2)
			AND ($3 = '' OR topic = $3)
		LIMIT $4`,
		ps.config.TablePrefix)

	rows, err := ps.pool.Query(ctx, sql, query, filter.ContentType, filter.Topic, filter.Limit)
	if err != nil {
		return nil, &models.PersistenceError{Op: "search_content", Err: err}
	}
	defer rows.Close()

	var records []types.ContentRecord
	for rows.Next() {
		var rec types.ContentRecord
		var body string
		if err := rows.Scan(&rec.ID, &rec.Topic, &rec.Type, &rec.Title, &body); err != nil {
			return nil, &models.PersistenceError{Op: "search_content", Err: err}
		}
		rec.Snippet = snippet(body, 200)
		records = append(records, rec)
	}

	return records, nil
}

func (ps *PostgresStore) Close() {
	if ps.pool != nil {
		ps.pool.Close()
	}
}

func snippet(body string, max int) string {
	if len(body) <= max {
		return body
	}
	return body[:max]
}
