package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
)

// PostgresStore keeps documents in a pgvector-enabled PostgreSQL table.
type PostgresStore struct {
	pool       *pgxpool.Pool
	dimensions int
}

func NewPostgresStore(ctx context.Context, dsn string, dimensions int) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres DSN: %w", err)
	}
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	s := &PostgresStore{pool: pool, dimensions: dimensions}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("failed to enable pgvector extension: %w", err)
	}

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS codescout_documents (
		id TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		doc_type TEXT NOT NULL,
		language TEXT NOT NULL DEFAULT '',
		project_path TEXT NOT NULL DEFAULT '',
		project_name TEXT NOT NULL DEFAULT '',
		file TEXT NOT NULL DEFAULT '',
		line INT NOT NULL DEFAULT 0,
		symbol TEXT NOT NULL DEFAULT '',
		embedding vector(%d) NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, s.dimensions)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}

	if _, err := s.pool.Exec(ctx,
		`CREATE INDEX IF NOT EXISTS codescout_documents_project_idx ON codescout_documents (project_path)`); err != nil {
		return fmt.Errorf("failed to create project index: %w", err)
	}
	return nil
}

func (s *PostgresStore) AddDocuments(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, doc := range docs {
		batch.Queue(`INSERT INTO codescout_documents
			(id, text, doc_type, language, project_path, project_name, file, line, symbol, embedding, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
			ON CONFLICT (id) DO UPDATE SET
				text = EXCLUDED.text,
				doc_type = EXCLUDED.doc_type,
				language = EXCLUDED.language,
				project_path = EXCLUDED.project_path,
				project_name = EXCLUDED.project_name,
				file = EXCLUDED.file,
				line = EXCLUDED.line,
				symbol = EXCLUDED.symbol,
				embedding = EXCLUDED.embedding,
				updated_at = now()`,
			doc.ID, doc.Text, string(doc.Metadata.Type), doc.Metadata.Language,
			doc.Metadata.ProjectPath, doc.Metadata.ProjectName, doc.Metadata.File,
			doc.Metadata.Line, doc.Metadata.Symbol, pgvector.NewVector(doc.Vector))
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range docs {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to upsert document: %w", err)
		}
	}
	return nil
}

func postgresWhere(filter *Filter, args []any) (string, []any) {
	if filter == nil {
		return "", args
	}
	clause := ""
	add := func(col, val string) {
		args = append(args, val)
		if clause != "" {
			clause += " AND "
		}
		clause += fmt.Sprintf("%s = $%d", col, len(args))
	}
	if filter.Type != "" {
		add("doc_type", string(filter.Type))
	}
	if filter.Language != "" {
		add("language", string(filter.Language))
	}
	if filter.ProjectPath != "" {
		add("project_path", filter.ProjectPath)
	}
	return clause, args
}

func (s *PostgresStore) Search(ctx context.Context, vector []float32, limit int, filter *Filter) ([]SearchResult, error) {
	args := []any{pgvector.NewVector(vector)}
	where, args := postgresWhere(filter, args)
	if where != "" {
		where = "WHERE " + where
	}
	args = append(args, limit)

	query := fmt.Sprintf(`SELECT id, text, doc_type, language, project_path, project_name, file, line, symbol,
			1 - (embedding <=> $1) AS score
		FROM codescout_documents %s
		ORDER BY embedding <=> $1
		LIMIT $%d`, where, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var docType string
		err := rows.Scan(&r.Document.ID, &r.Document.Text, &docType,
			&r.Document.Metadata.Language, &r.Document.Metadata.ProjectPath,
			&r.Document.Metadata.ProjectName, &r.Document.Metadata.File,
			&r.Document.Metadata.Line, &r.Document.Metadata.Symbol, &r.Score)
		if err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		r.Document.Metadata.Type = DocType(docType)
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *PostgresStore) DeleteByProject(ctx context.Context, projectPath string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM codescout_documents WHERE project_path = $1`, projectPath)
	if err != nil {
		return fmt.Errorf("failed to delete project documents: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteByType(ctx context.Context, t DocType) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM codescout_documents WHERE doc_type = $1`, string(t))
	if err != nil {
		return fmt.Errorf("failed to delete documents by type: %w", err)
	}
	return nil
}

func (s *PostgresStore) Count(ctx context.Context, filter *Filter) (int, error) {
	where, args := postgresWhere(filter, nil)
	query := `SELECT count(*) FROM codescout_documents`
	if where != "" {
		query += " WHERE " + where
	}

	var n int
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}

// Load is a no-op: documents live server-side.
func (s *PostgresStore) Load(ctx context.Context) error { return nil }

// Persist is a no-op: writes are durable on commit.
func (s *PostgresStore) Persist(ctx context.Context) error { return nil }

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByType: make(map[DocType]int)}

	rows, err := s.pool.Query(ctx, `SELECT doc_type, count(*) FROM codescout_documents GROUP BY doc_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to query document stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, fmt.Errorf("failed to scan stats row: %w", err)
		}
		stats.ByType[DocType(t)] = n
		stats.TotalDocuments += n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var updated *time.Time
	if err := s.pool.QueryRow(ctx, `SELECT max(updated_at) FROM codescout_documents`).Scan(&updated); err == nil && updated != nil {
		stats.LastUpdated = *updated
	}
	return stats, nil
}
