package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/clearfreight-labs/htsclass/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/clearfreight-labs/htsclass/internal/core/domain"
	"github.com/clearfreight-labs/htsclass/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides the embedding
// cache and feedback log interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.htsclass/data/htsclass.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".htsclass", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "htsclass.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// EmbeddingCache returns an EmbeddingCache interface backed by this store.
func (s *Store) EmbeddingCache() driven.EmbeddingCache {
	return &embeddingCache{store: s}
}

// FeedbackLog returns a FeedbackLog interface backed by this store.
func (s *Store) FeedbackLog() driven.FeedbackLog {
	return &feedbackLog{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version,
		); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Embedding Cache ====================

// embeddingCache implements driven.EmbeddingCache.
type embeddingCache struct {
	store *Store
}

var _ driven.EmbeddingCache = (*embeddingCache)(nil)

// Get retrieves a cached record by key.
func (c *embeddingCache) Get(ctx context.Context, key string) (*domain.CacheRecord, error) {
	row := c.store.db.QueryRowContext(ctx, `
		SELECT key, model_version, normalized_text, text_hash, vector, last_access
		FROM embedding_cache WHERE key = ?
	`, key)

	rec, err := scanCacheRecord(row)
	if err != nil {
		return nil, err
	}

	// Touch last_access outside the read path's error flow; a failed
	// touch does not fail the read.
	now := time.Now().UTC()
	if _, err := c.store.db.ExecContext(ctx,
		"UPDATE embedding_cache SET last_access = ? WHERE key = ?", now, key,
	); err == nil {
		rec.LastAccess = now
	}

	return rec, nil
}

// Put stores a record under its key, overwriting any previous value.
func (c *embeddingCache) Put(ctx context.Context, rec domain.CacheRecord) error {
	if rec.LastAccess.IsZero() {
		rec.LastAccess = time.Now().UTC()
	}

	_, err := c.store.db.ExecContext(ctx, `
		INSERT INTO embedding_cache (key, model_version, normalized_text, text_hash, vector, last_access)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			model_version = excluded.model_version,
			normalized_text = excluded.normalized_text,
			text_hash = excluded.text_hash,
			vector = excluded.vector,
			last_access = excluded.last_access
	`, rec.Key, rec.Vector.ModelVersion, rec.NormalizedText, rec.Vector.TextHash,
		float32SliceToBytes(rec.Vector.Values), rec.LastAccess)

	if err != nil {
		return fmt.Errorf("saving cache record: %w", err)
	}
	return nil
}

// Scan visits every record for the given model version.
func (c *embeddingCache) Scan(ctx context.Context, modelVersion string, fn func(domain.CacheRecord) bool) error {
	rows, err := c.store.db.QueryContext(ctx, `
		SELECT key, model_version, normalized_text, text_hash, vector, last_access
		FROM embedding_cache WHERE model_version = ?
	`, modelVersion)
	if err != nil {
		return fmt.Errorf("querying cache records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanCacheRecordRows(rows)
		if err != nil {
			return err
		}
		if !fn(*rec) {
			return nil
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating cache records: %w", err)
	}
	return nil
}

// Close is a no-op; the owning Store closes the connection.
func (c *embeddingCache) Close() error {
	return nil
}

// ==================== Feedback Log ====================

// feedbackLog implements driven.FeedbackLog.
type feedbackLog struct {
	store *Store
}

var _ driven.FeedbackLog = (*feedbackLog)(nil)

// Append adds a record to the log.
func (l *feedbackLog) Append(ctx context.Context, rec domain.FeedbackRecord) error {
	if rec.ID == "" || rec.QueryText == "" {
		return domain.ErrInvalidInput
	}

	_, err := l.store.db.ExecContext(ctx, `
		INSERT INTO feedback_records (id, query_text, query_embedding, predicted_code, corrected_code, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.QueryText, float32SliceToBytes(rec.QueryEmbedding),
		rec.PredictedCode, rec.CorrectedCode, rec.Timestamp.UTC())

	if err != nil {
		return fmt.Errorf("appending feedback record: %w", err)
	}
	return nil
}

// Latest returns the most recent record for the given normalized text.
func (l *feedbackLog) Latest(ctx context.Context, queryText string) (*domain.FeedbackRecord, error) {
	row := l.store.db.QueryRowContext(ctx, `
		SELECT id, query_text, query_embedding, predicted_code, corrected_code, timestamp
		FROM feedback_records WHERE query_text = ?
		ORDER BY timestamp DESC LIMIT 1
	`, queryText)

	return scanFeedbackRecord(row)
}

// Since returns all records with Timestamp at or after the cutoff,
// oldest first.
func (l *feedbackLog) Since(ctx context.Context, cutoff time.Time) ([]domain.FeedbackRecord, error) {
	rows, err := l.store.db.QueryContext(ctx, `
		SELECT id, query_text, query_embedding, predicted_code, corrected_code, timestamp
		FROM feedback_records WHERE timestamp >= ?
		ORDER BY timestamp ASC
	`, cutoff.UTC())
	if err != nil {
		return nil, fmt.Errorf("querying feedback records: %w", err)
	}
	defer rows.Close()

	var records []domain.FeedbackRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		rec, err := scanFeedbackRecordRows(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating feedback records: %w", err)
	}
	return records, nil
}

// Close is a no-op; the owning Store closes the connection.
func (l *feedbackLog) Close() error {
	return nil
}

// ==================== Helper Functions ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// scanCacheRecord scans a single cache record row.
func scanCacheRecord(row *sql.Row) (*domain.CacheRecord, error) {
	var rec domain.CacheRecord
	var vectorBlob []byte
	var lastAccess sql.NullTime

	if err := row.Scan(&rec.Key, &rec.Vector.ModelVersion, &rec.NormalizedText,
		&rec.Vector.TextHash, &vectorBlob, &lastAccess); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning cache record: %w", err)
	}

	rec.Vector.Values = bytesToFloat32Slice(vectorBlob)
	if lastAccess.Valid {
		rec.LastAccess = lastAccess.Time
	}
	return &rec, nil
}

// scanCacheRecordRows scans a cache record from *sql.Rows.
func scanCacheRecordRows(rows *sql.Rows) (*domain.CacheRecord, error) {
	var rec domain.CacheRecord
	var vectorBlob []byte
	var lastAccess sql.NullTime

	if err := rows.Scan(&rec.Key, &rec.Vector.ModelVersion, &rec.NormalizedText,
		&rec.Vector.TextHash, &vectorBlob, &lastAccess); err != nil {
		return nil, fmt.Errorf("scanning cache record: %w", err)
	}

	rec.Vector.Values = bytesToFloat32Slice(vectorBlob)
	if lastAccess.Valid {
		rec.LastAccess = lastAccess.Time
	}
	return &rec, nil
}

// scanFeedbackRecord scans a single feedback record row.
func scanFeedbackRecord(row *sql.Row) (*domain.FeedbackRecord, error) {
	var rec domain.FeedbackRecord
	var embeddingBlob []byte
	var ts sql.NullTime

	if err := row.Scan(&rec.ID, &rec.QueryText, &embeddingBlob,
		&rec.PredictedCode, &rec.CorrectedCode, &ts); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning feedback record: %w", err)
	}

	rec.QueryEmbedding = bytesToFloat32Slice(embeddingBlob)
	if ts.Valid {
		rec.Timestamp = ts.Time
	}
	return &rec, nil
}

// scanFeedbackRecordRows scans a feedback record from *sql.Rows.
func scanFeedbackRecordRows(rows *sql.Rows) (*domain.FeedbackRecord, error) {
	var rec domain.FeedbackRecord
	var embeddingBlob []byte
	var ts sql.NullTime

	if err := rows.Scan(&rec.ID, &rec.QueryText, &embeddingBlob,
		&rec.PredictedCode, &rec.CorrectedCode, &ts); err != nil {
		return nil, fmt.Errorf("scanning feedback record: %w", err)
	}

	rec.QueryEmbedding = bytesToFloat32Slice(embeddingBlob)
	if ts.Valid {
		rec.Timestamp = ts.Time
	}
	return &rec, nil
}
