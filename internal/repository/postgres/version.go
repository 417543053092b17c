package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"innerflame/internal/domain"
	"innerflame/internal/domain/models"
	"innerflame/internal/domain/repositories"
)

// PostgresVersionRepository implements the VersionRepository interface.
// A partial unique index on (document_id) WHERE is_current guarantees at
// most one current version per document even under racing writers; the
// conditional ClearCurrent update is the compare-and-swap the service
// layer's freshness check relies on.
type PostgresVersionRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewVersionRepository creates a new version repository
func NewVersionRepository(config *RepositoryConfig) repositories.VersionRepository {
	return &PostgresVersionRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Insert persists a new version row
func (r *PostgresVersionRepository) Insert(ctx context.Context, version *models.Version) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, document_id, version_number, content, version_type, base_version_id, is_current, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, r.tables.Versions)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		version.ID,
		version.DocumentID,
		version.VersionNumber,
		version.Content,
		version.VersionType,
		version.BaseVersionID,
		version.IsCurrent,
		version.CreatedAt,
	).Scan(&version.CreatedAt)

	if err != nil {
		if IsPgDuplicateError(err) {
			// Either the version number or the partial is_current index
			// collided: a concurrent edit inserted first.
			return fmt.Errorf("version %d of document %s already exists: %w",
				version.VersionNumber, version.DocumentID, domain.ErrConflict)
		}
		return fmt.Errorf("insert version: %w", err)
	}

	return nil
}

// GetByID retrieves a version by ID
func (r *PostgresVersionRepository) GetByID(ctx context.Context, id string) (*models.Version, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, version_number, content, version_type, base_version_id, is_current, created_at
		FROM %s
		WHERE id = $1
	`, r.tables.Versions)

	executor := GetExecutor(ctx, r.pool)
	return r.scanVersion(executor.QueryRow(ctx, query, id), id)
}

// GetCurrent retrieves the current version of a document
func (r *PostgresVersionRepository) GetCurrent(ctx context.Context, documentID string) (*models.Version, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, version_number, content, version_type, base_version_id, is_current, created_at
		FROM %s
		WHERE document_id = $1 AND is_current
	`, r.tables.Versions)

	executor := GetExecutor(ctx, r.pool)
	return r.scanVersion(executor.QueryRow(ctx, query, documentID), documentID)
}

// ClearCurrent conditionally flips is_current off. The WHERE clause makes
// this a compare-and-swap: zero rows affected means another edit already
// superseded the version.
func (r *PostgresVersionRepository) ClearCurrent(ctx context.Context, versionID string) (bool, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET is_current = false WHERE id = $1 AND is_current
	`, r.tables.Versions)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, versionID)
	if err != nil {
		return false, fmt.Errorf("clear current version: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkCurrent flips is_current back on for a restored base version
func (r *PostgresVersionRepository) MarkCurrent(ctx context.Context, versionID string) error {
	query := fmt.Sprintf(`
		UPDATE %s SET is_current = true WHERE id = $1
	`, r.tables.Versions)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, versionID)
	if err != nil {
		return fmt.Errorf("mark version current: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("version %s: %w", versionID, domain.ErrNotFound)
	}
	return nil
}

// DeleteFrom deletes all versions of a document at or above fromNumber
func (r *PostgresVersionRepository) DeleteFrom(ctx context.Context, documentID string, fromNumber int) error {
	query := fmt.Sprintf(`
		DELETE FROM %s WHERE document_id = $1 AND version_number >= $2
	`, r.tables.Versions)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, documentID, fromNumber); err != nil {
		return fmt.Errorf("delete versions: %w", err)
	}
	return nil
}

// ListByDocument lists a document's versions ordered by version_number
func (r *PostgresVersionRepository) ListByDocument(ctx context.Context, documentID string) ([]models.Version, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, version_number, content, version_type, base_version_id, is_current, created_at
		FROM %s
		WHERE document_id = $1
		ORDER BY version_number ASC
	`, r.tables.Versions)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var versions []models.Version
	for rows.Next() {
		var v models.Version
		if err := rows.Scan(
			&v.ID,
			&v.DocumentID,
			&v.VersionNumber,
			&v.Content,
			&v.VersionType,
			&v.BaseVersionID,
			&v.IsCurrent,
			&v.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}

	return versions, nil
}

// scanVersion scans a single version row, mapping no-rows to ErrNotFound
func (r *PostgresVersionRepository) scanVersion(row interface {
	Scan(dest ...interface{}) error
}, ref string) (*models.Version, error) {
	var v models.Version
	err := row.Scan(
		&v.ID,
		&v.DocumentID,
		&v.VersionNumber,
		&v.Content,
		&v.VersionType,
		&v.BaseVersionID,
		&v.IsCurrent,
		&v.CreatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("version for %s: %w", ref, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get version: %w", err)
	}
	return &v, nil
}
