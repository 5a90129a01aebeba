package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avolkov/photoflow/internal/entities"
	"github.com/avolkov/photoflow/internal/repository"
)

type Repository struct {
	dbpool *pgxpool.Pool
}

func New(ctx context.Context, databaseDSN string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, databaseDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	return &Repository{dbpool: pool}, nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.dbpool.Ping(ctx)
}

func (r *Repository) Close() {
	r.dbpool.Close()
}

const mediaColumns = `id, bucket, filename, user_id, business_id, caption,
	mime_type, size_bytes, source_filename, thumb_id, tags, created_at, updated_at`

func (r *Repository) Insert(ctx context.Context, m *entities.Media) (uuid.UUID, error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	now := time.Now().UTC()

	var id uuid.UUID
	err := r.dbpool.QueryRow(ctx, `
		INSERT INTO media (id, bucket, filename, user_id, business_id, caption,
			mime_type, size_bytes, source_filename, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		ON CONFLICT (bucket, filename) DO UPDATE
			SET size_bytes = EXCLUDED.size_bytes, updated_at = EXCLUDED.updated_at
		RETURNING id`,
		m.ID, m.Bucket, m.Filename, m.UserID, m.BusinessID, m.Caption,
		m.MimeType, m.Size, m.SourceFilename, m.Tags, now,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert media %s/%s: %w", m.Bucket, m.Filename, err)
	}

	m.ID = id
	m.CreatedAt = now
	m.UpdatedAt = now
	return id, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Media, error) {
	row := r.dbpool.QueryRow(ctx,
		`SELECT `+mediaColumns+` FROM media WHERE id = $1`, id)
	return scanMedia(row)
}

func (r *Repository) GetByFilename(ctx context.Context, bucket, filename string) (*entities.Media, error) {
	row := r.dbpool.QueryRow(ctx,
		`SELECT `+mediaColumns+` FROM media WHERE bucket = $1 AND filename = $2`,
		bucket, filename)
	return scanMedia(row)
}

func (r *Repository) Patch(ctx context.Context, id uuid.UUID, patch entities.MetadataPatch) error {
	if patch.Empty() {
		return nil
	}

	if patch.ThumbID != nil {
		tag, err := r.dbpool.Exec(ctx, `
			UPDATE media SET thumb_id = $2, updated_at = now()
			WHERE id = $1 AND thumb_id IS NULL`,
			id, *patch.ThumbID)
		if err != nil {
			return fmt.Errorf("link thumb on %s: %w", id, err)
		}
		if tag.RowsAffected() == 0 {
			// Either the record is gone or the thumb was linked by an
			// earlier delivery of the same job.
			if _, err := r.GetByID(ctx, id); err != nil {
				return err
			}
		}
	}

	if patch.Tags != nil {
		tag, err := r.dbpool.Exec(ctx, `
			UPDATE media SET tags = $2, updated_at = now() WHERE id = $1`,
			id, patch.Tags)
		if err != nil {
			return fmt.Errorf("update tags on %s: %w", id, err)
		}
		if tag.RowsAffected() == 0 {
			return repository.ErrNotFound
		}
	}

	return nil
}

func (r *Repository) ListByBusiness(ctx context.Context, bucket, businessID string) ([]entities.Media, error) {
	rows, err := r.dbpool.Query(ctx, `
		SELECT `+mediaColumns+` FROM media
		WHERE bucket = $1 AND business_id = $2
		ORDER BY created_at`,
		bucket, businessID)
	if err != nil {
		return nil, fmt.Errorf("list media for business %s: %w", businessID, err)
	}
	defer rows.Close()

	var out []entities.Media
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMedia(row rowScanner) (*entities.Media, error) {
	var m entities.Media
	err := row.Scan(&m.ID, &m.Bucket, &m.Filename, &m.UserID, &m.BusinessID,
		&m.Caption, &m.MimeType, &m.Size, &m.SourceFilename, &m.ThumbID,
		&m.Tags, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("scan media row: %w", err)
	}
	return &m, nil
}
