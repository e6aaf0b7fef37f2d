// Package shares provides the PostgreSQL-backed repository for shares and
// their ordered asset links.
package shares

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/memevault/memevault/internal/common"
	"github.com/memevault/memevault/internal/dbx"
	"github.com/memevault/memevault/internal/server/models"
)

type PostgresRepository struct {
	db   dbx.DBTX
	conn *sql.DB
}

func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: conn, conn: conn}
}

// CreateWithAssets inserts the share row and its links atomically: a share
// must never exist half-populated.
func (r *PostgresRepository) CreateWithAssets(ctx context.Context, s *models.Share, links []*models.ShareAsset) error {
	return dbx.WithTx(ctx, r.conn, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := insertShare(ctx, tx, s); err != nil {
			return err
		}
		for _, l := range links {
			if err := insertLink(ctx, tx, l); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertShare(ctx context.Context, tx dbx.DBTX, s *models.Share) error {
	query := `
		INSERT INTO shares (
			share_id, title, description, expires_at, max_downloads,
			password_hash, view_count, download_count, created_at, updated_at, origin_device
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := tx.ExecContext(ctx, query,
		s.ShareID, s.Title, s.Description, s.ExpiresAt, s.MaxDownloads,
		s.PasswordHash, s.ViewCount, s.DownloadCount, s.CreatedAt, s.UpdatedAt, s.OriginDevice)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func insertLink(ctx context.Context, tx dbx.DBTX, l *models.ShareAsset) error {
	query := `
		INSERT INTO share_assets (share_id, asset_id, display_order)
		VALUES ($1, $2, $3)
		ON CONFLICT (share_id, asset_id) DO NOTHING;
	`
	_, err := tx.ExecContext(ctx, query, l.ShareID, l.AssetID, l.DisplayOrder)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, shareID string) (*models.Share, error) {
	query := `
		SELECT share_id, title, description, expires_at, max_downloads, password_hash,
			view_count, download_count, created_at, updated_at, origin_device
		FROM shares
		WHERE share_id = $1
	`
	s := &models.Share{}
	err := r.db.QueryRowContext(ctx, query, shareID).Scan(
		&s.ShareID, &s.Title, &s.Description, &s.ExpiresAt, &s.MaxDownloads, &s.PasswordHash,
		&s.ViewCount, &s.DownloadCount, &s.CreatedAt, &s.UpdatedAt, &s.OriginDevice)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) ListAssets(ctx context.Context, shareID string) ([]*models.SharedAsset, error) {
	query := `
		SELECT a.id, a.file_name, a.mime_type, a.width, a.height, a.content_hash, sa.display_order
		FROM share_assets sa
		JOIN assets a ON sa.asset_id = a.id
		WHERE sa.share_id = $1
		ORDER BY sa.display_order
	`
	rows, err := r.db.QueryContext(ctx, query, shareID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.SharedAsset
	for rows.Next() {
		var item models.SharedAsset
		if err := rows.Scan(&item.ID, &item.FileName, &item.MimeType, &item.Width,
			&item.Height, &item.ContentHash, &item.DisplayOrder); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	return result, rows.Err()
}

func (r *PostgresRepository) IncrementViewCount(ctx context.Context, shareID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE shares SET view_count = view_count + 1 WHERE share_id = $1`, shareID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) IncrementDownloadCount(ctx context.Context, shareID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE shares SET download_count = download_count + 1 WHERE share_id = $1`, shareID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, shareID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM shares WHERE share_id = $1`, shareID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.ShareListItem, error) {
	query := `
		SELECT s.share_id, s.title, s.view_count, s.download_count,
			s.created_at, s.expires_at, COUNT(sa.asset_id) AS asset_count
		FROM shares s
		LEFT JOIN share_assets sa ON s.share_id = sa.share_id
		GROUP BY s.share_id
		ORDER BY s.created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.ShareListItem
	for rows.Next() {
		var item models.ShareListItem
		if err := rows.Scan(&item.ShareID, &item.Title, &item.ViewCount, &item.DownloadCount,
			&item.CreatedAt, &item.ExpiresAt, &item.AssetCount); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	return result, rows.Err()
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM shares`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}

func (r *PostgresRepository) CountCreatedSince(ctx context.Context, ts int64) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM shares WHERE created_at >= $1`, ts).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}
