package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/birdjournal/internal/model"
)

// PostgresSightingRepo はPostgreSQLを使用した観察記録リポジトリ。
type PostgresSightingRepo struct {
	db *sql.DB
}

// NewPostgresSightingRepo はPostgresSightingRepoを生成する。
func NewPostgresSightingRepo(db *sql.DB) *PostgresSightingRepo {
	return &PostgresSightingRepo{db: db}
}

// Create は観察記録を作成する。sighting.IDは呼び出し側で採番済みであること。
func (r *PostgresSightingRepo) Create(ctx context.Context, sighting *model.Sighting) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sightings (id, user_id, com_name, sci_name, species_code, observed_at, location, comment, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		sighting.ID, sighting.UserID, sighting.ComName, sighting.SciName,
		sighting.SpeciesCode, sighting.Time, sighting.Location, sighting.Comment,
		sighting.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sighting: %w", err)
	}
	return nil
}

// ListByUserID はユーザーの観察記録全件を作成順で返す。
// 表示用インデックスはこの返却順に対して上位層が割り当てる（永続化しない）。
func (r *PostgresSightingRepo) ListByUserID(ctx context.Context, userID string) ([]model.Sighting, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, com_name, sci_name, species_code, observed_at, location, comment, created_at
		 FROM sightings
		 WHERE user_id = $1
		 ORDER BY created_at, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sightings: %w", err)
	}
	defer rows.Close()

	sightings := []model.Sighting{}
	for rows.Next() {
		var s model.Sighting
		if err := rows.Scan(&s.ID, &s.UserID, &s.ComName, &s.SciName, &s.SpeciesCode,
			&s.Time, &s.Location, &s.Comment, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sighting: %w", err)
		}
		sightings = append(sightings, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sightings: %w", err)
	}

	return sightings, nil
}

// FindByID はユーザーのコレクション内から指定IDの観察記録を取得する。
// 見つからない場合はnilを返す。
func (r *PostgresSightingRepo) FindByID(ctx context.Context, userID, id string) (*model.Sighting, error) {
	s := &model.Sighting{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, com_name, sci_name, species_code, observed_at, location, comment, created_at
		 FROM sightings
		 WHERE user_id = $1 AND id = $2`,
		userID, id,
	).Scan(&s.ID, &s.UserID, &s.ComName, &s.SciName, &s.SpeciesCode,
		&s.Time, &s.Location, &s.Comment, &s.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find sighting: %w", err)
	}

	return s, nil
}

// Delete は指定IDの観察記録を削除する。
// 対象が存在しなかった場合はfalseを返す（エラーにはしない）。
func (r *PostgresSightingRepo) Delete(ctx context.Context, userID, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM sightings WHERE user_id = $1 AND id = $2`,
		userID, id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete sighting: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ SightingRepository = (*PostgresSightingRepo)(nil)
