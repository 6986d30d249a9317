// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/birdjournal/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// SightingRepository は観察記録の永続化インターフェース。
// 全操作はuserIDでパーティションされ、他ユーザーのレコードには決して触れない。
type SightingRepository interface {
	// Create は観察記録を作成する。sighting.IDは呼び出し側で採番済みであること。
	Create(ctx context.Context, sighting *model.Sighting) error

	// ListByUserID はユーザーの観察記録全件をバックエンドの返却順（作成順）で返す。
	ListByUserID(ctx context.Context, userID string) ([]model.Sighting, error)

	// FindByID はユーザーのコレクション内から指定IDの観察記録を取得する。
	// 見つからない場合はnilを返す。
	FindByID(ctx context.Context, userID, id string) (*model.Sighting, error)

	// Delete は指定IDの観察記録を削除する。
	// 対象が存在しなかった場合はfalseを返す（エラーにはしない）。
	Delete(ctx context.Context, userID, id string) (bool, error)
}
