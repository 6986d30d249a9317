// Package sighting は観察記録のドメインロジックを提供する。
package sighting

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/birdjournal/internal/metrics"
	"github.com/hitoshi/birdjournal/internal/model"
	"github.com/hitoshi/birdjournal/internal/repository"
)

// SpeciesLookup は分類リストの参照インターフェース。
// taxonomy.Cacheを抽象化してテスタビリティを向上させる。
type SpeciesLookup interface {
	Size() int
	FindBySpeciesCode(code string) *model.TaxonomyEntry
}

// TextSanitizer は自由入力テキストの無害化インターフェース。
type TextSanitizer interface {
	Sanitize(raw string) string
}

// Service は観察記録のサービス層。
// 作成・一覧・削除・スナップショット購読のビジネスロジックを提供する。
type Service struct {
	repo      repository.SightingRepository
	species   SpeciesLookup
	sanitizer TextSanitizer
	collector metrics.MetricsCollector // nilの場合は記録しない
	hub       *Hub
	logger    *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	repo repository.SightingRepository,
	species SpeciesLookup,
	sanitizer TextSanitizer,
	collector metrics.MetricsCollector,
	hub *Hub,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:      repo,
		species:   species,
		sanitizer: sanitizer,
		collector: collector,
		hub:       hub,
		logger:    logger,
	}
}

// Create は観察記録を作成する。
// IDは書き込み前に採番し、レコード本体にも埋め込んで保存する。
// これにより保存直後からIDでの削除・共有が可能になる。
func (s *Service) Create(ctx context.Context, userID string, draft model.SightingDraft) (*model.Sighting, error) {
	// 自由入力フィールドを無害化
	location := s.sanitizer.Sanitize(draft.Location)
	comment := s.sanitizer.Sanitize(draft.Comment)

	// 分類リストがロード済みかつ非空の場合のみ種コードを検証する。
	// 空リスト（取得失敗の縮退）時は記録をブロックしない。
	if draft.SpeciesCode != "" && s.species.Size() > 0 {
		if s.species.FindBySpeciesCode(draft.SpeciesCode) == nil {
			return nil, model.NewUnknownSpeciesError(draft.SpeciesCode)
		}
	}

	observedAt := draft.Time
	if observedAt.IsZero() {
		observedAt = time.Now()
	}

	sighting := &model.Sighting{
		ID:          uuid.New().String(),
		UserID:      userID,
		ComName:     draft.ComName,
		SciName:     draft.SciName,
		SpeciesCode: draft.SpeciesCode,
		Time:        observedAt,
		Location:    location,
		Comment:     comment,
		CreatedAt:   time.Now(),
	}

	if err := s.repo.Create(ctx, sighting); err != nil {
		return nil, fmt.Errorf("観察記録の作成に失敗しました: %w", err)
	}

	if s.collector != nil {
		s.collector.RecordSightingCreated()
	}

	s.logger.Info("sighting created",
		slog.String("sighting_id", sighting.ID),
		slog.String("species_code", sighting.SpeciesCode),
	)

	s.publishSnapshot(ctx, userID)
	return sighting, nil
}

// List はユーザーの観察記録全件を作成順で返す。
func (s *Service) List(ctx context.Context, userID string) ([]model.Sighting, error) {
	sightings, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("観察記録一覧の取得に失敗しました: %w", err)
	}
	return sightings, nil
}

// Get はユーザーのコレクション内から指定IDの観察記録を取得する。
func (s *Service) Get(ctx context.Context, userID, id string) (*model.Sighting, error) {
	sighting, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("観察記録の取得に失敗しました: %w", err)
	}
	if sighting == nil {
		return nil, model.NewSightingNotFoundError(id)
	}
	return sighting, nil
}

// Delete は指定IDの観察記録を削除する。
// 対象が存在しない場合はログに残して成功として扱う（削除は冪等）。
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	deleted, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("観察記録の削除に失敗しました: %w", err)
	}

	if !deleted {
		// 既に存在しないIDの削除は何も変更しない
		s.logger.Info("delete requested for absent sighting",
			slog.String("sighting_id", id),
		)
		return nil
	}

	if s.collector != nil {
		s.collector.RecordSightingDeleted()
	}

	s.logger.Info("sighting deleted",
		slog.String("sighting_id", id),
	)

	s.publishSnapshot(ctx, userID)
	return nil
}

// Subscribe はユーザーの観察記録スナップショット購読を開始する。
// 購読開始時に現在のスナップショットを即時配信し、以後はコレクションが
// 変化するたびに全件スナップショットを配信する。
// ハブへの登録は初回スナップショットの取得より先に行う。逆順にすると
// 取得中に完了した変更の配信が誰にも届かず、購読者が古いスナップショットの
// まま取り残される。登録後に変更配信が割り込んだ場合は、より新しい
// スナップショットを古い初回分で上書きしない。
func (s *Service) Subscribe(ctx context.Context, userID string, fn func([]model.Sighting)) (*Subscription, error) {
	var mu sync.Mutex
	published := false
	wrapped := func(snapshot []model.Sighting) {
		mu.Lock()
		defer mu.Unlock()
		published = true
		fn(snapshot)
	}

	sub := s.hub.Subscribe(userID, wrapped)

	snapshot, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		sub.Cancel()
		return nil, fmt.Errorf("初回スナップショットの取得に失敗しました: %w", err)
	}

	mu.Lock()
	if !published {
		fn(snapshot)
	}
	mu.Unlock()
	return sub, nil
}

// publishSnapshot は最新スナップショットを全購読者へ配信する。
// 再取得に失敗した場合は配信をスキップする（次回の変更で追いつく）。
func (s *Service) publishSnapshot(ctx context.Context, userID string) {
	snapshot, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		s.logger.Error("スナップショットの再取得に失敗しました",
			slog.String("error", err.Error()),
		)
		return
	}
	s.hub.Publish(userID, snapshot)
}
