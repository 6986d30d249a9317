package sighting

import (
	"sync"

	"github.com/hitoshi/birdjournal/internal/model"
)

// Hub は観察記録スナップショットの配信を仲介する。
// 購読者はユーザー単位で登録され、コレクションが変化するたびに
// 全件スナップショットを受け取る（差分配信は行わない）。
type Hub struct {
	mu     sync.Mutex
	nextID int64
	subs   map[string]map[int64]func([]model.Sighting)
}

// NewHub はHubの新しいインスタンスを生成する。
func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]map[int64]func([]model.Sighting)),
	}
}

// Subscription は購読ハンドル。Cancelで配信を停止する。
type Subscription struct {
	hub    *Hub
	userID string
	id     int64
}

// Cancel は購読を解除する。複数回呼んでも安全。
func (s *Subscription) Cancel() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()

	if fns, ok := s.hub.subs[s.userID]; ok {
		delete(fns, s.id)
		if len(fns) == 0 {
			delete(s.hub.subs, s.userID)
		}
	}
}

// Subscribe はユーザーのスナップショット購読を登録する。
// 初回スナップショットの配信は呼び出し側（Service）が行う。
func (h *Hub) Subscribe(userID string, fn func([]model.Sighting)) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID

	if h.subs[userID] == nil {
		h.subs[userID] = make(map[int64]func([]model.Sighting))
	}
	h.subs[userID][id] = fn

	return &Subscription{hub: h, userID: userID, id: id}
}

// Publish はユーザーの全購読者へスナップショットを配信する。
// 各購読者には独立したコピーを渡す。
func (h *Hub) Publish(userID string, snapshot []model.Sighting) {
	h.mu.Lock()
	fns := make([]func([]model.Sighting), 0, len(h.subs[userID]))
	for _, fn := range h.subs[userID] {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		cp := make([]model.Sighting, len(snapshot))
		copy(cp, snapshot)
		fn(cp)
	}
}

// SubscriberCount はユーザーの現在の購読者数を返す。
func (h *Hub) SubscriberCount(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}
