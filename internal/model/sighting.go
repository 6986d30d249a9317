// Package model はドメインモデルを定義する。
package model

import "time"

// Sighting はユーザーが記録した野鳥の観察記録を表す。
// IDは書き込み前に予約され、永続化されたペイロード自身にも埋め込まれる。
type Sighting struct {
	ID          string
	UserID      string
	ComName     string
	SciName     string
	SpeciesCode string
	Time        time.Time
	Location    string
	Comment     string
	CreatedAt   time.Time
}

// SightingDraft はID採番前の観察記録の入力値を表す。
// Timeがゼロ値の場合は作成時刻がデフォルトとして使われる。
type SightingDraft struct {
	ComName     string
	SciName     string
	SpeciesCode string
	Time        time.Time
	Location    string
	Comment     string
}
