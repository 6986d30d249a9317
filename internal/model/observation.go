// Package model はドメインモデルを定義する。
package model

// NearbyObservation は外部フィード由来の周辺観察記録を表す。
// 読み取り専用で、このアプリでは永続化しない。
type NearbyObservation struct {
	ComName     string
	SciName     string
	HowMany     int
	ObsDt       string // フィードの生の観察日時文字列（"2006-01-02 15:04"形式）
	LocName     string
	SpeciesCode string
}
