// Package model はドメインモデルを定義する。
package model

// TaxonomyEntry はeBird分類リストの1種を表す参照データ。
// セッション中はイミュータブルで、再取得は次回起動時のみ。
type TaxonomyEntry struct {
	ComName     string
	SciName     string
	SpeciesCode string
}
