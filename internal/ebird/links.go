package ebird

import "net/url"

// 種コードをキーにした外部Webリソースへのディープリンク。
// アウトバウンド専用で、レスポンスを消費することはない。
const (
	speciesPageBase  = "https://ebird.org/species/"
	mediaCatalogBase = "https://media.ebird.org/catalog"
)

// SpeciesURL は種の紹介ページへのURLを返す。
func SpeciesURL(speciesCode string) string {
	return speciesPageBase + url.PathEscape(speciesCode)
}

// MediaCatalogURL は種の写真カタログページへのURLを返す。
// 評価順ソートを指定する。
func MediaCatalogURL(speciesCode string) string {
	q := url.Values{}
	q.Set("sort", "rating_rank_desc")
	q.Set("taxonCode", speciesCode)
	return mediaCatalogBase + "?" + q.Encode()
}
