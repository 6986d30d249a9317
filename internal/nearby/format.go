package nearby

import (
	"regexp"
	"time"
)

// obsDtLayout はeBirdフィードの観察日時の形式。
// 分単位までの記録で、タイムゾーン情報は含まれない。
const obsDtLayout = "2006-01-02 15:04"

// displayLayout は表示用の日時形式（DD.MM.YYYY, HH:MM）。
const displayLayout = "02.01.2006, 15:04"

// 地名の複数語区切りとして現れるハイフン連続（前後の空白の有無を問わない）。
var (
	spacedHyphens = regexp.MustCompile(` -+ `)
	bareHyphens   = regexp.MustCompile(`-+`)
)

// FormatObsTime は観察日時文字列を表示用形式に変換する。
// パースできない場合は入力をそのまま返す（表示を壊さない）。
func FormatObsTime(obsDt string) string {
	t, err := time.Parse(obsDtLayout, obsDt)
	if err != nil {
		return obsDt
	}
	return t.Format(displayLayout)
}

// NormalizeLocName は地名中のハイフン連続区切りを ", " に正規化する。
// 空白で囲まれた連続を先に置換し、残った連続を後から置換する。
// 例: "Kauppatori - Keskusta -- Helsinki" → "Kauppatori, Keskusta, Helsinki"
func NormalizeLocName(locName string) string {
	normalized := spacedHyphens.ReplaceAllString(locName, ", ")
	return bareHyphens.ReplaceAllString(normalized, ", ")
}
