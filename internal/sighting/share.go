package sighting

import (
	"fmt"

	"github.com/hitoshi/birdjournal/internal/model"
)

// displayTimeLayout は共有テキストに埋め込む日時の表示形式。
const displayTimeLayout = "02.01.2006, 15:04"

// ShareText は観察記録のSNS共有用テキストを組み立てる。
func ShareText(s *model.Sighting) string {
	return fmt.Sprintf("I spotted a %s (%s) in %s on %s! All I can say is: %s",
		s.ComName,
		s.SciName,
		s.Location,
		s.Time.Format(displayTimeLayout),
		s.Comment,
	)
}
