package conversation

import (
	"strings"

	"github.com/hrygo/echomind/internal/strutil"
)

// DeriveTitle returns the first TitleMaxRunes runes of the trimmed content, with
// "..." when cut. Blank content gives "", which callers treat as no title.
func DeriveTitle(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return ""
	}
	return strutil.Truncate(trimmed, TitleMaxRunes)
}
