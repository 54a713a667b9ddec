// ABOUTME: Placeholder substitution of node fields into label and template text
// ABOUTME: Used by label generation to print names, paths and timestamps

package tree

import (
	"strconv"
	"strings"
	"time"
)

// DefaultDelimiter separates path segments when no delimiter is configured.
const DefaultDelimiter = " → "

// ReplacePlaceholders substitutes n's fields into text:
//
//	%ID% %NAME% %COMMENT% %PARENT_ID% %PARENT% %FULL_PATH% %LEVEL%
//	%LAST_MODIFIED% %CREATION_TIME%
//
// Values are inserted verbatim.
func ReplacePlaceholders(n *Node, text, delimiter string) string {
	if !strings.Contains(text, "%") {
		return text
	}
	r := strings.NewReplacer(
		"%ID%", strconv.FormatInt(n.ID, 10),
		"%NAME%", n.Name,
		"%COMMENT%", n.Comment,
		"%PARENT_ID%", strconv.FormatInt(n.ParentID, 10),
		"%PARENT%", n.ParentName(),
		"%FULL_PATH%", joinPath(n.FullPath, delimiter),
		"%LEVEL%", strconv.Itoa(n.Level),
		"%LAST_MODIFIED%", formatTime(n.LastModified),
		"%CREATION_TIME%", formatTime(n.CreatedAt),
	)
	return r.Replace(text)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateTime)
}
