package drive

import (
	"regexp"
	"strings"
)

var folderIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/folders/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`[?&]id=([a-zA-Z0-9_-]+)`),
}

// ParseFolderID extracts a folder ID from a Drive folder URL, or
// returns the input unchanged when it already looks like a bare ID.
// Returns "" when nothing usable can be extracted.
func ParseFolderID(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "/") && len(s) > 10 {
		return s
	}
	for _, re := range folderIDPatterns {
		if m := re.FindStringSubmatch(s); m != nil {
			return m[1]
		}
	}
	return ""
}
