package utils

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"
)

var (
	// Characters invalid in filenames on most filesystems or unsafe in object keys
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*#%{}^~\[\]` + "`" + `]`)
	// Whitespace runs collapse to a single dash
	whitespaceRuns = regexp.MustCompile(`\s+`)
	// Repeated dashes collapse to one
	multipleDashes = regexp.MustCompile(`-{2,}`)
)

const maxFilenameLength = 120

// SanitizeFilename turns an uploaded file name into one safe to use as the
// last segment of a blob key. Whitespace becomes dashes and the extension is
// kept and lower-cased.
func SanitizeFilename(filename string) string {
	filename = path.Base(strings.ReplaceAll(filename, `\`, "/"))
	if filename == "." || filename == "/" {
		filename = ""
	}

	ext := strings.ToLower(path.Ext(filename))
	base := strings.TrimSuffix(filename, path.Ext(filename))
	if !validExtension(ext) {
		ext = ""
	}

	base = invalidFilenameChars.ReplaceAllString(base, "")
	base = whitespaceRuns.ReplaceAllString(strings.TrimSpace(base), "-")
	base = multipleDashes.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-.")

	if r := []rune(base); len(r) > maxFilenameLength {
		base = strings.TrimRight(string(r[:maxFilenameLength]), "-.")
	}

	if base == "" {
		base = "photo"
	}
	return base + ext
}

func validExtension(ext string) bool {
	if len(ext) < 2 || len(ext) > 6 {
		return false
	}
	for _, r := range ext[1:] {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}

// ExportFilename names a workbook written at t.
func ExportFilename(prefix string, t time.Time) string {
	return fmt.Sprintf("%s-%s.xlsx", prefix, t.UTC().Format("20060102-150405"))
}
