package utils

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// SanitizeFilename strips path components and characters that would break a
// saved filename.
func SanitizeFilename(name string) string {
	name = filepath.Base(name)
	replacer := strings.NewReplacer(
		"..", "_",
		"/", "_",
		"\\", "_",
		"\x00", "_",
		" ", "_",
	)
	name = replacer.Replace(name)
	if name == "" || name == "." {
		name = "upload"
	}
	return name
}

// TimestampedPath builds the storage path for an uploaded file, suffixing the
// base name with a Unix timestamp so repeated uploads never collide.
func TimestampedPath(uploadDir, originalName string) string {
	sanitized := SanitizeFilename(originalName)
	ext := filepath.Ext(sanitized)
	base := strings.TrimSuffix(sanitized, ext)
	return filepath.Join(uploadDir, fmt.Sprintf("%s_%d%s", base, time.Now().Unix(), ext))
}
