package uploads

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	unsafeRe     = regexp.MustCompile(`[^A-Za-z0-9._-]`)
)

// GenerateKey builds a collision-resistant object key:
// {namespace}/{ownerID}_{base}_{unixTimestamp}_{randomSuffix}.{ext}
// The original filename is sanitized: whitespace collapses to underscores and
// anything outside [A-Za-z0-9._-] is stripped.
func GenerateKey(namespace, ownerID, filename string) string {
	trimmed := unsafeRe.ReplaceAllString(whitespaceRe.ReplaceAllString(filename, "_"), "")

	base := trimmed
	ext := ""
	if idx := strings.LastIndex(trimmed, "."); idx >= 0 {
		base = trimmed[:idx]
		ext = trimmed[idx+1:]
	}
	if base == "" {
		base = "file"
	}

	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
	key := fmt.Sprintf("%s/%s_%s_%d_%s", namespace, ownerID, base, time.Now().Unix(), suffix)
	if ext != "" {
		key += "." + ext
	}
	return key
}
