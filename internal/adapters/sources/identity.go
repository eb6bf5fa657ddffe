package sources

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// originIdentity keys a review by its origin-native id.
func originIdentity(parts ...string) string {
	return strings.Join(parts, ":")
}

// contentIdentity keys a review by a hash of its normalized text, for
// origins that expose no stable id. Whitespace is collapsed first so a
// re-fetch with trivially different formatting maps to the same identity.
func contentIdentity(source, text string) string {
	sum := sha256.Sum256([]byte(normalizeText(text)))
	return source + ":" + hex.EncodeToString(sum[:8])
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// lastPage reports the end-of-results heuristic for paginated feeds: a
// page shorter than the nominal full-page size means no further pages.
// Origins expose no definitive "has more" field, so this can under- or
// over-fetch; accepted approximation.
func lastPage(count, pageSize int) bool {
	return count == 0 || count < pageSize
}
