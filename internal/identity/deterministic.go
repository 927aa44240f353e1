package identity

import (
	"strconv"
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must ensure key construction prevents cross-entity collisions (prefix by domain/type).
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// DiagramID returns a stable element id for the diagram at position index
// with the given source. Rendering the same document twice yields the same
// ids.
func DiagramID(source string, index int) string {
	uid := UUID("go-wiki:diagram:" + strconv.Itoa(index) + ":" + source)
	return "diagram-" + strings.ReplaceAll(uid.String(), "-", "")[:12]
}
