package storage

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type MediaKind string

const (
	MediaKindMedia MediaKind = "media"
	MediaKindVoice MediaKind = "voice"
)

// IssueMediaKey builds issues/{userID}/{kind}_{uuid}{ext}. The extension is
// taken from the client filename and lower-cased.
func IssueMediaKey(userID string, kind MediaKind, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) > 10 || strings.ContainsAny(ext, `/\ `) {
		ext = ""
	}
	return path.Join("issues", userID, fmt.Sprintf("%s_%s%s", kind, uuid.NewString(), ext))
}
