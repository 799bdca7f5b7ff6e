package namedsem

import (
	"strings"

	"github.com/google/uuid"
)

// UniqueName returns a semaphore name of the form "/<prefix>_<16 hex digits>"
// drawn from a random UUID. Names are OS-wide, so callers that only need a
// private semaphore should use a fresh name and unlink it right after Create.
//
// macOS limits names to 31 bytes; keep prefix to 13 bytes or fewer there.
func UniqueName(prefix string) (string, error) {
	if strings.ContainsAny(prefix, "/\x00") {
		return "", invalidInput("unique_name", prefix)
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	hex := strings.ReplaceAll(id.String(), "-", "")
	return "/" + prefix + "_" + hex[:16], nil
}
