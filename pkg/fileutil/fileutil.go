package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/forge-run/wharf/pkg/failure"
)

// GetFileExtension extracts the file extension from a path, or empty string if none
func GetFileExtension(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return ""
	}
	// Remove the leading dot
	return strings.TrimPrefix(ext, ".")
}

// reservedWindows holds the ASCII characters the Windows filesystem rejects
// in a path segment, beyond the control bytes and the path separator every
// platform rejects.
const reservedWindows = `<>:"\|?*`

// SafeSegment percent-encodes a single path segment (a host, a directory
// name, or a filename) so it can be written to disk regardless of host OS:
// control bytes, '/', and the Windows-reserved characters are escaped, and
// "." / ".." segments are escaped to avoid collapsing into filesystem
// metacharacters.
func SafeSegment(segment string) string {
	if segment == "." {
		return "%2E"
	}
	if segment == ".." {
		return "%2E%2E"
	}

	var b strings.Builder
	for i := 0; i < len(segment); i++ {
		c := segment[i]
		switch {
		case c < 0x20 || c == 0x7f:
			fmt.Fprintf(&b, "%%%02X", c)
		case c == '/' || c == '\\':
			fmt.Fprintf(&b, "%%%02X", c)
		case strings.IndexByte(reservedWindows, c) >= 0:
			fmt.Fprintf(&b, "%%%02X", c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// EnsureDir check if a given directory plus the following path exist, then create one if not
func EnsureDir(dir string, path ...string) failure.ClassifiedError {
	targetPath := []string{dir}
	targetPath = append(targetPath, path...)

	assetsDir := filepath.Join(targetPath...)
	if err := os.MkdirAll(assetsDir, 0755); err != nil {
		return &FileError{
			Message:   fmt.Sprintf("%v", err),
			Retryable: false,
			Cause:     ErrCausePathError,
		}
	}
	return nil
}
