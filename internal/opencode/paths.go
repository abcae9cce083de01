package opencode

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// DefaultStorageRoot returns where OpenCode writes its usage part
// files, normally ~/.local/share/opencode/storage/part.
func DefaultStorageRoot() string {
	return filepath.Join(xdg.DataHome, "opencode", "storage", "part")
}
