package history

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// DefaultDBPath returns where the snapshot database lives, normally
// ~/.local/share/ocusage/usage.db.
func DefaultDBPath() string {
	return filepath.Join(xdg.DataHome, "ocusage", "usage.db")
}
