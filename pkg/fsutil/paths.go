package fsutil

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// AppName is the name of the application used in paths.
const AppName = "modelvault"

// DataDir returns the per-user data directory of the application.
// On Linux: $XDG_DATA_HOME/modelvault (~/.local/share/modelvault)
// On macOS: ~/Library/Application Support/modelvault
// On Windows: %LOCALAPPDATA%\modelvault
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// StateDir returns the per-user state directory of the application.
func StateDir() string {
	return filepath.Join(xdg.StateHome, AppName)
}

// ConfigDir returns the per-user configuration directory of the application.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ModelsDir returns the default models directory.
func ModelsDir() string {
	return filepath.Join(DataDir(), "models")
}
