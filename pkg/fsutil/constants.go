package fsutil

// File and directory permission constants used for everything written under the models directory.
const (
	FileModeMask = 0o777

	FileModeDefault = 0o644 // -rw-r--r--
	FileModeSecure  = 0o600 // -rw-------: settings and lock files

	DirModeDefault = 0o755 // drwxr-xr-x
	DirModePrivate = 0o700 // drwx------
)
