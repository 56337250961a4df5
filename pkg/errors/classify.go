package errors

import "errors"

// Code is a stable, machine-readable failure category shown to users.
type Code string

// Failure codes.
const (
	CodeChecksumMismatch Code = "checksum_mismatch"
	CodeSizeMismatch     Code = "size_mismatch"
	CodeArchive          Code = "archive_error"
	CodeNetwork          Code = "network_error"
	CodeManifest         Code = "manifest_error"
	CodeNotFound         Code = "not_found"
	CodeState            Code = "state_error"
	CodeFilesystem       Code = "filesystem_error"
	CodeCancelled        Code = "cancelled"
	CodeDownloadFailed   Code = "download_failed"
)

// CommandError is the user-facing form of a failure.
type CommandError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func (e *CommandError) Error() string {
	return e.Message
}

var classes = []struct {
	target  error
	code    Code
	message string
}{
	{ErrCancelled, CodeCancelled, "Download was cancelled. Progress has been kept and can be resumed."},
	{ErrHashMismatch, CodeChecksumMismatch, "Downloaded file failed integrity verification. Try downloading again."},
	{ErrSizeMismatch, CodeSizeMismatch, "Downloaded file has an unexpected size. Try downloading again."},
	{ErrArchive, CodeArchive, "Model archive could not be unpacked safely."},
	{ErrNetwork, CodeNetwork, "Network error while downloading. Check your connection and try again."},
	{ErrManifest, CodeManifest, "Model manifest is missing or invalid."},
	{ErrNotFound, CodeNotFound, "Model not found."},
	{ErrState, CodeState, "Operation is not possible in the model's current state."},
	{ErrFilesystem, CodeFilesystem, "Could not read or write model files."},
}

// Classify maps err to a CommandError. It returns nil for a nil error.
func Classify(err error) *CommandError {
	if err == nil {
		return nil
	}
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce
	}
	for _, c := range classes {
		if errors.Is(err, c.target) {
			return &CommandError{Code: c.code, Message: c.message, Detail: err.Error()}
		}
	}
	return &CommandError{Code: CodeDownloadFailed, Message: "Model download failed.", Detail: err.Error()}
}
