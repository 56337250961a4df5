//go:generate mockgen -destination=./mocks/fetcher.go -package=mocks . Fetcher

package download

import "context"

// Fetcher transfers one model file over HTTP into a partial file, resuming where it left off.
type Fetcher interface {
	// Fetch streams req.URL into req.PartialPath starting at req.ResumeFrom and returns the number
	// of bytes the partial file holds afterwards. The partial file is kept on every failure,
	// including cancellation.
	Fetch(ctx context.Context, req Request) (uint64, error)
}

// Request describes one transfer.
type Request struct {
	ModelID     string
	URL         string
	PartialPath string
	// ResumeFrom is the number of bytes already present in PartialPath.
	ResumeFrom uint64
	// ExpectedTotal is the manifest size of the file, or 0 when unknown.
	ExpectedTotal uint64
	// Cancel is consulted at every chunk boundary; tripping it also aborts the in-flight request.
	Cancel *CancelToken
	// OnProgress, when set, is called after the response arrives and after every chunk.
	OnProgress func(Progress)
}

// Progress reports how far a transfer has come.
type Progress struct {
	ModelID    string  `json:"model_id"`
	Downloaded uint64  `json:"downloaded"`
	Total      uint64  `json:"total"`
	Percentage float64 `json:"percentage"`
}

// Percentage returns downloaded/total as a percentage, or 0 when total is unknown.
func Percentage(downloaded, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(downloaded) / float64(total) * 100
}
