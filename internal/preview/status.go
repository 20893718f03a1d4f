package preview

import (
	"sync"

	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/site"
)

// buildStatus tracks the latest build for /status and the error page.
type buildStatus struct {
	mu           sync.RWMutex
	last         *site.Report
	lastError    error
	hasGoodBuild bool // true once any build published output
	builds       int
}

func (bs *buildStatus) record(report *site.Report, err error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.builds++
	bs.last = report
	bs.lastError = err
	// Per-page metadata failures still publish every page that rendered.
	published := report != nil && len(report.Pages) > 0
	if err == nil || (published && ferrors.HasCategory(err, ferrors.CategoryMetadata)) {
		bs.hasGoodBuild = true
	}
}

func (bs *buildStatus) snapshot() (report *site.Report, err error, hasGoodBuild bool, builds int) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.last, bs.lastError, bs.hasGoodBuild, bs.builds
}

// StatusResponse is the /status payload.
type StatusResponse struct {
	OK       bool                       `json:"ok"`
	Builds   int                        `json:"builds"`
	BuildID  string                     `json:"build_id,omitempty"`
	Outcome  string                     `json:"outcome,omitempty"`
	Pages    int                        `json:"pages"`
	Warnings int                        `json:"warnings"`
	Missing  []string                   `json:"missing,omitempty"`
	Error    *ferrors.HTTPErrorResponse `json:"error,omitempty"`
}
