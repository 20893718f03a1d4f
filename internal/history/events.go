package history

import (
	"context"
	"encoding/json"
	"time"

	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
)

// BuildStartedPayload is stored with TypeBuildStarted.
type BuildStartedPayload struct {
	Source string `json:"source"`
	Output string `json:"output"`
	Pages  int    `json:"pages"`
}

// PageFailedPayload is stored with TypePageFailed.
type PageFailedPayload struct {
	Page     string `json:"page"`
	Category string `json:"category"`
	Message  string `json:"message"`
}

// BuildFinishedPayload is stored with TypeBuildFinished.
type BuildFinishedPayload struct {
	Outcome    string `json:"outcome"`
	Pages      int    `json:"pages"`
	Warnings   int    `json:"warnings"`
	Errors     int    `json:"errors"`
	DurationMS int64  `json:"duration_ms"`
}

// Recorder writes typed events for one store.
type Recorder struct {
	store Store
}

// NewRecorder wraps store.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// BuildStarted records the start of a build.
func (r *Recorder) BuildStarted(ctx context.Context, buildID string, p BuildStartedPayload) error {
	return r.append(ctx, buildID, TypeBuildStarted, p)
}

// PageFailed records a page that could not be rendered or was reported.
func (r *Recorder) PageFailed(ctx context.Context, buildID string, p PageFailedPayload) error {
	return r.append(ctx, buildID, TypePageFailed, p)
}

// BuildFinished records the build outcome.
func (r *Recorder) BuildFinished(ctx context.Context, buildID string, p BuildFinishedPayload) error {
	return r.append(ctx, buildID, TypeBuildFinished, p)
}

func (r *Recorder) append(ctx context.Context, buildID, eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return ferrors.HistoryError("failed to marshal event payload").
			WithCause(err).
			WithContext("build_id", buildID).
			WithContext("event", eventType).
			Build()
	}
	if err := r.store.Append(ctx, buildID, eventType, data, nil); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryHistory, "failed to append history event").
			WithContext("build_id", buildID).
			WithContext("event", eventType).
			Build()
	}
	return nil
}

// Summary describes one build reconstructed from its events.
type Summary struct {
	BuildID     string
	Status      string
	StartedAt   time.Time
	CompletedAt *time.Time
	Duration    time.Duration
	Pages       int
	Warnings    int
	Errors      int
	FailedPages []string
}

const statusRunning = "running"

// Summaries rebuilds build summaries from all events, newest first, keeping
// at most limit entries (all when limit <= 0).
func Summaries(ctx context.Context, store Store, limit int) ([]Summary, error) {
	events, err := store.GetRange(ctx, time.UnixMilli(0), time.Now().Add(time.Hour))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryHistory, "failed to read history").Build()
	}

	byID := make(map[string]*Summary)
	var order []string
	for _, e := range events {
		s, ok := byID[e.BuildID]
		if !ok {
			s = &Summary{BuildID: e.BuildID, Status: statusRunning, StartedAt: e.Timestamp}
			byID[e.BuildID] = s
			order = append(order, e.BuildID)
		}
		switch e.Type {
		case TypeBuildStarted:
			var p BuildStartedPayload
			if json.Unmarshal(e.Payload, &p) == nil {
				s.Pages = p.Pages
			}
			s.StartedAt = e.Timestamp
		case TypePageFailed:
			var p PageFailedPayload
			if json.Unmarshal(e.Payload, &p) == nil {
				s.FailedPages = append(s.FailedPages, p.Page)
			}
		case TypeBuildFinished:
			var p BuildFinishedPayload
			if json.Unmarshal(e.Payload, &p) == nil {
				s.Status = p.Outcome
				s.Pages = p.Pages
				s.Warnings = p.Warnings
				s.Errors = p.Errors
				s.Duration = time.Duration(p.DurationMS) * time.Millisecond
			}
			done := e.Timestamp
			s.CompletedAt = &done
		}
	}

	out := make([]Summary, 0, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		out = append(out, *byID[order[i]])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
