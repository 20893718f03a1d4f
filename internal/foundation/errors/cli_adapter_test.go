package errors

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: ExitOK},
		{name: "config", err: ConfigError("missing #toc").Build(), expected: ExitConfig},
		{name: "validation", err: ValidationError("bad value").Build(), expected: ExitConfig},
		{name: "metadata", err: MetadataError("bad chapters").Build(), expected: ExitMetadata},
		{name: "joined metadata", err: errors.Join(MetadataError("a").Build(), MetadataError("b").Build()), expected: ExitMetadata},
		{name: "runtime", err: NewError(CategoryRuntime, "listen").Build(), expected: ExitRuntime},
		{name: "internal", err: InternalError("bug").Build(), expected: ExitInternal},
		{name: "external tool", err: ExternalToolError("ocamlc failed").Build(), expected: ExitExternalTool},
		{name: "filesystem", err: FileSystemError("write failed").Build(), expected: ExitBuild},
		{name: "wrapped config", err: fmt.Errorf("outer: %w", ConfigError("x").Build()), expected: ExitConfig},
		{name: "unclassified", err: errors.New("boom"), expected: ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	err := ConfigError("container selector matched no node").WithPage("intro.md").Build()

	quiet := NewCLIErrorAdapter(false, slog.Default())
	assert.Equal(t, "Error: container selector matched no node (page intro.md)", quiet.FormatError(err))

	verbose := NewCLIErrorAdapter(true, slog.Default())
	assert.Contains(t, verbose.FormatError(err), "[config:fatal]")

	assert.Equal(t, "Error: boom", quiet.FormatError(errors.New("boom")))
	assert.Empty(t, quiet.FormatError(nil))
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var logs, out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	adapter := NewCLIErrorAdapter(false, logger)
	adapter.out = &out

	code := adapter.HandleError(MetadataError("chapter without page").Build())
	assert.Equal(t, ExitMetadata, code)
	assert.True(t, strings.HasPrefix(out.String(), "Error: chapter without page"))
	assert.Contains(t, logs.String(), "category=metadata")
}

func TestHTTPErrorAdapter(t *testing.T) {
	adapter := NewHTTPErrorAdapter(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	assert.Equal(t, http.StatusOK, adapter.StatusCodeFor(nil))
	assert.Equal(t, http.StatusBadRequest, adapter.StatusCodeFor(ConfigError("x").Build()))
	assert.Equal(t, http.StatusUnprocessableEntity, adapter.StatusCodeFor(MetadataError("x").Build()))
	assert.Equal(t, http.StatusBadGateway, adapter.StatusCodeFor(ExternalToolError("x").Build()))
	assert.Equal(t, http.StatusInternalServerError, adapter.StatusCodeFor(errors.New("x")))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	adapter.WriteErrorResponse(rec, req, ConfigError("missing #content").WithPage("a.md").Build())

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"missing #content","code":"config","details":{"page":"a.md"}}`, rec.Body.String())
}
