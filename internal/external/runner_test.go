package external

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand(t *testing.T) {
	got := Expand([]string{"ocamlfind", "-c", "{file}", "--lang={lang}"}, map[string]string{
		"file": "/tmp/x.ml",
		"lang": "ocaml",
	})
	assert.Equal(t, []string{"ocamlfind", "-c", "/tmp/x.ml", "--lang=ocaml"}, got)
}

func TestExecRunner_MissingTool(t *testing.T) {
	_, err := ExecRunner{}.Run(context.Background(), Command{Args: []string{"definitely-not-a-real-tool-xyz"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrToolNotFound))
}

func TestExecRunner_EmptyCommand(t *testing.T) {
	_, err := ExecRunner{}.Run(context.Background(), Command{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrToolFailed))
}

func TestExecRunner_CapturesOutputAndFailures(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	res, err := ExecRunner{}.Run(context.Background(), Command{
		Args:  []string{"sh", "-c", "cat"},
		Stdin: strings.NewReader("let x = 1"),
	})
	require.NoError(t, err)
	assert.Equal(t, "let x = 1", string(res.Stdout))

	res, err = ExecRunner{}.Run(context.Background(), Command{
		Args: []string{"sh", "-c", "echo boom >&2; exit 3"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrToolFailed))
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, 3, res.ExitCode)
}

func TestExecRunner_Timeout(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}
	_, err := ExecRunner{}.Run(context.Background(), Command{
		Args:    []string{"sleep", "5"},
		Timeout: 50 * time.Millisecond,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrToolFailed))
}
