package steps

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/bookbuilder/internal/config"
	"git.home.luguber.info/inful/bookbuilder/internal/external"
	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
)

const samplesBody = `<pre><code class="language-ocaml">let x = 1</code></pre>
<pre><code class="language-ocaml">let y = oops</code></pre>
<pre class="no-check"><code class="language-ocaml">not checked</code></pre>
<pre><code class="language-python">print(1)</code></pre>`

// recordingRunner fails every sample containing "oops".
type recordingRunner struct {
	mu    sync.Mutex
	seen  []string
	stdin []string
}

func (r *recordingRunner) Run(_ context.Context, cmd external.Command) (external.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var content string
	if cmd.Stdin != nil {
		data, err := io.ReadAll(cmd.Stdin)
		if err != nil {
			return external.Result{}, err
		}
		content = string(data)
		r.stdin = append(r.stdin, content)
	} else {
		data, err := os.ReadFile(cmd.Args[len(cmd.Args)-1])
		if err != nil {
			return external.Result{}, err
		}
		content = string(data)
	}
	r.seen = append(r.seen, content)
	if strings.Contains(content, "oops") {
		return external.Result{ExitCode: 2}, errors.New("Unbound value oops")
	}
	return external.Result{Stdout: []byte(`<div class="hl">` + content + `</div>`)}, nil
}

func codeCheckConfig() config.CodeCheckStep {
	cfg := defaultSteps().CodeCheck
	on := true
	cfg.Enabled = &on
	cfg.Command = []string{"ocamlfind", "ocamlc", "-c", "{file}"}
	return cfg
}

func TestCodeCheck_ReportsFailingSamples(t *testing.T) {
	runner := &recordingRunner{}
	env := &Env{Runner: runner}
	p := testPage(t, "arithmetic", samplesBody)

	err := NewCodeCheck(codeCheckConfig()).Apply(context.Background(), p, env)
	require.Error(t, err)

	assert.Equal(t, []string{"let x = 1", "let y = oops"}, runner.seen)
	ce, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, ferrors.CategoryExternalTool, ce.Category())
	line, _ := ce.Context().GetString("first_line")
	assert.Equal(t, "let y = oops", line)
	sample, _ := ce.Context().Get("sample")
	assert.Equal(t, 2, sample)
	pageCtx, _ := ce.Context().GetString("page")
	assert.Equal(t, "arithmetic.md", pageCtx)
}

func TestCodeCheck_AllSamplesPass(t *testing.T) {
	p := testPage(t, "x", `<pre><code class="language-ocaml">let x = 1</code></pre>`)
	require.NoError(t, NewCodeCheck(codeCheckConfig()).Apply(context.Background(), p, &Env{Runner: &recordingRunner{}}))
}

func TestCodeCheck_RemovesTempFiles(t *testing.T) {
	var files []string
	runner := external.FuncRunner(func(_ context.Context, cmd external.Command) (external.Result, error) {
		files = append(files, cmd.Args[len(cmd.Args)-1])
		return external.Result{}, nil
	})
	p := testPage(t, "x", `<pre><code class="language-ocaml">let x = 1</code></pre>`)
	require.NoError(t, NewCodeCheck(codeCheckConfig()).Apply(context.Background(), p, &Env{Runner: runner}))

	require.Len(t, files, 1)
	assert.True(t, strings.HasSuffix(files[0], ".ml"))
	_, err := os.Stat(files[0])
	assert.True(t, os.IsNotExist(err))
}

func TestHighlight_ReplacesPre(t *testing.T) {
	cfg := defaultSteps().Highlight
	cfg.Command = []string{"hl", "--lang", "{lang}"}
	var argv []string
	runner := external.FuncRunner(func(ctx context.Context, cmd external.Command) (external.Result, error) {
		argv = cmd.Args
		return (&recordingRunner{}).Run(ctx, cmd)
	})

	p := testPage(t, "x", `<pre><code class="language-ocaml">let x = 1</code></pre><pre><code class="language-ocaml">oops</code></pre>`)
	err := NewHighlight(cfg).Apply(context.Background(), p, &Env{Runner: runner})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryExternalTool))

	assert.Equal(t, []string{"hl", "--lang", "ocaml"}, argv)
	assert.Equal(t, "let x = 1", p.Find("#content div.hl").Text())
	// The failing sample keeps its original markup.
	assert.Equal(t, "oops", p.Find("#content pre code").Text())
}

func TestCodeLanguage(t *testing.T) {
	p := testPage(t, "x", `<pre class="language-ocaml"><code>a</code></pre><pre><code class="x language-ml">b</code></pre><pre><code>c</code></pre>`)
	codes := p.Find("code")
	assert.Equal(t, "ocaml", codeLanguage(codes.Eq(0)))
	assert.Equal(t, "ml", codeLanguage(codes.Eq(1)))
	assert.Equal(t, "", codeLanguage(codes.Eq(2)))
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "let x = 1", firstLine("\n  let x = 1\nlet y = 2"))
	assert.Len(t, firstLine(strings.Repeat("a", 200)), 80)
	greek := firstLine(strings.Repeat("λ", 100))
	assert.True(t, utf8.ValidString(greek))
	assert.Equal(t, 80, utf8.RuneCountInString(greek))
}
