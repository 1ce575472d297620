package cli

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"

	"github.com/kbukum/compgraph/config"
	"github.com/kbukum/compgraph/errors"
	"github.com/kbukum/compgraph/logger"
	"github.com/kbukum/compgraph/observability"
	"github.com/kbukum/compgraph/rowio"
	"github.com/kbukum/compgraph/stream"
)

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func newGolden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"run", "word-count", "tf-idf", "pmi", "road-speed", "version"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			if err != nil {
				t.Fatalf("command %s: %v", name, err)
			}
			if sub.Name() != name {
				t.Errorf("found %q, want %q", sub.Name(), name)
			}
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"config", "log-level", "check-grouping"} {
		if cmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("flag --%s missing", name)
		}
	}
}

func TestWordCount_Golden(t *testing.T) {
	out, _, err := execute(t, "word-count", "--input", "testdata/docs.ndjson")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	newGolden(t).Assert(t, "word_count", []byte(out))
}

func TestRun_Golden(t *testing.T) {
	out, _, err := execute(t, "run",
		"--plan", "testdata/plans/users_orders.yaml",
		"--input", "users=testdata/users.ndjson",
		"--input", "orders=testdata/orders.ndjson",
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	newGolden(t).Assert(t, "run_plan", []byte(out))
}

func TestRun_OutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ndjson")
	out, _, err := execute(t, "word-count", "--input", "testdata/docs.ndjson", "--output", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "" {
		t.Errorf("expected empty stdout, got %q", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(string(data), "\n"); got != 5 {
		t.Errorf("expected 5 rows, got %d", got)
	}
}

func TestTFIDF(t *testing.T) {
	out, _, err := execute(t, "tf-idf", "--input", "testdata/corpus.ndjson")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := stream.Collect(context.Background(), rowio.NewReader(strings.NewReader(out)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("expected rows")
	}
	for _, r := range got {
		for _, f := range []string{"doc_id", "text", "tf_idf"} {
			if !r.Has(f) {
				t.Errorf("row %v lacks %s", r, f)
			}
		}
		if s, _ := r["tf_idf"].Number(); s <= 0 || math.IsNaN(s) {
			t.Errorf("row %v has non-positive score", r)
		}
	}
}

func TestPMI_Ranking(t *testing.T) {
	out, _, err := execute(t, "pmi", "--input", "testdata/corpus.ndjson")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 rows, got %d: %q", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], `{"doc_id":3,"pmi":0.955`) {
		t.Errorf("first row = %s", lines[0])
	}
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code errors.ErrorCode
		text string
	}{
		{
			name: "missing binding",
			args: []string{"run", "--plan", "testdata/plans/users_orders.yaml", "--input", "users=testdata/users.ndjson"},
			code: errors.ErrCodeBinding,
		},
		{
			name: "grouping check",
			args: []string{"--check-grouping", "run", "--plan", "testdata/plans/unsorted.yaml", "--input", "rows=testdata/repeats.ndjson"},
			code: errors.ErrCodeGroupingViolation,
		},
		{
			name: "missing input file",
			args: []string{"word-count", "--input", "testdata/nope.ndjson"},
			text: "nope.ndjson",
		},
		{
			name: "bad input spec",
			args: []string{"run", "--plan", "testdata/plans/users_orders.yaml", "--input", "users"},
			text: "want name=path",
		},
		{
			name: "missing plan flag",
			args: []string{"run"},
			text: "plan",
		},
		{
			name: "bad log level",
			args: []string{"--log-level", "loud", "version"},
			text: "invalid log level",
		},
		{
			name: "missing config file",
			args: []string{"--config", "testdata/none.yml", "word-count", "--input", "testdata/docs.ndjson"},
			text: "not found",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.code != "" && !errors.Is(err, tt.code) {
				t.Errorf("expected %s, got %v", tt.code, err)
			}
			if tt.text != "" && !strings.Contains(err.Error(), tt.text) {
				t.Errorf("error %q does not mention %q", err, tt.text)
			}
		})
	}
}

func TestRun_WithoutGroupingCheckTrustsInput(t *testing.T) {
	out, _, err := execute(t, "run", "--plan", "testdata/plans/unsorted.yaml", "--input", "rows=testdata/repeats.ndjson")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Count(out, "\n"); got != 3 {
		t.Errorf("expected 3 groups, got %d: %q", got, out)
	}
}

func TestRun_ResolveErrorFlushesTelemetry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	def := "name: bad\noutput: g\ngraphs:\n  g:\n    input: rows\n    stages:\n      - map: no_such_mapper\n"
	if err := os.WriteFile(path, []byte(def), 0o644); err != nil {
		t.Fatal(err)
	}

	flushed := 0
	opts := &RootOptions{app: &App{
		Cfg:       config.Default(),
		Logger:    logger.NewNop(),
		Telemetry: observability.Noop(),
		shutdown: func(context.Context) error {
			flushed++
			return nil
		},
		gracefulTimeout: time.Second,
	}}
	cmd := NewRunCommand(opts)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--plan", path, "--input", "rows=testdata/repeats.ndjson"})

	err := cmd.Execute()
	if !errors.Is(err, errors.ErrCodeUnknownOperation) {
		t.Fatalf("expected UNKNOWN_OPERATION, got %v", err)
	}
	if flushed != 1 {
		t.Errorf("telemetry flushed %d times, want 1", flushed)
	}
}

func TestRun_RepeatedInputConcatenates(t *testing.T) {
	out, _, err := execute(t, "run", "--plan", "testdata/plans/unsorted.yaml",
		"--input", "rows=testdata/repeats.ndjson",
		"--input", "rows=testdata/repeats.ndjson",
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 1 2 1 1 2 1 has five runs of equal ids.
	if got := strings.Count(out, "\n"); got != 5 {
		t.Errorf("expected 5 groups, got %d: %q", got, out)
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "compgraph.yml")
	cfg := "logging:\n  level: debug\n  format: json\nengine:\n  join_left_suffix: _l\n  join_right_suffix: _r\n"
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	_, stderr, err := execute(t, "--config", path, "word-count", "--input", "testdata/docs.ndjson")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stderr, `"message":"graph run started"`) {
		t.Errorf("expected debug run log in stderr, got %q", stderr)
	}
}

func TestConfigFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compgraph.yml")
	cfg := "engine:\n  join_left_suffix: _x\n  join_right_suffix: _x\n"
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, err := execute(t, "--config", path, "word-count", "--input", "testdata/docs.ndjson")
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Fatalf("expected INVALID_CONFIG, got %v", err)
	}
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out, "compgraph ") {
		t.Errorf("unexpected output %q", out)
	}

	out, _, err = execute(t, "version", "--short")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) == "" || strings.Contains(out, "\n\n") {
		t.Errorf("unexpected short output %q", out)
	}
}
