package convert

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"repub/archive"
	"repub/config"
	"repub/state"
)

// setupTestEnv creates a test environment with proper context and logger
func setupTestEnv(t *testing.T) (context.Context, *state.LocalEnv) {
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	ctx := state.ContextWithEnv(context.Background())
	env := state.EnvFromContext(ctx)
	env.Log = logger
	env.Cfg = cfg
	return ctx, env
}

func writeSources(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	files := map[string]string{
		"01-intro.md":       "# Introduction\n\nHello.\n",
		"02-chapter.md":     "# Chapter\n\n## Section\n\nText with ![pic](img/pic.svg).\n",
		"img/pic.svg":       `<svg xmlns="http://www.w3.org/2000/svg"/>`,
		"styles/book.css":   "body { margin: 0 }",
		".hidden/skip.md":   "# Hidden\n",
		config.BookFileName: `{"title": "Sample", "creator": "Writer"}`,
	}
	for name, data := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(data), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestBuild(t *testing.T) {
	ctx, env := setupTestEnv(t)
	src := writeSources(t)
	dst := t.TempDir()

	out, err := Build(ctx, src, dst, env)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if out != filepath.Join(dst, "Sample.epub") {
		t.Errorf("Build() = %s", out)
	}

	names, err := archive.Entries(out)
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	want := []string{
		"mimetype",
		"META-INF/",
		"META-INF/container.xml",
		"OEBPS/",
		"OEBPS/01-intro.xhtml",
		"OEBPS/02-chapter.xhtml",
		"OEBPS/navigation.xhtml",
		"OEBPS/package.opf",
		"OEBPS/img/",
		"OEBPS/img/pic.svg",
		"OEBPS/styles/",
		"OEBPS/styles/book.css",
	}
	if strings.Join(names, "\n") != strings.Join(want, "\n") {
		t.Errorf("entries:\n%s\nwant:\n%s", strings.Join(names, "\n"), strings.Join(want, "\n"))
	}
}

func TestBuildReport(t *testing.T) {
	ctx, env := setupTestEnv(t)
	src := writeSources(t)
	dir := t.TempDir()

	rc := config.ReporterConfig{Destination: filepath.Join(dir, "report.zip")}
	rpt, err := rc.Prepare()
	if err != nil {
		t.Fatal(err)
	}
	env.Rpt = rpt
	if _, err := Build(ctx, src, filepath.Join(dir, "out"), env); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if err := rpt.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	r, err := zip.OpenReader(rc.Destination)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	found := make(map[string]string)
	for _, f := range r.File {
		fr, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, _ := io.ReadAll(fr)
		fr.Close()
		found[f.Name] = string(data)
	}
	for _, name := range []string{"compose/toc.txt", "compose/registry.txt", "compose/entries.txt", "result/Sample.epub", "book/" + config.BookFileName} {
		if _, ok := found[name]; !ok {
			t.Errorf("report has no %s", name)
		}
	}
	if entries := found["compose/entries.txt"]; !strings.HasPrefix(entries, "mimetype\nMETA-INF/\n") || !strings.Contains(entries, "OEBPS/package.opf\n") {
		t.Errorf("unexpected entries listing:\n%s", entries)
	}
}

func TestBuildSaveConfig(t *testing.T) {
	ctx, env := setupTestEnv(t)
	src := writeSources(t)
	title := "Another"
	env.Build.Overrides = config.Overrides{Title: &title}
	env.Build.SaveBook = true

	out, err := Build(ctx, src, t.TempDir(), env)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if filepath.Base(out) != "Another.epub" {
		t.Errorf("Build() = %s", out)
	}

	book, found, err := config.LoadBook(filepath.Join(src, config.BookFileName))
	if err != nil || !found {
		t.Fatalf("LoadBook() = %v, %v", found, err)
	}
	if book.Title != "Another" || book.Creator != "Writer" {
		t.Errorf("saved book = %+v", book)
	}
	if !strings.HasPrefix(book.BookID, "urn:uuid:") {
		t.Errorf("saved book id = %q", book.BookID)
	}

	// identifier is stable once saved
	env.Build.SaveBook = false
	if _, err := Build(ctx, src, t.TempDir(), env); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	again, _, err := config.LoadBook(filepath.Join(src, config.BookFileName))
	if err != nil {
		t.Fatal(err)
	}
	if again.BookID != book.BookID {
		t.Errorf("book id changed: %s -> %s", book.BookID, again.BookID)
	}
}

func TestBuildSingleFile(t *testing.T) {
	ctx, env := setupTestEnv(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "story.md")
	if err := os.WriteFile(src, []byte("# Once\n\nUpon a time.\n"), 0644); err != nil {
		t.Fatal(err)
	}
	title := "Story"
	env.Build.Overrides = config.Overrides{Title: &title}

	out, err := Build(ctx, src, t.TempDir(), env)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	names, err := archive.Entries(out)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, n := range names {
		found = found || n == "OEBPS/story.xhtml"
	}
	if !found {
		t.Errorf("story.xhtml is missing from %v", names)
	}
}

func TestBuildErrors(t *testing.T) {
	ctx, env := setupTestEnv(t)

	t.Run("missing source", func(t *testing.T) {
		if _, err := Build(ctx, filepath.Join(t.TempDir(), "missing"), t.TempDir(), env); err == nil {
			t.Error("Build() expected error")
		}
	})

	t.Run("no title", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "a.md"), []byte("# A\n"), 0644); err != nil {
			t.Fatal(err)
		}
		_, err := Build(ctx, dir, t.TempDir(), env)
		if err == nil || !strings.Contains(err.Error(), "title") {
			t.Errorf("Build() error = %v", err)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := Build(cctx, writeSources(t), t.TempDir(), env); err == nil {
			t.Error("Build() expected error for cancelled context")
		}
	})
}

func TestOverrides(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, o config.Overrides)
		fail  bool
	}{
		{
			name: "nothing set",
			args: nil,
			check: func(t *testing.T, o config.Overrides) {
				if o.Title != nil || o.Creator != nil || o.WritingMode != nil || o.TOCLevel != nil {
					t.Errorf("unexpected overrides %+v", o)
				}
			},
		},
		{
			name: "explicit values",
			args: []string{"--title", "T", "--creator", "", "--mode", "vrl", "--toc-level", "3", "--cover", "c.png"},
			check: func(t *testing.T, o config.Overrides) {
				if o.Title == nil || *o.Title != "T" {
					t.Errorf("title = %v", o.Title)
				}
				if o.Creator == nil || *o.Creator != "" {
					t.Errorf("explicitly empty creator must be kept")
				}
				if o.WritingMode == nil || *o.WritingMode != config.WritingModeVrl {
					t.Errorf("mode = %v", o.WritingMode)
				}
				if o.TOCLevel == nil || *o.TOCLevel != 3 {
					t.Errorf("toc level = %v", o.TOCLevel)
				}
				if o.CoverImage == nil || *o.CoverImage != "c.png" {
					t.Errorf("cover = %v", o.CoverImage)
				}
			},
		},
		{
			name: "bad mode",
			args: []string{"--mode", "diagonal"},
			fail: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				got config.Overrides
				err error
			)
			cmd := &cli.Command{
				Name:  "build",
				Flags: BuildFlags(),
				Action: func(_ context.Context, cmd *cli.Command) error {
					got, err = overrides(cmd)
					return nil
				},
			}
			if rerr := cmd.Run(context.Background(), append([]string{"build"}, tt.args...)); rerr != nil {
				t.Fatalf("Run() error = %v", rerr)
			}
			if tt.fail {
				if err == nil {
					t.Error("overrides() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("overrides() error = %v", err)
			}
			tt.check(t, got)
		})
	}
}

func TestList(t *testing.T) {
	ctx, env := setupTestEnv(t)
	out, err := Build(ctx, writeSources(t), t.TempDir(), env)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := List(out, "OEBPS/img/", &buf); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	text := buf.String()
	if !strings.Contains(text, "OEBPS/img/pic.svg") || !strings.Contains(text, "1 files") {
		t.Errorf("List() output:\n%s", text)
	}
	if strings.Contains(text, "package.opf") {
		t.Errorf("List() ignored prefix:\n%s", text)
	}

	buf.Reset()
	if err := List(out, "", &buf); err != nil {
		t.Fatal(err)
	}
	if first := strings.SplitN(buf.String(), "\n", 2)[0]; !strings.Contains(first, "stored") || !strings.HasSuffix(first, "mimetype") {
		t.Errorf("first line = %q", first)
	}

	if err := List(filepath.Join(t.TempDir(), "none.epub"), "", &buf); err == nil {
		t.Error("List() expected error for missing archive")
	}
}
