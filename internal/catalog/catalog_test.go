package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nekoguard/internal/storage"

	"go.uber.org/zap"
)

func openCatalog(t *testing.T, dir string) *Catalog {
	t.Helper()
	backend, err := storage.NewFileBackend(dir)
	if err != nil {
		t.Fatalf("backend: %v", err)
	}
	c, err := Open(context.Background(), backend, Options{
		LocalBaseURL:    "https://local/",
		LocalX10BaseURL: "https://x10/",
		CatboyBaseURL:   "https://boys/",
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return c
}

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestOpenSeedsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	c := openCatalog(t, dir)

	for _, name := range []string{FileWeb, FileLocal, FileLocalX10, FilePending} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s to be created: %v", name, err)
		}
	}
	entry, ok := c.Random(Catgirls)
	if !ok || entry.URL != "https://cdn.awwni.me/utpd.jpg" {
		t.Fatalf("expected seeded web entry, got %+v %v", entry, ok)
	}
	if _, ok := c.Random(Catboys); ok {
		t.Fatalf("expected no catboys")
	}
	if got := c.Counts(); got != (Counts{Catgirls: 1}) {
		t.Fatalf("unexpected counts %+v", got)
	}
}

func TestCompositionAndPrefixes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileLocal, `{
		// hand curated
		"catgirls": [
			{"url": "a.png", "is_pixiv": true, "id": 123},
			{"url": "b.png", "is_pixiv": false, "id": null, "trap": true},
		],
		"catboys": [{"url": "c.png", "is_pixiv": false, "id": "9"}]
	}`)
	writeFile(t, dir, FileLocalX10, `{"catgirls": [{"url": "d.png", "is_pixiv": false, "id": null}], "catboys": []}`)
	writeFile(t, dir, FileWeb, `{"catgirls": [{"url": "https://web/e.png", "is_pixiv": false, "id": "null"}], "catboys": [{"url": "https://web/f.png", "is_pixiv": false, "id": null}]}`)
	c := openCatalog(t, dir)

	urls := func(kind Kind) string {
		var out []string
		for _, entry := range c.List(kind) {
			out = append(out, entry.URL)
		}
		return strings.Join(out, ",")
	}
	if got := urls(Catgirls); got != "https://local/a.png,https://local/b.png,https://web/e.png,https://x10/d.png" {
		t.Fatalf("unexpected catgirls %s", got)
	}
	if got := urls(Catboys); got != "https://boys/c.png,https://web/f.png,https://local/b.png" {
		t.Fatalf("unexpected catboys %s", got)
	}
	if got := urls(Local); got != "https://local/a.png,https://local/b.png" {
		t.Fatalf("unexpected local %s", got)
	}
	if got := urls(Traps); got != "https://local/b.png" {
		t.Fatalf("unexpected traps %s", got)
	}

	first := c.List(Local)[0]
	if first.SourceID != "123" {
		t.Fatalf("numeric id should read as string, got %q", first.SourceID)
	}
	label, link, ok := first.Source()
	if !ok || label != "Pixiv" || !strings.HasSuffix(link, "illust_id=123") {
		t.Fatalf("unexpected source %q %q %v", label, link, ok)
	}
}

func TestShuffleKeepsMembers(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileLocal, `{"catgirls": [
		{"url": "1"}, {"url": "2"}, {"url": "3"}, {"url": "4"}, {"url": "5"}
	], "catboys": []}`)
	c := openCatalog(t, dir)

	c.Shuffle()
	seen := map[string]bool{}
	for _, entry := range c.List(Local) {
		seen[entry.URL] = true
	}
	if len(seen) != 5 {
		t.Fatalf("shuffle lost entries: %v", seen)
	}
	if c.Counts().Catgirls != 6 {
		t.Fatalf("expected 5 local + 1 web, got %d", c.Counts().Catgirls)
	}
}

func TestRefreshPicksUpEdits(t *testing.T) {
	dir := t.TempDir()
	c := openCatalog(t, dir)

	writeFile(t, dir, FileWeb, `{"catgirls": [], "catboys": [{"url": "https://web/boy.png"}]}`)
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if got := c.Counts(); got.Catgirls != 0 || got.Catboys != 1 {
		t.Fatalf("unexpected counts %+v", got)
	}
}

func TestMalformedFileReadsEmpty(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileWeb, `{"catgirls": [`)
	c := openCatalog(t, dir)
	if got := c.Counts().Catgirls; got != 0 {
		t.Fatalf("expected malformed web file to contribute nothing, got %d", got)
	}
}

func TestAddPending(t *testing.T) {
	dir := t.TempDir()
	c := openCatalog(t, dir)

	entry := ImageEntry{URL: "https://example.com/neko.png", Character: "Nekomimi", Submitter: "neko#1660"}
	if err := c.AddPending(context.Background(), entry); err != nil {
		t.Fatalf("add pending: %v", err)
	}
	if got := c.Counts().Pending; got != 1 {
		t.Fatalf("expected one pending, got %d", got)
	}

	raw, err := os.ReadFile(filepath.Join(dir, FilePending))
	if err != nil {
		t.Fatalf("read pending: %v", err)
	}
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("decode pending: %v", err)
	}
	if len(doc.Catgirls) != 1 || doc.Catgirls[0].Submitter != "neko#1660" || doc.Catboys == nil {
		t.Fatalf("unexpected pending document %s", raw)
	}
	if !strings.Contains(string(raw), `"id": null`) {
		t.Fatalf("empty id should be written as null: %s", raw)
	}
}

func TestAddPendingKeepsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	c := openCatalog(t, dir)

	broken := `{"catgirls": [{"url": "https://example.com/keep1.png"}, {"url": "https://example.com/keep2.png" "catboys": []}`
	writeFile(t, dir, FilePending, broken)

	err := c.AddPending(context.Background(), ImageEntry{URL: "https://example.com/new.png"})
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected malformed error, got %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(dir, FilePending))
	if err != nil {
		t.Fatalf("read pending: %v", err)
	}
	if string(raw) != broken {
		t.Fatalf("pending file must not be rewritten, got %s", raw)
	}

	writeFile(t, dir, FilePending, `{"catgirls": [{"url": "https://example.com/keep1.png"},], "catboys": []}`)
	if err := c.AddPending(context.Background(), ImageEntry{URL: "https://example.com/new.png"}); err != nil {
		t.Fatalf("trailing comma should still decode: %v", err)
	}
	if got := c.Counts().Pending; got != 2 {
		t.Fatalf("expected existing entry kept, got %d pending", got)
	}
}
