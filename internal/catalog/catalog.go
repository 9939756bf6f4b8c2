// Package catalog serves pseudo-random nekomimi images from JSON link files.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"nekoguard/internal/storage"

	"github.com/tidwall/jsonc"
	"go.uber.org/zap"
)

const (
	FileWeb      = "links-web.json"
	FileLocal    = "links-local.json"
	FileLocalX10 = "links-localx10.json"
	FilePending  = "links-pending.json"
)

const DefaultShuffleInterval = time.Hour

type Kind string

const (
	Catgirls Kind = "catgirls"
	Catboys  Kind = "catboys"
	Local    Kind = "local"
	Traps    Kind = "traps"
)

var seeds = map[string]document{
	FileWeb: {
		Catgirls: []ImageEntry{{URL: "https://cdn.awwni.me/utpd.jpg", SourceID: "null"}},
		Catboys:  []ImageEntry{},
	},
	FileLocal:    {Catgirls: []ImageEntry{}, Catboys: []ImageEntry{}},
	FileLocalX10: {Catgirls: []ImageEntry{}, Catboys: []ImageEntry{}},
	FilePending:  {Catgirls: []ImageEntry{}, Catboys: []ImageEntry{}},
}

type Options struct {
	LocalBaseURL    string
	LocalX10BaseURL string
	CatboyBaseURL   string
	ShuffleInterval time.Duration
}

type Counts struct {
	Catgirls int
	Catboys  int
	Pending  int
}

type Catalog struct {
	opts    Options
	backend storage.Backend
	logger  *zap.Logger

	mu      sync.RWMutex
	lists   map[Kind][]ImageEntry
	pending int

	pendingMu sync.Mutex
}

// Open seeds missing link files and loads the catalog.
func Open(ctx context.Context, backend storage.Backend, opts Options, logger *zap.Logger) (*Catalog, error) {
	if opts.ShuffleInterval <= 0 {
		opts.ShuffleInterval = DefaultShuffleInterval
	}
	c := &Catalog{opts: opts, backend: backend, logger: logger, lists: make(map[Kind][]ImageEntry)}
	for _, name := range []string{FileWeb, FileLocalX10, FileLocal, FilePending} {
		if err := c.seed(ctx, name); err != nil {
			return nil, err
		}
	}
	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) seed(ctx context.Context, name string) error {
	_, err := c.backend.Load(ctx, name)
	if !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	c.logger.Info("creating default catalog file", zap.String("file", name))
	data, err := json.MarshalIndent(seeds[name], "", "    ")
	if err != nil {
		return err
	}
	return c.backend.Save(ctx, name, data)
}

// Refresh reloads every link file and rebuilds the derived lists. On error the
// previous lists stay in place.
func (c *Catalog) Refresh(ctx context.Context) error {
	local, err := c.load(ctx, FileLocal)
	if err != nil {
		return err
	}
	localX10, err := c.load(ctx, FileLocalX10)
	if err != nil {
		return err
	}
	web, err := c.load(ctx, FileWeb)
	if err != nil {
		return err
	}
	pending, err := c.load(ctx, FilePending)
	if err != nil {
		return err
	}

	localGirls := prefixed(local.Catgirls, c.opts.LocalBaseURL)
	var traps []ImageEntry
	for _, entry := range localGirls {
		if entry.Trap {
			traps = append(traps, entry)
		}
	}
	localBoys := prefixed(local.Catboys, c.opts.CatboyBaseURL)

	lists := map[Kind][]ImageEntry{
		Catgirls: slices.Concat(localGirls, web.Catgirls, prefixed(localX10.Catgirls, c.opts.LocalX10BaseURL)),
		Catboys:  slices.Concat(localBoys, web.Catboys, traps),
		Local:    slices.Clone(localGirls),
		Traps:    traps,
	}

	c.mu.Lock()
	c.lists = lists
	c.pending = len(pending.Catgirls)
	c.mu.Unlock()
	c.logger.Info("catalog loaded",
		zap.Int("catgirls", len(lists[Catgirls])),
		zap.Int("catboys", len(lists[Catboys])),
		zap.Int("pending", len(pending.Catgirls)))
	return nil
}

// ErrMalformed reports a link file that exists but does not decode.
var ErrMalformed = errors.New("malformed catalog file")

// load reads a link file for display. A malformed file reads as empty so one
// bad hand edit does not take the whole catalog down.
func (c *Catalog) load(ctx context.Context, name string) (document, error) {
	doc, err := c.decode(ctx, name)
	if errors.Is(err, ErrMalformed) {
		c.logger.Warn("malformed catalog file treated as empty", zap.String("file", name), zap.Error(err))
		return document{}, nil
	}
	return doc, err
}

// decode reads a link file strictly. A missing file is empty.
func (c *Catalog) decode(ctx context.Context, name string) (document, error) {
	var doc document
	raw, err := c.backend.Load(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("load %s: %w", name, err)
	}
	if err := json.Unmarshal(jsonc.ToJSON(raw), &doc); err != nil {
		return document{}, fmt.Errorf("%w %s: %v", ErrMalformed, name, err)
	}
	return doc, nil
}

func prefixed(entries []ImageEntry, base string) []ImageEntry {
	out := make([]ImageEntry, len(entries))
	for i, entry := range entries {
		entry.URL = base + entry.URL
		out[i] = entry
	}
	return out
}

// Random picks an entry from the list; false when the list is empty.
func (c *Catalog) Random(kind Kind) (ImageEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	list := c.lists[kind]
	if len(list) == 0 {
		return ImageEntry{}, false
	}
	return list[rand.IntN(len(list))], true
}

// List returns a copy of the list in its current order.
func (c *Catalog) List(kind Kind) []ImageEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.lists[kind])
}

func (c *Catalog) Counts() Counts {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Counts{Catgirls: len(c.lists[Catgirls]), Catboys: len(c.lists[Catboys]), Pending: c.pending}
}

func (c *Catalog) Shuffle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, kind := range []Kind{Catgirls, Catboys, Local} {
		list := c.lists[kind]
		rand.Shuffle(len(list), func(i, j int) { list[i], list[j] = list[j], list[i] })
	}
}

// Run reshuffles the lists immediately and then on every interval until ctx
// is cancelled.
func (c *Catalog) Run(ctx context.Context) {
	c.Shuffle()
	ticker := time.NewTicker(c.opts.ShuffleInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Shuffle()
			c.logger.Debug("catalog reshuffled")
		}
	}
}

// AddPending appends an image to the pending file for later review. A pending
// file that does not decode is left untouched and ErrMalformed is returned.
func (c *Catalog) AddPending(ctx context.Context, entry ImageEntry) error {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()

	doc, err := c.decode(ctx, FilePending)
	if err != nil {
		return err
	}
	if doc.Catboys == nil {
		doc.Catboys = []ImageEntry{}
	}
	doc.Catgirls = append(doc.Catgirls, entry)
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return err
	}
	if err := c.backend.Save(ctx, FilePending, data); err != nil {
		return fmt.Errorf("save %s: %w", FilePending, err)
	}

	c.mu.Lock()
	c.pending = len(doc.Catgirls)
	c.mu.Unlock()
	return nil
}
