package server

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/bastiangx/pdfserve/internal/logger"
	"github.com/bastiangx/pdfserve/pkg/cache"
	"github.com/bastiangx/pdfserve/pkg/config"
	"github.com/bastiangx/pdfserve/pkg/extract"
	"github.com/bastiangx/pdfserve/pkg/match"
	"github.com/bastiangx/pdfserve/pkg/provider"
	"github.com/bastiangx/pdfserve/pkg/store"
	"github.com/bastiangx/pdfserve/pkg/suggest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

// frame is a superset of every response shape.
type frame struct {
	ID          string `msgpack:"id"`
	Status      string `msgpack:"status"`
	Source      string `msgpack:"source"`
	Error       string `msgpack:"e"`
	C           int    `msgpack:"c"`
	Text        string `msgpack:"text"`
	Cursor      int    `msgpack:"cursor"`
	Suggestions []struct {
		Word       string `msgpack:"w"`
		Rank       uint16 `msgpack:"r"`
		InsertText string `msgpack:"i"`
	} `msgpack:"s"`
	Stats map[string]int `msgpack:"stats"`
}

type fakeBackend struct {
	words     []string
	lines     []match.Suggestion
	err       error
	lastLimit int
	cleared   int
	refreshed int
	langs     map[string]bool
}

func (f *fakeBackend) Words(context.Context) ([]string, error) { return f.words, f.err }

func (f *fakeBackend) Complete(_ context.Context, prefix string, limit int) ([]suggest.Suggestion, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	var out []suggest.Suggestion
	for _, w := range f.words {
		if len(w) >= len(prefix) && w[:len(prefix)] == prefix {
			out = append(out, suggest.Suggestion{Word: w, Frequency: 1})
		}
	}
	return out, nil
}

func (f *fakeBackend) Lines(context.Context, string) ([]match.Suggestion, error) {
	return f.lines, f.err
}

func (f *fakeBackend) Refresh(context.Context, bool) (cache.Snapshot, error) {
	f.refreshed++
	return cache.Snapshot{}, f.err
}

func (f *fakeBackend) Invalidate(context.Context) error {
	f.cleared++
	return f.err
}

func (f *fakeBackend) Supports(lang string) bool {
	return lang == "" || f.langs[lang]
}

func (f *fakeBackend) Stats(context.Context) map[string]int {
	return map[string]int{"words": len(f.words)}
}

func (f *fakeBackend) SourcePath() string { return "/docs/thesis.pdf" }

func newFake() *fakeBackend {
	return &fakeBackend{
		words: []string{"kapitel", "kante", "karte", "methode"},
		langs: map[string]bool{"typst": true, "markdown": true},
	}
}

// roundTrip runs the server over the encoded requests and returns every
// frame after the ready frame.
func roundTrip(t *testing.T, backend Backend, cfg *config.Config, reqs ...any) []frame {
	t.Helper()
	var in, out bytes.Buffer
	enc := msgpack.NewEncoder(&in)
	for _, r := range reqs {
		require.NoError(t, enc.Encode(r))
	}

	srv := NewServerWithIO(backend, cfg, &in, &out)
	require.NoError(t, srv.Start(context.Background()))

	dec := msgpack.NewDecoder(&out)
	var frames []frame
	for out.Len() > 0 {
		var f frame
		require.NoError(t, dec.Decode(&f))
		frames = append(frames, f)
	}
	require.NotEmpty(t, frames)
	assert.Equal(t, "ready", frames[0].Status)
	return frames[1:]
}

func TestReadyFrame(t *testing.T) {
	frames := roundTrip(t, newFake(), nil)
	assert.Empty(t, frames)
}

func TestWordsWithPrefix(t *testing.T) {
	frames := roundTrip(t, newFake(), nil, Request{ID: "r1", Action: ActionWords, Prefix: "ka"})
	require.Len(t, frames, 1)
	f := frames[0]
	assert.Equal(t, "r1", f.ID)
	assert.Equal(t, 3, f.C)
	require.Len(t, f.Suggestions, 3)
	assert.Equal(t, "kapitel", f.Suggestions[0].Word)
	assert.Equal(t, uint16(1), f.Suggestions[0].Rank)
	assert.Equal(t, uint16(3), f.Suggestions[2].Rank)
}

func TestPrefixWithoutActionIsWords(t *testing.T) {
	frames := roundTrip(t, newFake(), nil, Request{ID: "r1", Prefix: "me"})
	require.Len(t, frames, 1)
	require.Len(t, frames[0].Suggestions, 1)
	assert.Equal(t, "methode", frames[0].Suggestions[0].Word)
}

func TestWordsWithoutPrefixReturnsAll(t *testing.T) {
	fake := newFake()
	frames := roundTrip(t, fake, nil, Request{ID: "r1", Action: ActionWords})
	require.Len(t, frames, 1)
	assert.Equal(t, len(fake.words), frames[0].C)
}

func TestWordsLimit(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.MaxLimit = 5
	cfg.Completion.MaxSuggestions = 3

	fake := newFake()
	roundTrip(t, fake, cfg, Request{ID: "a", Action: ActionWords, Prefix: "ka"})
	assert.Equal(t, 3, fake.lastLimit)

	roundTrip(t, fake, cfg, Request{ID: "b", Action: ActionWords, Prefix: "ka", Limit: 100})
	assert.Equal(t, 5, fake.lastLimit)

	roundTrip(t, fake, cfg, Request{ID: "c", Action: ActionWords, Prefix: "ka", Limit: 4})
	assert.Equal(t, 4, fake.lastLimit)
}

func TestWordsRejectsLongPrefix(t *testing.T) {
	long := string(bytes.Repeat([]byte("a"), maxPrefixLen+1))
	frames := roundTrip(t, newFake(), nil, Request{ID: "r1", Action: ActionWords, Prefix: long})
	require.Len(t, frames, 1)
	assert.Equal(t, 400, frames[0].C)
	assert.NotEmpty(t, frames[0].Error)
}

func TestWordsSkipsInvalidPrefix(t *testing.T) {
	fake := newFake()
	frames := roundTrip(t, fake, nil,
		Request{ID: "num", Action: ActionWords, Prefix: "123"},
		Request{ID: "rep", Action: ActionWords, Prefix: "kkk"},
	)
	require.Len(t, frames, 2)
	for _, f := range frames {
		assert.Empty(t, f.Error)
		assert.Equal(t, 0, f.C)
	}
	assert.Zero(t, fake.lastLimit)
}

func TestLanguageGating(t *testing.T) {
	fake := newFake()
	fake.lines = []match.Suggestion{{InsertText: "fox jumps"}}
	frames := roundTrip(t, fake, nil,
		Request{ID: "w", Action: ActionWords, Prefix: "ka", Lang: "go"},
		Request{ID: "l", Action: ActionLine, Text: "quick brown", Lang: "go"},
	)
	require.Len(t, frames, 2)
	assert.Equal(t, 0, frames[0].C)
	assert.Equal(t, 0, frames[1].C)
	assert.Empty(t, frames[1].Error)
}

func TestLine(t *testing.T) {
	fake := newFake()
	fake.lines = []match.Suggestion{{InsertText: "fox jumps", Line: "the quick brown fox jumps"}}
	frames := roundTrip(t, fake, nil, Request{ID: "l", Action: ActionLine, Text: "quick brown", Lang: "typst"})
	require.Len(t, frames, 1)
	require.Len(t, frames[0].Suggestions, 1)
	assert.Equal(t, "fox jumps", frames[0].Suggestions[0].InsertText)
	assert.Equal(t, 1, frames[0].C)
}

func TestMaintenanceActions(t *testing.T) {
	fake := newFake()
	frames := roundTrip(t, fake, nil,
		Request{ID: "r", Action: ActionRefresh},
		Request{ID: "c", Action: ActionClear},
		Request{ID: "s", Action: ActionStats},
		Request{ID: "h", Action: ActionHealth},
	)
	require.Len(t, frames, 4)
	for _, f := range frames {
		assert.Equal(t, "ok", f.Status, f.ID)
	}
	assert.Equal(t, 1, fake.refreshed)
	assert.Equal(t, 1, fake.cleared)
	assert.Equal(t, 4, frames[2].Stats["words"])
	assert.Equal(t, 3, frames[2].Stats["requests"])
	assert.Equal(t, "/docs/thesis.pdf", frames[3].Source)
}

func TestBackendErrors(t *testing.T) {
	fake := newFake()
	fake.err = errors.New("boom")
	frames := roundTrip(t, fake, nil,
		Request{ID: "w", Action: ActionWords, Prefix: "ka"},
		Request{ID: "r", Action: ActionRefresh},
		Request{ID: "c", Action: ActionClear},
	)
	require.Len(t, frames, 3)
	for _, f := range frames {
		assert.Equal(t, 500, f.C, f.ID)
		assert.Equal(t, "boom", f.Error)
	}
}

func TestFormat(t *testing.T) {
	frames := roundTrip(t, newFake(), nil,
		Request{ID: "f", Action: ActionFormat, Text: "= A\n\n\n\nbody\n\n", Lang: "typst"},
		Request{ID: "m", Action: ActionFormat, Text: "x", Lang: "markdown"},
	)
	require.Len(t, frames, 2)
	assert.Equal(t, "= A\n\nbody\n", frames[0].Text)
	assert.Equal(t, -1, frames[0].Cursor)
	assert.Equal(t, 400, frames[1].C)
}

func TestEmphasis(t *testing.T) {
	frames := roundTrip(t, newFake(), nil,
		Request{ID: "b", Action: ActionEmphasis, Text: "word"},
		Request{ID: "i", Action: ActionEmphasis, Text: "_word_", Symbol: "_"},
		Request{ID: "e", Action: ActionEmphasis, Symbol: "_"},
	)
	require.Len(t, frames, 3)
	assert.Equal(t, "*word*", frames[0].Text)
	assert.Equal(t, "word", frames[1].Text)
	assert.Equal(t, "__", frames[2].Text)
	assert.Equal(t, 1, frames[2].Cursor)
}

func TestUnknownAction(t *testing.T) {
	frames := roundTrip(t, newFake(), nil, Request{ID: "x", Action: "frobnicate"})
	require.Len(t, frames, 1)
	assert.Equal(t, "x", frames[0].ID)
	assert.Equal(t, 400, frames[0].C)
}

func TestMissingIDIsAssigned(t *testing.T) {
	frames := roundTrip(t, newFake(), nil, Request{Action: ActionHealth})
	require.Len(t, frames, 1)
	assert.Len(t, frames[0].ID, 36)
}

func TestMalformedFrame(t *testing.T) {
	frames := roundTrip(t, newFake(), nil, 42, Request{ID: "h", Action: ActionHealth})
	require.GreaterOrEqual(t, len(frames), 2)
	assert.Equal(t, 400, frames[0].C)
	last := frames[len(frames)-1]
	assert.Equal(t, "h", last.ID)
	assert.Equal(t, "ok", last.Status)
}

func TestCancelledContextStops(t *testing.T) {
	var in, out bytes.Buffer
	require.NoError(t, msgpack.NewEncoder(&in).Encode(Request{ID: "h", Action: ActionHealth}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	srv := NewServerWithIO(newFake(), nil, &in, &out)
	require.NoError(t, srv.Start(ctx))

	var ready frame
	dec := msgpack.NewDecoder(&out)
	require.NoError(t, dec.Decode(&ready))
	assert.Equal(t, "ready", ready.Status)
	assert.Zero(t, out.Len())
}

func TestWithProvider(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Source.Path = "/docs/thesis.pdf"
	cfg.Cache.Backend = config.BackendMemory
	cfg.Completion.EnableLineCompletion = true

	text := "the quick brown fox jumps\nKapitel eins beschreibt die Methode."
	ext := extract.ExtractorFunc(func(context.Context, string) (string, error) {
		return text, nil
	})
	p := provider.New(cfg, store.NewMemory(),
		provider.WithExtractor(ext),
		provider.WithLogger(logger.Discard()),
	)

	frames := roundTrip(t, p, cfg,
		Request{ID: "w", Action: ActionWords, Prefix: "kap", Lang: "typst"},
		Request{ID: "l", Action: ActionLine, Text: "I saw the quick brown", Lang: "markdown"},
	)
	require.Len(t, frames, 2)

	require.NotEmpty(t, frames[0].Suggestions)
	assert.Equal(t, "Kapitel", frames[0].Suggestions[0].Word)

	require.Len(t, frames[1].Suggestions, 1)
	assert.Equal(t, "fox jumps", frames[1].Suggestions[0].InsertText)
}
