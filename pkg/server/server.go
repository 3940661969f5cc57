package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bastiangx/pdfserve/internal/utils"
	"github.com/bastiangx/pdfserve/pkg/cache"
	"github.com/bastiangx/pdfserve/pkg/config"
	"github.com/bastiangx/pdfserve/pkg/format"
	"github.com/bastiangx/pdfserve/pkg/match"
	"github.com/bastiangx/pdfserve/pkg/suggest"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	maxPrefixLen  = 60
	defaultSymbol = "*"
	typstLang     = "typst"
)

// Backend is what the server needs from a completion provider.
type Backend interface {
	Words(ctx context.Context) ([]string, error)
	Complete(ctx context.Context, prefix string, limit int) ([]suggest.Suggestion, error)
	Lines(ctx context.Context, lineUpToCursor string) ([]match.Suggestion, error)
	Refresh(ctx context.Context, force bool) (cache.Snapshot, error)
	Invalidate(ctx context.Context) error
	Supports(lang string) bool
	Stats(ctx context.Context) map[string]int
	SourcePath() string
}

// Server handles msgpack IPC for a Backend
type Server struct {
	backend      Backend
	decoder      *msgpack.Decoder
	encoder      *msgpack.Encoder
	writeMu      sync.Mutex
	defaultLimit int
	maxLimit     int
	minPrefix    int
	requestCount atomic.Int64
}

// NewServer creates a server speaking over stdin/stdout.
func NewServer(backend Backend, cfg *config.Config) *Server {
	return NewServerWithIO(backend, cfg, os.Stdin, os.Stdout)
}

// NewServerWithIO creates a server over the given streams.
func NewServerWithIO(backend Backend, cfg *config.Config, r io.Reader, w io.Writer) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Server{
		backend:      backend,
		decoder:      msgpack.NewDecoder(r),
		encoder:      msgpack.NewEncoder(w),
		defaultLimit: cfg.Completion.MaxSuggestions,
		maxLimit:     cfg.Server.MaxLimit,
		minPrefix:    cfg.Completion.MinPrefix,
	}
}

// Start announces readiness and serves requests until the input ends or ctx
// is cancelled.
func (s *Server) Start(ctx context.Context) error {
	log.Debug("Starting Server.")
	s.send(StatusResponse{Status: "ready", Source: s.backend.SourcePath()})

	for {
		if ctx.Err() != nil {
			return nil
		}

		var req Request
		if err := s.decoder.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				log.Debug("Input closed, stopping server")
				return nil
			}
			log.Errorf("Decoding request: %v", err)
			s.sendError("", "invalid msgpack request", 400)
			continue
		}
		s.handleRequest(ctx, req)
	}
}

func (s *Server) handleRequest(ctx context.Context, req Request) {
	s.requestCount.Add(1)
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	action := req.Action
	if action == "" && req.Prefix != "" {
		action = ActionWords
	}

	switch action {
	case ActionWords:
		s.handleWords(ctx, req)
	case ActionLine:
		s.handleLine(ctx, req)
	case ActionRefresh:
		s.handleRefresh(ctx, req)
	case ActionClear:
		s.handleClear(ctx, req)
	case ActionStats:
		s.sendStatus(req.ID, "ok", s.stats(ctx), time.Now())
	case ActionHealth:
		s.send(StatusResponse{ID: req.ID, Status: "ok", Source: s.backend.SourcePath()})
	case ActionFormat:
		s.handleFormat(req)
	case ActionEmphasis:
		s.handleEmphasis(req)
	default:
		log.Debugf("Unknown action %q in request %s", req.Action, req.ID)
		s.sendError(req.ID, fmt.Sprintf("unknown action: %s", req.Action), 400)
	}
}

// handleWords answers ranked prefix completions, or the whole word list when
// no prefix is given. Prefixes that cannot match a word get an empty answer.
func (s *Server) handleWords(ctx context.Context, req Request) {
	start := time.Now()
	if !s.backend.Supports(req.Lang) {
		s.sendCompletion(req.ID, nil, start)
		return
	}

	prefix := strings.TrimSpace(req.Prefix)
	if utils.RuneLen(prefix) > maxPrefixLen {
		s.sendError(req.ID, fmt.Sprintf("prefix exceeds maximum length of %d characters", maxPrefixLen), 400)
		return
	}

	if prefix == "" {
		words, err := s.backend.Words(ctx)
		if err != nil {
			s.sendError(req.ID, err.Error(), 500)
			return
		}
		s.sendCompletion(req.ID, words, start)
		return
	}

	if utils.RuneLen(prefix) < s.minPrefix || !utils.IsValidInput(prefix) {
		log.Debugf("Skipping prefix %q", prefix)
		s.sendCompletion(req.ID, nil, start)
		return
	}

	suggestions, err := s.backend.Complete(ctx, prefix, s.limit(req.Limit))
	if err != nil {
		s.sendError(req.ID, err.Error(), 500)
		return
	}
	words := make([]string, len(suggestions))
	for i, sg := range suggestions {
		words[i] = sg.Word
	}
	s.sendCompletion(req.ID, words, start)
}

func (s *Server) handleLine(ctx context.Context, req Request) {
	start := time.Now()
	resp := LineResponse{ID: req.ID, Suggestions: []LineSuggestion{}}
	if !s.backend.Supports(req.Lang) {
		resp.TimeTaken = time.Since(start).Microseconds()
		s.send(resp)
		return
	}

	suggestions, err := s.backend.Lines(ctx, req.Text)
	if err != nil {
		s.sendError(req.ID, err.Error(), 500)
		return
	}
	for _, sg := range suggestions {
		resp.Suggestions = append(resp.Suggestions, LineSuggestion{InsertText: sg.InsertText})
	}
	resp.Count = len(resp.Suggestions)
	resp.TimeTaken = time.Since(start).Microseconds()
	s.send(resp)
}

func (s *Server) handleRefresh(ctx context.Context, req Request) {
	start := time.Now()
	if _, err := s.backend.Refresh(ctx, true); err != nil {
		s.sendError(req.ID, err.Error(), 500)
		return
	}
	s.sendStatus(req.ID, "ok", s.stats(ctx), start)
}

func (s *Server) handleClear(ctx context.Context, req Request) {
	start := time.Now()
	if err := s.backend.Invalidate(ctx); err != nil {
		log.Errorf("Clearing cache: %v", err)
		s.sendError(req.ID, err.Error(), 500)
		return
	}
	s.sendStatus(req.ID, "ok", nil, start)
}

func (s *Server) handleFormat(req Request) {
	start := time.Now()
	if req.Lang != "" && req.Lang != typstLang {
		s.sendError(req.ID, fmt.Sprintf("format supports %s documents only", typstLang), 400)
		return
	}
	s.send(FormatResponse{
		ID:        req.ID,
		Text:      format.Typst(req.Text),
		Cursor:    -1,
		TimeTaken: time.Since(start).Microseconds(),
	})
}

func (s *Server) handleEmphasis(req Request) {
	start := time.Now()
	symbol := req.Symbol
	if symbol == "" {
		symbol = defaultSymbol
	}
	edit := format.ToggleEmphasis(req.Text, symbol)
	s.send(FormatResponse{
		ID:        req.ID,
		Text:      edit.Text,
		Cursor:    edit.Cursor,
		TimeTaken: time.Since(start).Microseconds(),
	})
}

func (s *Server) stats(ctx context.Context) map[string]int {
	stats := s.backend.Stats(ctx)
	stats["requests"] = int(s.requestCount.Load())
	return stats
}

// limit applies the default to unset limits and caps them at the server max.
func (s *Server) limit(requested int) int {
	if requested < 1 {
		requested = s.defaultLimit
	}
	if s.maxLimit > 0 && requested > s.maxLimit {
		requested = s.maxLimit
	}
	return requested
}

func (s *Server) sendCompletion(id string, words []string, start time.Time) {
	ranks := utils.CreateRankList(len(words))
	suggestions := make([]CompletionSuggestion, len(words))
	for i, w := range words {
		suggestions[i] = CompletionSuggestion{Word: w, Rank: ranks[i]}
	}
	s.send(CompletionResponse{
		ID:          id,
		Suggestions: suggestions,
		Count:       len(suggestions),
		TimeTaken:   time.Since(start).Microseconds(),
	})
}

func (s *Server) sendStatus(id, status string, stats map[string]int, start time.Time) {
	s.send(StatusResponse{
		ID:        id,
		Status:    status,
		Source:    s.backend.SourcePath(),
		Stats:     stats,
		TimeTaken: time.Since(start).Microseconds(),
	})
}

// send encodes one response frame. Frames never interleave.
func (s *Server) send(response any) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.encoder.Encode(response); err != nil {
		log.Errorf("Encoding response: %v", err)
	}
}

// sendError sends an error frame
func (s *Server) sendError(id, message string, code int) {
	s.send(CompletionError{ID: id, Error: message, Code: code})
}
