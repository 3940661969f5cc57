/*
Package server implements msgpack IPC for document completion services.

The server reads msgpack frames from stdin and writes msgpack frames to stdout.
Every frame is a map with an ID and an action; the response echoes the ID.
Messages are processed synchronously with timing info included in responses.

# IPC

Word completion requests look like this:

	{"id": "req_001", "action": "words", "p": "kap", "l": 24, "lang": "typst"}

The server responds with words from the source document, ranked by how often they occur:

	{"id": "req_001", "s": [{"w": "Kapitel", "r": 1}, {"w": "Kapazität", "r": 2}], "c": 2, "t": 145}

Without a prefix the whole cached word list is returned, ranked in document order.

Inline line completion sends the current line up to the cursor:

	{"id": "req_002", "action": "line", "text": "I saw the quick brown", "lang": "markdown"}

and gets back the text to insert after the cursor:

	{"id": "req_002", "s": [{"i": "fox jumps over"}], "c": 1, "t": 88}

Requests whose lang is not a supported language get an empty result instead of an error.

Maintenance actions are "refresh" (re-extract the source now), "clear" (drop the cache),
"stats" and "health". Typst documents can be tidied with "format" and emphasis toggled with
"emphasis" ("text" is the selection, "symbol" is "*" or "_").

Failed operations answer with an error frame:

	{"id": "req_003", "e": "unknown action: frobnicate", "c": 400}

# Message Types

Request carries every field any action reads. CompletionResponse and LineResponse carry
suggestions, StatusResponse the maintenance results and FormatResponse formatted text.
Timings in "t" are microseconds.
*/
package server

// Actions understood by the server.
const (
	ActionWords    = "words"
	ActionLine     = "line"
	ActionRefresh  = "refresh"
	ActionClear    = "clear"
	ActionStats    = "stats"
	ActionHealth   = "health"
	ActionFormat   = "format"
	ActionEmphasis = "emphasis"
)

// Request is the only frame clients send. An empty action with a prefix is
// treated as a word completion.
type Request struct {
	ID     string `msgpack:"id"`
	Action string `msgpack:"action,omitempty"`
	Prefix string `msgpack:"p,omitempty"`
	Limit  int    `msgpack:"l,omitempty"`
	Text   string `msgpack:"text,omitempty"`
	Lang   string `msgpack:"lang,omitempty"`
	Symbol string `msgpack:"symbol,omitempty"`
}

// CompletionSuggestion - minimal word suggestion
type CompletionSuggestion struct {
	Word string `msgpack:"w"`
	Rank uint16 `msgpack:"r"`
}

// CompletionResponse - word completion response
type CompletionResponse struct {
	ID          string                 `msgpack:"id"`
	Suggestions []CompletionSuggestion `msgpack:"s"`
	Count       int                    `msgpack:"c"`
	TimeTaken   int64                  `msgpack:"t"`
}

// LineSuggestion is text to insert after the cursor.
type LineSuggestion struct {
	InsertText string `msgpack:"i"`
}

// LineResponse - inline line completion response
type LineResponse struct {
	ID          string           `msgpack:"id"`
	Suggestions []LineSuggestion `msgpack:"s"`
	Count       int              `msgpack:"c"`
	TimeTaken   int64            `msgpack:"t"`
}

// StatusResponse answers ready, refresh, clear, stats and health.
type StatusResponse struct {
	ID        string         `msgpack:"id"`
	Status    string         `msgpack:"status"`
	Source    string         `msgpack:"source,omitempty"`
	Stats     map[string]int `msgpack:"stats,omitempty"`
	TimeTaken int64          `msgpack:"t"`
}

// FormatResponse carries replacement text. Cursor is -1 unless the caret
// should land inside the text.
type FormatResponse struct {
	ID        string `msgpack:"id"`
	Text      string `msgpack:"text"`
	Cursor    int    `msgpack:"cursor"`
	TimeTaken int64  `msgpack:"t"`
}

// CompletionError holds basic error information for any failed request
type CompletionError struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
