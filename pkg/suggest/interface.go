// Package suggest ranks the words of the active document for prefix
// completion. A Completer is built once per snapshot and is read-only after
// that.
package suggest

// ICompleter defines the interface for word completion engines
type ICompleter interface {
	// Complete returns suggestions for a given prefix with a limit
	Complete(prefix string, limit int) []Suggestion

	// Words returns every indexed surface form in document order
	Words() []string

	// Stats returns statistics about the indexed words
	Stats() map[string]int
}
