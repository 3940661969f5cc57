package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/bastiangx/pdfserve/pkg/match"
	"github.com/bastiangx/pdfserve/pkg/suggest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompletions struct {
	prefixes []string
	lines    []string
}

func (f *fakeCompletions) Complete(_ context.Context, prefix string, _ int) ([]suggest.Suggestion, error) {
	f.prefixes = append(f.prefixes, prefix)
	if strings.HasPrefix("kapitel", strings.ToLower(prefix)) {
		return []suggest.Suggestion{{Word: "Kapitel", Frequency: 1200}}, nil
	}
	return nil, nil
}

func (f *fakeCompletions) Lines(_ context.Context, line string) ([]match.Suggestion, error) {
	f.lines = append(f.lines, line)
	if strings.HasSuffix(line, "quick brown") {
		return []match.Suggestion{{InsertText: "fox jumps"}}, nil
	}
	return nil, nil
}

func TestStart(t *testing.T) {
	fake := &fakeCompletions{}
	h := NewInputHandler(fake, 1, 60, 5, false)

	in := strings.NewReader("the quick brown\n\n   \nsiehe Kap\n123\n")
	var out bytes.Buffer
	require.NoError(t, h.Start(context.Background(), in, &out))

	assert.Equal(t, []string{"brown", "Kap"}, fake.prefixes)
	assert.Equal(t, []string{"the quick brown", "siehe Kap", "123"}, fake.lines)

	text := out.String()
	assert.Contains(t, text, "fox jumps")
	assert.Contains(t, text, "Kapitel")
	assert.Contains(t, text, "1,200")
	assert.Contains(t, text, "filtered out")
}

func TestNoFilter(t *testing.T) {
	fake := &fakeCompletions{}
	h := NewInputHandler(fake, 1, 60, 5, true)
	require.NoError(t, h.Start(context.Background(), strings.NewReader("123\n"), &bytes.Buffer{}))
	assert.Equal(t, []string{"123"}, fake.prefixes)
}

func TestPrefixLengthBounds(t *testing.T) {
	fake := &fakeCompletions{}
	h := NewInputHandler(fake, 3, 5, 5, false)
	require.NoError(t, h.Start(context.Background(), strings.NewReader("ab\nabcdefg\nabcd\n"), &bytes.Buffer{}))
	assert.Equal(t, []string{"abcd"}, fake.prefixes)
}

func TestLastWord(t *testing.T) {
	assert.Equal(t, "brown", lastWord("the quick brown"))
	assert.Equal(t, "", lastWord("the quick "))
	assert.Equal(t, "", lastWord(""))
	assert.Equal(t, "Größe", lastWord("die Größe"))
}

func TestFormatWithCommas(t *testing.T) {
	assert.Equal(t, "999", formatWithCommas(999))
	assert.Equal(t, "1,000", formatWithCommas(1000))
	assert.Equal(t, "1,234,567", formatWithCommas(1234567))
	assert.Equal(t, "-12,345", formatWithCommas(-12345))
}
