package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownExtractor_HeadingsBecomeParagraphs(t *testing.T) {
	input := `# Title

Intro text with *emphasis* and a [link](http://example.com).

## Section A

Section A content.

### Subsection A1

- first item
- second item

## Section B

Section B content.
`
	got, err := (&MarkdownExtractor{}).Extract(strings.NewReader(input))
	require.NoError(t, err)

	want := strings.Join([]string{
		"Title",
		"Intro text with emphasis and a link.",
		"Section A",
		"Section A content.",
		"Subsection A1",
		"first item",
		"second item",
		"Section B",
		"Section B content.",
	}, "\n\n")
	assert.Equal(t, want, got)
}

func TestMarkdownExtractor_NoHeadings(t *testing.T) {
	input := `Just some plain text.

Another paragraph here.`

	got, err := (&MarkdownExtractor{}).Extract(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "Just some plain text.\n\nAnother paragraph here.", got)
}

func TestMarkdownExtractor_CodeBlocks(t *testing.T) {
	input := "# API Reference\n\nList of endpoints:\n\n```\nGET /api/users\nPOST /api/users\n```\n\nMore text after code.\n"

	got, err := (&MarkdownExtractor{}).Extract(strings.NewReader(input))
	require.NoError(t, err)
	assert.Contains(t, got, "GET /api/users\nPOST /api/users")
	assert.True(t, strings.HasSuffix(got, "More text after code."), "post-code text comes last: %q", got)
	assert.NotContains(t, got, "```", "fence markers are dropped")
}

func TestMarkdownExtractor_EmptyInput(t *testing.T) {
	got, err := (&MarkdownExtractor{}).Extract(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}
