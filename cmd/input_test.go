package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const storyJSON = `{
	"url": "https://example.org/floods",
	"title": "Floods hit Geneva",
	"text": "Flooding around Lake Geneva worsened overnight.",
	"places": {
		"Geneva": {"text": "Geneva", "relevance": 0.9}
	}
}`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestReadStory(t *testing.T) {
	path := writeTemp(t, "story.json", storyJSON)

	in, err := readStory(path)
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/floods", in.URL)
	assert.Equal(t, "Floods hit Geneva", in.Title)
	require.Contains(t, in.Places, "Geneva")
	assert.Equal(t, 0.9, in.Places["Geneva"].Relevance)
}

func TestReadStory_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "malformed json",
			content: "{not json",
			wantErr: "decode story input",
		},
		{
			name:    "missing text",
			content: `{"url": "u", "places": {"Geneva": {"text": "Geneva"}}}`,
			wantErr: "missing text",
		},
		{
			name:    "no places",
			content: `{"url": "u", "text": "body", "places": {}}`,
			wantErr: "no places",
		},
		{
			name:    "place missing text",
			content: `{"url": "u", "text": "body", "places": {"Geneva": {"relevance": 0.5}}}`,
			wantErr: `place "Geneva" missing text`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTemp(t, "story.json", tt.content)
			_, err := readStory(path)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestReadStories(t *testing.T) {
	jsonl := `{"url": "https://example.org/a", "text": "body a", "places": {"Geneva": {"text": "Geneva"}}}

{"url": "https://example.org/b", "text": "body b", "places": {"Lausanne": {"text": "Lausanne"}}}
`
	path := writeTemp(t, "stories.jsonl", jsonl)

	stories, err := readStories(path)
	require.NoError(t, err)
	require.Len(t, stories, 2)
	assert.Equal(t, "https://example.org/a", stories[0].URL)
	assert.Equal(t, "https://example.org/b", stories[1].URL)
}

func TestReadStories_ReportsLineNumber(t *testing.T) {
	jsonl := `{"url": "https://example.org/a", "text": "body a", "places": {"Geneva": {"text": "Geneva"}}}
{"url": "https://example.org/b", "text": "", "places": {"Lausanne": {"text": "Lausanne"}}}
`
	path := writeTemp(t, "stories.jsonl", jsonl)

	_, err := readStories(path)
	assert.ErrorContains(t, err, "line 2")
}
