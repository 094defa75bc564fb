package main

import (
	"bufio"
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"

	"github.com/newsatlas/geolocate/internal/model"
)

// storyInput is the JSON shape accepted by resolve and batch: the output of
// the upstream text-extraction service for one article.
type storyInput struct {
	URL    string                 `json:"url"`
	Title  string                 `json:"title,omitempty"`
	Text   string                 `json:"text"`
	Places map[string]model.Place `json:"places"`
}

// validate checks the fields the pipeline requires.
func (in *storyInput) validate() error {
	if in.Text == "" {
		return eris.New("story input: missing text")
	}
	if len(in.Places) == 0 {
		return eris.New("story input: no places")
	}
	for name, p := range in.Places {
		if p.Text == "" {
			return eris.Errorf("story input: place %q missing text", name)
		}
	}
	return nil
}

// readStory parses one story from path, or stdin when path is "-".
func readStory(path string) (*storyInput, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrap(err, "open story input")
		}
		defer f.Close()
		r = f
	}
	var in storyInput
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, eris.Wrap(err, "decode story input")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	return &in, nil
}

// readStories parses a JSONL file of stories, one per line.
func readStories(path string) ([]storyInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "open batch input")
	}
	defer f.Close()

	var stories []storyInput
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1<<20), 16<<20) // articles can be long
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var in storyInput
		if err := json.Unmarshal(raw, &in); err != nil {
			return nil, eris.Wrapf(err, "decode batch input line %d", line)
		}
		if err := in.validate(); err != nil {
			return nil, eris.Wrapf(err, "batch input line %d", line)
		}
		stories = append(stories, in)
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "read batch input")
	}
	return stories, nil
}
