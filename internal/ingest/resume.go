package ingest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractResume reads a resume PDF and returns its text split into
// paragraph-sized chunks ready for embedding.
func ExtractResume(path string) ([]string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening resume %s: %w", path, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	plain, err := reader.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("extracting resume text: %w", err)
	}
	if _, err := buf.ReadFrom(plain); err != nil {
		return nil, fmt.Errorf("reading resume text: %w", err)
	}

	return Chunk(buf.String(), 600), nil
}

// Chunk splits text into paragraphs, merging short ones until each chunk is
// close to maxLen runes. Paragraph boundaries are blank lines; a paragraph
// longer than maxLen is kept whole rather than split mid-sentence.
func Chunk(text string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = 600
	}

	paragraphs := splitParagraphs(text)

	var chunks []string
	var current strings.Builder
	for _, p := range paragraphs {
		if current.Len() > 0 && current.Len()+len(p)+1 > maxLen {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(p)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

func splitParagraphs(text string) []string {
	var out []string
	for _, raw := range strings.Split(text, "\n\n") {
		p := strings.Join(strings.Fields(raw), " ")
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
