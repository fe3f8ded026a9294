package prompt

import (
	"strings"

	"google.golang.org/genai"
)

type Field struct {
	Key   string
	Value string
}

type Fields []Field

// Render writes one "Key: Value" line per field in declared order. Values are
// inserted verbatim; a value starting with a newline follows the bare "Key:".
func (f Fields) Render() string {
	lines := make([]string, 0, len(f))
	for _, field := range f {
		if strings.HasPrefix(field.Value, "\n") {
			lines = append(lines, field.Key+":"+field.Value)
			continue
		}
		lines = append(lines, field.Key+": "+field.Value)
	}
	return strings.Join(lines, "\n")
}

// Payload is one request to the generative backend.
type Payload struct {
	System   string
	Text     string
	Image    []byte
	MIMEType string
}

// Text builds a text-only payload: the system instruction, then the user query
// block.
func Text(system string, fields Fields) Payload {
	return Payload{
		System: system,
		Text:   system + "\n\nUSER QUERY:\n" + fields.Render(),
	}
}

// Image builds a payload carrying the raw image bytes next to the system
// instruction.
func Image(system string, data []byte, mimeType string) Payload {
	return Payload{
		System:   system,
		Text:     system,
		Image:    data,
		MIMEType: mimeType,
	}
}

func (p Payload) HasImage() bool {
	return len(p.Image) > 0
}

func (p Payload) Contents() []*genai.Content {
	parts := []*genai.Part{genai.NewPartFromText(p.Text)}
	if p.HasImage() {
		parts = append(parts, genai.NewPartFromBytes(p.Image, p.MIMEType))
	}
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}
