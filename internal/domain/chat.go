package domain

import (
	"net/url"
	"strings"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"

	FilesPathPrefix = "/files/"
)

type ChatTurn struct {
	Text    string
	Role    Role
	Sources []string
}

func (t ChatTurn) Citations() []Citation {
	return Citations(t.Sources)
}

type Answer struct {
	Text    string
	Sources []string
}

type Citation struct {
	Filename string
	Path     string
}

// Citations maps source paths to file links keyed by their final path
// segment. Duplicate filenames collapse to the first occurrence.
func Citations(sources []string) []Citation {
	seen := make(map[string]struct{}, len(sources))
	citations := make([]Citation, 0, len(sources))
	for _, source := range sources {
		name := filenameOf(source)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		citations = append(citations, Citation{
			Filename: name,
			Path:     FilesPathPrefix + url.PathEscape(name),
		})
	}
	return citations
}

func filenameOf(source string) string {
	source = strings.TrimSpace(strings.ReplaceAll(source, "\\", "/"))
	if i := strings.LastIndex(source, "/"); i >= 0 {
		return source[i+1:]
	}
	return source
}
