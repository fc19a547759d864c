// Package detector flags statically fetched pages that are only a
// client-side application shell and need a browser render to show listings.
package detector

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"golang.org/x/net/html"
)

// DefaultShellThreshold is the body size under which a script-heavy page is
// treated as an application shell.
const DefaultShellThreshold = 4096

// Heuristic is a rule-based shell detector.
type Heuristic struct {
	ShellThreshold int
	// ScriptShare is the percentage of bytes inside <script> elements above
	// which a small page counts as a shell.
	ScriptShare int
}

// NewHeuristic returns a detector; zero threshold selects DefaultShellThreshold.
func NewHeuristic(threshold int) *Heuristic {
	if threshold <= 0 {
		threshold = DefaultShellThreshold
	}
	return &Heuristic{ShellThreshold: threshold, ScriptShare: 25}
}

var shellMarkers = [][]byte{
	[]byte(`id="__next"`),
	[]byte(`id="root"></div>`),
	[]byte(`id="app"></div>`),
	[]byte("data-reactroot"),
	[]byte("<app-root"),
	[]byte("ng-version="),
}

// NeedsRender reports whether a successful static response looks degenerate.
// Non-2xx responses are left to the caller's error handling.
func (h *Heuristic) NeedsRender(status int, body []byte) bool {
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return false
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return true
	}
	lower := bytes.ToLower(body)
	for _, marker := range shellMarkers {
		if bytes.Contains(lower, bytes.ToLower(marker)) {
			return true
		}
	}
	return len(body) < h.ShellThreshold && scriptPercent(body) >= h.ScriptShare
}

// scriptPercent measures how much of the document is script source.
func scriptPercent(body []byte) int {
	z := html.NewTokenizer(bytes.NewReader(body))
	inScript := false
	scriptBytes := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if !errors.Is(z.Err(), io.EOF) || len(body) == 0 {
				return 0
			}
			return scriptBytes * 100 / len(body)
		case html.StartTagToken:
			name, _ := z.TagName()
			if string(name) == "script" {
				inScript = true
			}
			if inScript {
				scriptBytes += len(z.Raw())
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if inScript {
				scriptBytes += len(z.Raw())
			}
			if string(name) == "script" {
				inScript = false
			}
		case html.TextToken:
			if inScript {
				scriptBytes += len(z.Raw())
			}
		}
	}
}
