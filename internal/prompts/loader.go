// Package prompts embeds the instruction texts sent to the proposer and
// verifier models and provides a cached loader for them.
//
// Prompts live in plain .txt files next to this package so they can be
// reviewed and edited without touching Go code. Input templates use
// {{.Key}} placeholders filled in with Format.
package prompts

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"sync"
)

//go:embed *.txt
var promptFiles embed.FS

// Names of the embedded prompts.
const (
	Extraction        = "extraction"
	ExtractionInput   = "extraction_input"
	Verification      = "verification"
	VerificationInput = "verification_input"
	Refinement        = "refinement"
)

var (
	cacheMu sync.RWMutex
	cache   = make(map[string]string)
)

// Get returns the prompt with the given name, loading it from the embedded
// files on first use and caching it for subsequent calls.
func Get(name string) (string, error) {
	cacheMu.RLock()
	if text, ok := cache[name]; ok {
		cacheMu.RUnlock()
		return text, nil
	}
	cacheMu.RUnlock()

	raw, err := promptFiles.ReadFile(name + ".txt")
	if err != nil {
		return "", fmt.Errorf("unknown prompt %q: %w", name, err)
	}
	text := string(raw)

	cacheMu.Lock()
	cache[name] = text
	cacheMu.Unlock()

	return text, nil
}

// MustGet is like Get but panics when the prompt does not exist. Use it for
// the package-level prompt names, which are known at compile time.
func MustGet(name string) string {
	text, err := Get(name)
	if err != nil {
		panic(err)
	}
	return text
}

// Format substitutes {{.Key}} placeholders in template with the values in
// data. Placeholders with no matching key are left untouched.
func Format(template string, data map[string]string) string {
	out := template
	for key, value := range data {
		out = strings.ReplaceAll(out, "{{."+key+"}}", value)
	}
	return out
}

// ClearCache drops all cached prompts so the next Get re-reads the embedded
// files. Intended for tests.
func ClearCache() {
	cacheMu.Lock()
	cache = make(map[string]string)
	cacheMu.Unlock()
}

// List returns the names of all embedded prompts in sorted order.
func List() ([]string, error) {
	entries, err := promptFiles.ReadDir(".")
	if err != nil {
		return nil, fmt.Errorf("reading embedded prompts: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".txt"))
	}
	sort.Strings(names)
	return names, nil
}
