package core

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FileEntry is one generated file. Dependencies are descriptive only.
type FileEntry struct {
	Content      string   `json:"content"`
	Purpose      string   `json:"purpose"`
	Dependencies []string `json:"dependencies"`
}

// GenerationResult is the bundle returned by the generation endpoint.
type GenerationResult struct {
	Version        string         `json:"version"`
	Timestamp      string         `json:"timestamp"`
	RequestID      string         `json:"request_id"`
	Status         string         `json:"status"`
	CloudProvider  string         `json:"cloud_provider"`
	Infrastructure Infrastructure `json:"infrastructure"`
}

// DecodeResult parses a response body. Missing fields are left empty.
func DecodeResult(data []byte) (*GenerationResult, error) {
	var result GenerationResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Infrastructure maps file names to entries and remembers the order in which
// the names appeared in the response document.
type Infrastructure struct {
	names []string
	files map[string]FileEntry
}

// Names returns the file names in document order.
func (i *Infrastructure) Names() []string {
	return append([]string(nil), i.names...)
}

func (i *Infrastructure) Len() int {
	return len(i.names)
}

func (i *Infrastructure) Get(name string) (FileEntry, bool) {
	entry, ok := i.files[name]
	return entry, ok
}

func (i *Infrastructure) Has(name string) bool {
	_, ok := i.files[name]
	return ok
}

// Set adds or replaces an entry. A replaced entry keeps its position.
func (i *Infrastructure) Set(name string, entry FileEntry) {
	if i.files == nil {
		i.files = make(map[string]FileEntry)
	}
	if _, exists := i.files[name]; !exists {
		i.names = append(i.names, name)
	}
	i.files[name] = entry
}

func (i *Infrastructure) UnmarshalJSON(data []byte) error {
	i.names = nil
	i.files = nil

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("infrastructure: expected object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("infrastructure: unexpected key %v", keyTok)
		}
		var entry FileEntry
		if err := dec.Decode(&entry); err != nil {
			return fmt.Errorf("infrastructure: file %q: %w", name, err)
		}
		i.Set(name, entry)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

func (i Infrastructure) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for n, name := range i.names {
		if n > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(i.files[name])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
