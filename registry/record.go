package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Record is one catalog leaf. Which fields are set depends on the family:
// direct downloads carry URL, Filename and Hash; families published as a
// directory of files carry BaseURL and Hashes.
type Record struct {
	URL       string `json:"url,omitempty"`
	BaseURL   string `json:"base_url,omitempty"`
	Filename  string `json:"filename,omitempty"`
	Archive   string `json:"archive,omitempty"`
	Hash      string `json:"hash,omitempty"`
	Hashes    Hashes `json:"hashes,omitzero"`
	DatasetID string `json:"dataset_id,omitempty"`
	DOI       string `json:"doi,omitempty"`
}

// Hashes maps file names to expected digests, keeping catalog order.
type Hashes struct {
	names  []string
	values map[string]string
}

// IsPlaceholder reports whether digest is the all-zero value the embedded
// catalog carries for files whose digest has not been published.
func IsPlaceholder(digest string) bool {
	return digest != "" && strings.Trim(digest, "0") == ""
}

// NewHashes builds Hashes from alternating name, digest pairs.
func NewHashes(pairs ...string) Hashes {
	var h Hashes
	for i := 0; i+1 < len(pairs); i += 2 {
		h.set(pairs[i], pairs[i+1])
	}
	return h
}

func (h *Hashes) set(name, digest string) {
	if h.values == nil {
		h.values = make(map[string]string)
	}
	if _, ok := h.values[name]; !ok {
		h.names = append(h.names, name)
	}
	h.values[name] = digest
}

// Get returns the digest recorded for name.
func (h Hashes) Get(name string) (string, bool) {
	d, ok := h.values[name]
	return d, ok
}

// Names returns the file names in catalog order.
func (h Hashes) Names() []string {
	return append([]string(nil), h.names...)
}

// Len returns the number of entries.
func (h Hashes) Len() int { return len(h.names) }

// IsZero reports whether no entries are present.
func (h Hashes) IsZero() bool { return len(h.names) == 0 }

// UnmarshalJSON decodes a JSON object, preserving key order.
func (h *Hashes) UnmarshalJSON(data []byte) error {
	*h = Hashes{}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("hashes: expected object")
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := keyTok.(string)
		var digest string
		if err := dec.Decode(&digest); err != nil {
			return fmt.Errorf("hashes: %s: %w", name, err)
		}
		h.set(name, digest)
	}
	_, err = dec.Token()
	return err
}

// MarshalJSON encodes the entries as an object in catalog order.
func (h Hashes) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range h.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(h.values[name])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
