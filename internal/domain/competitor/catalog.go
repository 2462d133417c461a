// Package competitor holds the versioned catalog of simulated market entries
// that fill the chart alongside a player's releases.
package competitor

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Entry is one simulated competitor.
type Entry struct {
	ID         string `yaml:"id" json:"id"`
	Name       string `yaml:"name" json:"name"`
	Artist     string `yaml:"artist" json:"artist"`
	Popularity int64  `yaml:"popularity" json:"popularity"`
	Genre      string `yaml:"genre" json:"genre"`
}

type catalogFile struct {
	Version string  `yaml:"version"`
	Entries []Entry `yaml:"entries"`
}

// Catalog is an immutable, ordered set of competitor entries.
type Catalog struct {
	version string
	entries []Entry
	byID    map[string]int
}

// New builds a catalog from entries. IDs must be non-empty and unique and
// popularity must be positive.
func New(version string, entries []Entry) (*Catalog, error) {
	c := &Catalog{
		version: version,
		entries: make([]Entry, len(entries)),
		byID:    make(map[string]int, len(entries)),
	}
	copy(c.entries, entries)
	for i, e := range c.entries {
		if strings.TrimSpace(e.ID) == "" {
			return nil, fmt.Errorf("entry %d: missing id: %w", i, ErrInvalidCatalog)
		}
		if e.Popularity <= 0 {
			return nil, fmt.Errorf("entry %s: popularity must be positive: %w", e.ID, ErrInvalidCatalog)
		}
		if _, dup := c.byID[e.ID]; dup {
			return nil, fmt.Errorf("entry %s: duplicate id: %w", e.ID, ErrInvalidCatalog)
		}
		c.byID[e.ID] = i
	}
	return c, nil
}

// Load decodes a YAML catalog.
func Load(r io.Reader) (*Catalog, error) {
	var f catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w: %w", ErrInvalidCatalog, err)
	}
	return New(f.Version, f.Entries)
}

// LoadFile reads a YAML catalog from disk.
func LoadFile(path string) (*Catalog, error) {
	fh, err := os.Open(path) //nolint:gosec // operator-provided path
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer func() { _ = fh.Close() }()
	return Load(fh)
}

// Default returns the catalog shipped with the build.
func Default() *Catalog {
	c, err := Load(bytes.NewReader(defaultCatalog))
	if err != nil {
		panic(fmt.Sprintf("embedded competitor catalog is invalid: %v", err))
	}
	return c
}

// Version identifies the catalog revision.
func (c *Catalog) Version() string { return c.version }

// Len returns the number of entries.
func (c *Catalog) Len() int { return len(c.entries) }

// Entries returns a copy of the entries in catalog order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Lookup returns the entry with the given id.
func (c *Catalog) Lookup(id string) (Entry, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}
