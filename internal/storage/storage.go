package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// ObjectStore writes image blobs and returns a URL they can be read back from
type ObjectStore interface {
	Upload(ctx context.Context, data []byte, path, contentType string) (string, error)
}

// PathGenerator builds object paths of the form products/<timestamp>.<ext>.
// Timestamps are Unix milliseconds, bumped when needed so that every path handed
// out by one generator is unique, even for uploads started in the same millisecond.
type PathGenerator struct {
	Prefix string
	Now    func() time.Time

	mu   sync.Mutex
	last int64
}

// NewPathGenerator returns a generator for the products folder
func NewPathGenerator() *PathGenerator {
	return &PathGenerator{Prefix: "products", Now: time.Now}
}

// Generate returns a fresh path for an image originally named filename
func (g *PathGenerator) Generate(filename string) string {
	g.mu.Lock()
	ts := g.Now().UnixMilli()
	if ts <= g.last {
		ts = g.last + 1
	}
	g.last = ts
	g.mu.Unlock()

	return fmt.Sprintf("%s/%d.%s", g.Prefix, ts, extension(filename))
}

// extension is everything after the last dot, or the whole name when there is none
func extension(filename string) string {
	if i := strings.LastIndex(filename, "."); i >= 0 {
		return filename[i+1:]
	}
	return filename
}
