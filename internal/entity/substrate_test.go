package entity

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/roach88/appstore/internal/ir"
)

// memSubstrate is an in-memory ImmutableStore + LinkGraph whose records
// can be hidden (not yet propagated) and whose writes can be failed.
type memSubstrate struct {
	mu      sync.Mutex
	records map[ir.Hash][]byte
	links   []ir.Link
	hidden  map[ir.Hash]bool
	failPut error
}

func newMemSubstrate() *memSubstrate {
	return &memSubstrate{records: make(map[ir.Hash][]byte), hidden: make(map[ir.Hash]bool)}
}

func (m *memSubstrate) Put(_ context.Context, data []byte) (ir.Hash, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPut != nil {
		return "", m.failPut
	}
	h := ir.ContentHash(data)
	m.records[h] = append([]byte(nil), data...)
	return h, nil
}

func (m *memSubstrate) Get(_ context.Context, h ir.Hash) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.records[h]
	if !ok || m.hidden[h] {
		return nil, fmt.Errorf("get %s: %w", h.Short(), ir.ErrNotFound)
	}
	return data, nil
}

func (m *memSubstrate) Link(_ context.Context, base, target ir.Hash, lt ir.LinkType, tag string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.links {
		if l.Base == base && l.Target == target && l.Type == lt && l.Tag == tag {
			return nil
		}
	}
	m.links = append(m.links, ir.Link{Base: base, Target: target, Type: lt, Tag: tag})
	return nil
}

func (m *memSubstrate) LinksFrom(_ context.Context, base ir.Hash, lt ir.LinkType) ([]ir.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ir.Link, 0)
	for _, l := range m.links {
		if l.Base == base && l.Type == lt {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memSubstrate) hide(h ir.Hash) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hidden[h] = true
}

func (m *memSubstrate) reveal(h ir.Hash) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.hidden, h)
}

var errDiskFull = errors.New("disk full")
