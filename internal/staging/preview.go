package staging

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Previews holds the bytes behind every live preview reference. A reference
// resolves until it is released; releasing twice is harmless. Previews
// acquired through a view returned by For resolve only for the same owner.
type Previews struct {
	basePath string
	owner    string
	reg      *registry
}

type registry struct {
	mu    sync.RWMutex
	items map[string]preview
}

type preview struct {
	owner       string
	contentType string
	data        []byte
}

// NewPreviews creates a registry whose references are rooted at basePath,
// e.g. "/v1/previews".
func NewPreviews(basePath string) *Previews {
	return &Previews{
		basePath: strings.TrimSuffix(basePath, "/"),
		reg:      &registry{items: make(map[string]preview)},
	}
}

// For returns a view of the same registry that tags new previews with owner.
func (p *Previews) For(owner string) *Previews {
	return &Previews{basePath: p.basePath, owner: owner, reg: p.reg}
}

func (p *Previews) acquire(contentType string, data []byte) string {
	id := uuid.New().String()

	p.reg.mu.Lock()
	p.reg.items[id] = preview{owner: p.owner, contentType: contentType, data: data}
	p.reg.mu.Unlock()

	return p.basePath + "/" + id
}

// Release frees the preview behind ref. It reports whether anything was
// released.
func (p *Previews) Release(ref string) bool {
	id := p.idOf(ref)

	p.reg.mu.Lock()
	defer p.reg.mu.Unlock()
	if _, ok := p.reg.items[id]; !ok {
		return false
	}
	delete(p.reg.items, id)
	return true
}

// Resolve returns the bytes and content type for a reference or bare id
// acquired by owner.
func (p *Previews) Resolve(ref, owner string) ([]byte, string, bool) {
	id := p.idOf(ref)

	p.reg.mu.RLock()
	defer p.reg.mu.RUnlock()
	item, ok := p.reg.items[id]
	if !ok || item.owner != owner {
		return nil, "", false
	}
	return item.data, item.contentType, true
}

// Len reports how many previews are live.
func (p *Previews) Len() int {
	p.reg.mu.RLock()
	defer p.reg.mu.RUnlock()
	return len(p.reg.items)
}

func (p *Previews) idOf(ref string) string {
	return strings.TrimPrefix(strings.TrimPrefix(ref, p.basePath), "/")
}
