package deeplink

import "sync"

// Pending holds at most one deep link that arrived before the main window
// existed. Take hands it out exactly once.
type Pending struct {
	mu   sync.Mutex
	link string
	set  bool
}

// Store keeps raw, replacing any earlier link
func (p *Pending) Store(raw string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.link, p.set = raw, true
}

// Take returns the stored link and clears it
func (p *Pending) Take() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	link, ok := p.link, p.set
	p.link, p.set = "", false
	return link, ok
}
