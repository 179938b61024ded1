package composer

import "sync"

// Drafts keeps one server-side composer per user so a post can be built up
// across several requests.
type Drafts struct {
	deps Deps

	mu     sync.Mutex
	drafts map[string]*Composer
}

func NewDrafts(deps Deps) *Drafts {
	return &Drafts{deps: deps, drafts: make(map[string]*Composer)}
}

// Get returns the user's draft, creating an empty one if needed.
func (d *Drafts) Get(userID string) *Composer {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.drafts[userID]
	if !ok {
		c = New(d.deps)
		d.drafts[userID] = c
	}
	return c
}

// New returns a throwaway composer that is not tracked as a draft.
func (d *Drafts) New() *Composer {
	return New(d.deps)
}

// Discard drops the user's draft, ending any recording still streaming
// into it.
func (d *Drafts) Discard(userID string) {
	d.mu.Lock()
	c, ok := d.drafts[userID]
	delete(d.drafts, userID)
	d.mu.Unlock()

	if ok {
		c.Discard()
	}
}
