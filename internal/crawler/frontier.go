package crawler

// Frontier is the FIFO work list of page references.
// A reference is accepted once per crawl: references already pending or
// already consumed are refused by Push.
type Frontier struct {
	queue []string
	seen  map[string]struct{}
}

// NewFrontier returns a frontier seeded with refs in order
func NewFrontier(refs ...string) *Frontier {
	f := &Frontier{seen: make(map[string]struct{})}
	for _, ref := range refs {
		f.Push(ref)
	}
	return f
}

// Push appends ref and reports whether it was accepted
func (f *Frontier) Push(ref string) bool {
	if _, ok := f.seen[ref]; ok {
		return false
	}
	f.seen[ref] = struct{}{}
	f.queue = append(f.queue, ref)
	return true
}

// Peek returns the first pending reference without removing it
func (f *Frontier) Peek() (string, bool) {
	if len(f.queue) == 0 {
		return "", false
	}
	return f.queue[0], true
}

// Pop removes the first pending reference
func (f *Frontier) Pop() (string, bool) {
	ref, ok := f.Peek()
	if !ok {
		return "", false
	}
	f.queue[0] = ""
	f.queue = f.queue[1:]
	return ref, true
}

// Len returns the number of pending references
func (f *Frontier) Len() int { return len(f.queue) }

// Pending returns a copy of the pending references in order
func (f *Frontier) Pending() []string {
	return append([]string(nil), f.queue...)
}
