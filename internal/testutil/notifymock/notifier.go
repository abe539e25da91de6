package notifymock

import (
	"context"
	"sync"

	"gadai-backend/internal/notifier"
)

// Call records one dispatched notification.
type Call struct {
	PartyRef string
	Kind     notifier.TemplateKind
	Fields   map[string]any
}

// Recorder collects notifications and can be told to fail, for testing the
// commit-before-notify guarantee.
type Recorder struct {
	mu    sync.Mutex
	Calls []Call
	Err   error
}

var _ notifier.Notifier = (*Recorder)(nil)

func (r *Recorder) Notify(_ context.Context, partyRef string, kind notifier.TemplateKind, fields map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, Call{PartyRef: partyRef, Kind: kind, Fields: fields})
	return r.Err
}

// Sent reports how many notifications of the given kind were dispatched.
func (r *Recorder) Sent(kind notifier.TemplateKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.Calls {
		if c.Kind == kind {
			n++
		}
	}
	return n
}
