package store

import (
	"slices"

	"workboard/internal/model"
)

// Snapshot is the full ordered list of one category at a point in time.
type Snapshot struct {
	Category model.Category
	Items    []model.Work
	// Version is the store version that produced this snapshot. It only grows.
	Version uint64
}

func (s Snapshot) Count() int { return len(s.Items) }

// Handler receives snapshots. It runs synchronously on the store's goroutine and
// may call back into the store; nested mutations are delivered after it returns.
type Handler func(Snapshot)

// Subscription is the handle returned by Subscribe and SubscribeAll.
type Subscription struct {
	subs []*subscriber
}

// Cancel stops further deliveries. Calling it more than once is harmless.
func (s *Subscription) Cancel() {
	if s == nil {
		return
	}
	for _, sub := range s.subs {
		sub.pub.remove(sub)
	}
	s.subs = nil
}

// Subscribe registers h for category c and immediately delivers the current
// snapshot of c, then every later change.
func (s *Store) Subscribe(c model.Category, h Handler) (*Subscription, error) {
	if h == nil {
		return nil, errNilHandler
	}
	p := s.pubs[c]
	if p == nil {
		return nil, UnknownCategoryError{Category: c}
	}
	sub := p.add(h)
	sub.replay(s.snapshot(c))
	return &Subscription{subs: []*subscriber{sub}}, nil
}

// SubscribeAll registers h for every category, replaying each category in
// display order.
func (s *Store) SubscribeAll(h Handler) (*Subscription, error) {
	if h == nil {
		return nil, errNilHandler
	}
	out := &Subscription{}
	for _, c := range s.categories {
		sub := s.pubs[c].add(h)
		out.subs = append(out.subs, sub)
		sub.replay(s.snapshot(c))
	}
	return out, nil
}

type publisher struct {
	category model.Category
	subs     []*subscriber
}

type subscriber struct {
	pub     *publisher
	handler Handler
	// seen is the newest version delivered; older queued snapshots are skipped.
	seen      uint64
	cancelled bool
}

func (p *publisher) add(h Handler) *subscriber {
	sub := &subscriber{pub: p, handler: h}
	p.subs = append(p.subs, sub)
	return sub
}

func (p *publisher) remove(sub *subscriber) {
	sub.cancelled = true
	p.subs = slices.DeleteFunc(p.subs, func(x *subscriber) bool { return x == sub })
}

func (p *publisher) deliver(snap Snapshot) {
	// Handlers may subscribe or cancel during delivery; iterate over a copy.
	for _, sub := range slices.Clone(p.subs) {
		if sub.cancelled || snap.Version <= sub.seen {
			continue
		}
		sub.seen = snap.Version
		sub.handler(cloneSnapshot(snap))
	}
}

func (sub *subscriber) replay(snap Snapshot) {
	sub.seen = snap.Version
	sub.handler(snap)
}

func cloneSnapshot(snap Snapshot) Snapshot {
	snap.Items = slices.Clone(snap.Items)
	return snap
}
