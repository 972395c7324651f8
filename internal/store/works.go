package store

import (
	"fmt"
	"slices"
	"strings"

	"workboard/internal/logging"
	"workboard/internal/model"

	"github.com/sirupsen/logrus"
)

// Store holds the board's works: one ordered list per category, plus per-category
// change notification.
//
// A Store is created once at start-up and passed explicitly to whoever needs it.
// It is not safe for concurrent use: all mutations, reads and handler callbacks
// happen on one goroutine (the TUI update loop).
type Store struct {
	categories []model.Category
	lists      map[model.Category][]model.Work
	byID       map[string]model.Category
	pubs       map[model.Category]*publisher

	// version increases once per applied mutation.
	version uint64

	// pending holds snapshots not yet delivered; delivering is set while a
	// delivery loop is running so nested mutations queue instead of recursing.
	pending    []Snapshot
	delivering bool

	log logrus.FieldLogger
}

type Option func(*Store)

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// New builds an empty store for the given closed set of categories (display order).
func New(categories []model.Category, opts ...Option) (*Store, error) {
	if len(categories) == 0 {
		return nil, errNoCategories
	}
	s := &Store{
		lists: map[model.Category][]model.Work{},
		byID:  map[string]model.Category{},
		pubs:  map[model.Category]*publisher{},
		log:   logging.Discard(),
	}
	for _, c := range categories {
		if strings.TrimSpace(string(c)) == "" {
			return nil, errEmptyCategory
		}
		if _, dup := s.pubs[c]; dup {
			return nil, fmt.Errorf("duplicate category %q", string(c))
		}
		s.categories = append(s.categories, c)
		s.lists[c] = nil
		s.pubs[c] = &publisher{category: c}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) Categories() []model.Category {
	return slices.Clone(s.categories)
}

func (s *Store) HasCategory(c model.Category) bool {
	_, ok := s.pubs[c]
	return ok
}

// Items returns a copy of the current list for c. Unknown categories yield nil.
func (s *Store) Items(c model.Category) []model.Work {
	return slices.Clone(s.lists[c])
}

func (s *Store) Count(c model.Category) int {
	return len(s.lists[c])
}

// ResolveCategory maps user input ("doing", " Done ") to a configured category.
// An exact match wins over a case-insensitive one.
func (s *Store) ResolveCategory(label string) (model.Category, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", errEmptyCategory
	}
	if s.HasCategory(model.Category(label)) {
		return model.Category(label), nil
	}
	for _, c := range s.categories {
		if strings.EqualFold(string(c), label) {
			return c, nil
		}
	}
	return "", UnknownCategoryError{Category: model.Category(label)}
}

// Len returns the number of works across all categories.
func (s *Store) Len() int {
	return len(s.byID)
}

// Version counts successful mutations since New.
func (s *Store) Version() uint64 { return s.version }

func (s *Store) Lookup(id string) (model.Work, bool) {
	c, ok := s.byID[id]
	if !ok {
		return model.Work{}, false
	}
	i := indexOf(s.lists[c], id)
	if i < 0 {
		return model.Work{}, false
	}
	return s.lists[c][i], true
}

// Add appends w to the list of w.Category. A stored work always has a title.
func (s *Store) Add(w model.Work) error {
	if strings.TrimSpace(w.ID) == "" {
		return ErrEmptyID
	}
	if !w.HasTitle() {
		return BlankTitleError{ID: w.ID}
	}
	if !s.HasCategory(w.Category) {
		return UnknownCategoryError{Category: w.Category}
	}
	if _, exists := s.byID[w.ID]; exists {
		return DuplicateIDError{ID: w.ID}
	}

	s.lists[w.Category] = append(s.lists[w.Category], w)
	s.byID[w.ID] = w.Category
	s.version++
	s.log.WithFields(logrus.Fields{"op": "add", "work_id": w.ID, "category": w.Category}).Debug("work added")
	s.notify(w.Category)
	return nil
}

// Replace overwrites the stored work with the same id.
//
// When the category is unchanged the work keeps its position. When it differs the
// work leaves its old list and is appended to the new one; both lists notify, old
// category first.
func (s *Store) Replace(w model.Work) error {
	prev, ok := s.byID[w.ID]
	if !ok {
		return NotFoundError{ID: w.ID}
	}
	if !w.HasTitle() {
		return BlankTitleError{ID: w.ID}
	}
	if !s.HasCategory(w.Category) {
		return UnknownCategoryError{Category: w.Category}
	}
	i := indexOf(s.lists[prev], w.ID)
	if i < 0 {
		return NotFoundError{ID: w.ID}
	}

	fields := logrus.Fields{"op": "replace", "work_id": w.ID, "category": w.Category}
	if prev == w.Category {
		s.lists[prev][i] = w
		s.version++
		s.log.WithFields(fields).Debug("work replaced")
		s.notify(prev)
		return nil
	}

	s.lists[prev] = slices.Delete(s.lists[prev], i, i+1)
	s.lists[w.Category] = append(s.lists[w.Category], w)
	s.byID[w.ID] = w.Category
	s.version++
	fields["from"] = prev
	s.log.WithFields(fields).Debug("work replaced into another category")
	s.notify(prev, w.Category)
	return nil
}

// Move appends the work with id to the list of category to. Moving a work to
// the category it is already in changes nothing.
func (s *Store) Move(id string, to model.Category) error {
	w, ok := s.Lookup(id)
	if !ok {
		return NotFoundError{ID: id}
	}
	if !s.HasCategory(to) {
		return UnknownCategoryError{Category: to}
	}
	if w.Category == to {
		return nil
	}
	w.Category = to
	return s.Replace(w)
}

// Remove deletes the work with id from whichever list holds it.
func (s *Store) Remove(id string) (model.Work, error) {
	c, ok := s.byID[id]
	if !ok {
		return model.Work{}, NotFoundError{ID: id}
	}
	i := indexOf(s.lists[c], id)
	if i < 0 {
		return model.Work{}, NotFoundError{ID: id}
	}
	w := s.lists[c][i]
	s.lists[c] = slices.Delete(s.lists[c], i, i+1)
	delete(s.byID, id)
	s.version++
	s.log.WithFields(logrus.Fields{"op": "remove", "work_id": id, "category": c}).Debug("work removed")
	s.notify(c)
	return w, nil
}

func (s *Store) snapshot(c model.Category) Snapshot {
	return Snapshot{Category: c, Items: slices.Clone(s.lists[c]), Version: s.version}
}

// notify queues the current snapshot of each category and drains the queue unless
// a drain is already running further up the stack. Draining in FIFO order keeps
// every subscriber's view of the mutation sequence identical to the order in
// which mutations were applied.
func (s *Store) notify(cats ...model.Category) {
	for _, c := range cats {
		s.pending = append(s.pending, s.snapshot(c))
	}
	if s.delivering {
		return
	}
	s.delivering = true
	defer func() { s.delivering = false }()

	for len(s.pending) > 0 {
		snap := s.pending[0]
		s.pending = s.pending[1:]
		if p := s.pubs[snap.Category]; p != nil {
			p.deliver(snap)
		}
	}
	s.pending = nil
}

func indexOf(items []model.Work, id string) int {
	return slices.IndexFunc(items, func(w model.Work) bool { return w.ID == id })
}
