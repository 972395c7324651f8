package board

import (
	"fmt"
	"slices"

	"workboard/internal/form"
	"workboard/internal/model"
	"workboard/internal/store"
)

// Source is the read side of the store a list controller needs.
type Source interface {
	Subscribe(c model.Category, h store.Handler) (*store.Subscription, error)
}

// Delegate receives intents from list controllers and open forms.
//
// A list controller holds its delegate without owning it; the delegate (normally
// the Coordinator) lives for the whole session and outlives every list.
type Delegate interface {
	HandleFormResult(form.Result) error
	HandleDelete(model.Work) error
	HandleMove(w model.Work, to model.Category) error
	PresentModal(*form.Controller)
}

// Renderer draws a category list. Render is called with every snapshot; it is
// expected to redraw the whole list.
type Renderer interface {
	Render(snap store.Snapshot, countLabel string)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(snap store.Snapshot, countLabel string)

func (f RendererFunc) Render(snap store.Snapshot, countLabel string) { f(snap, countLabel) }

// ListController presents one category as a selectable, deletable list.
type ListController struct {
	category model.Category
	source   Source
	delegate Delegate
	renderer Renderer
	formOpts []form.Option

	sub  *store.Subscription
	snap store.Snapshot
}

func NewListController(c model.Category, src Source, d Delegate, r Renderer, formOpts ...form.Option) *ListController {
	return &ListController{
		category: c,
		source:   src,
		delegate: d,
		renderer: r,
		formOpts: formOpts,
		snap:     store.Snapshot{Category: c},
	}
}

// Attach subscribes to the category. The current snapshot renders immediately.
func (l *ListController) Attach() error {
	if l.sub != nil {
		return nil
	}
	sub, err := l.source.Subscribe(l.category, l.onSnapshot)
	if err != nil {
		return fmt.Errorf("attach %s list: %w", l.category, err)
	}
	l.sub = sub
	return nil
}

func (l *ListController) Detach() {
	l.sub.Cancel()
	l.sub = nil
}

func (l *ListController) onSnapshot(snap store.Snapshot) {
	l.snap = snap
	if l.renderer != nil {
		l.renderer.Render(snap, l.CountLabel())
	}
}

func (l *ListController) Category() model.Category { return l.category }

// Items returns a copy of the latest snapshot.
func (l *ListController) Items() []model.Work { return slices.Clone(l.snap.Items) }

func (l *ListController) Count() int { return l.snap.Count() }

func (l *ListController) CountLabel() string { return fmt.Sprint(l.snap.Count()) }

// SelectItem opens a read-only form on a copy of the work at index and asks the
// delegate to present it. A stale index does nothing.
func (l *ListController) SelectItem(index int) (*form.Controller, bool) {
	w, ok := l.at(index)
	if !ok {
		return nil, false
	}
	opts := append(slices.Clone(l.formOpts), form.WithResultHandler(func(r form.Result) {
		_ = l.delegate.HandleFormResult(r)
	}))
	ctl := form.NewEdit(w, opts...)
	l.delegate.PresentModal(ctl)
	return ctl, true
}

// DeleteItem forwards a delete intent for the work at index.
func (l *ListController) DeleteItem(index int) bool {
	w, ok := l.at(index)
	if !ok {
		return false
	}
	_ = l.delegate.HandleDelete(w)
	return true
}

// MoveItem forwards a move intent for the work at index.
func (l *ListController) MoveItem(index int, to model.Category) bool {
	w, ok := l.at(index)
	if !ok {
		return false
	}
	_ = l.delegate.HandleMove(w, to)
	return true
}

func (l *ListController) at(index int) (model.Work, bool) {
	if index < 0 || index >= len(l.snap.Items) {
		return model.Work{}, false
	}
	return l.snap.Items[index], true
}
