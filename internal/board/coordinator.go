package board

import (
	"errors"
	"fmt"

	"workboard/internal/form"
	"workboard/internal/logging"
	"workboard/internal/model"
	"workboard/internal/store"

	"github.com/sirupsen/logrus"
)

// Presenter shows and hides the modal form. The TUI implements it.
type Presenter interface {
	PresentModal(*form.Controller)
	DismissModal()
}

// Coordinator is the only component that turns form results and list intents
// into store mutations.
type Coordinator struct {
	store     *store.Store
	presenter Presenter
	formOpts  []form.Option
	log       logrus.FieldLogger
}

type CoordinatorOption func(*Coordinator)

func WithCoordinatorLogger(l logrus.FieldLogger) CoordinatorOption {
	return func(c *Coordinator) {
		if l != nil {
			c.log = l
		}
	}
}

// WithFormOptions applies opts to every form the coordinator opens.
func WithFormOptions(opts ...form.Option) CoordinatorOption {
	return func(c *Coordinator) { c.formOpts = append(c.formOpts, opts...) }
}

func NewCoordinator(s *store.Store, p Presenter, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{store: s, presenter: p, log: logging.Discard()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HandleFormResult applies a confirmed form to the store and dismisses the modal.
// Cancelled results only dismiss. A failed mutation leaves the store untouched.
func (c *Coordinator) HandleFormResult(r form.Result) error {
	defer c.DismissModal()
	if r.Kind == form.ResultCancelled {
		return nil
	}

	fields := logrus.Fields{"work_id": r.Work.ID, "category": r.Work.Category, "result": r.Kind.String()}
	var err error
	if _, exists := c.store.Lookup(r.Work.ID); exists {
		fields["op"] = "replace"
		err = c.store.Replace(r.Work)
	} else {
		fields["op"] = "add"
		err = c.store.Add(r.Work)
	}
	if err != nil {
		c.log.WithFields(fields).WithError(err).Error("form result discarded")
		return fmt.Errorf("apply form result: %w", err)
	}
	c.log.WithFields(fields).Info("form result applied")
	return nil
}

// HandleDelete removes w. Deleting something already gone counts as done.
func (c *Coordinator) HandleDelete(w model.Work) error {
	if _, err := c.store.Remove(w.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.log.WithField("work_id", w.ID).Debug("delete of missing work ignored")
			return nil
		}
		c.log.WithField("work_id", w.ID).WithError(err).Error("delete failed")
		return err
	}
	c.log.WithFields(logrus.Fields{"op": "remove", "work_id": w.ID, "category": w.Category}).Info("work deleted")
	return nil
}

func (c *Coordinator) HandleMove(w model.Work, to model.Category) error {
	if err := c.store.Move(w.ID, to); err != nil {
		c.log.WithFields(logrus.Fields{"work_id": w.ID, "to": to}).WithError(err).Warn("move refused")
		return err
	}
	c.log.WithFields(logrus.Fields{"op": "move", "work_id": w.ID, "from": w.Category, "to": to}).Info("work moved")
	return nil
}

// NewWork opens a create form for category cat.
func (c *Coordinator) NewWork(cat model.Category) *form.Controller {
	ctl := form.NewCreate(cat, c.formOptions()...)
	c.PresentModal(ctl)
	return ctl
}

// OpenWork opens a read-only form on the stored copy of id.
func (c *Coordinator) OpenWork(id string) (*form.Controller, bool) {
	w, ok := c.store.Lookup(id)
	if !ok {
		return nil, false
	}
	ctl := form.NewEdit(w, c.formOptions()...)
	c.PresentModal(ctl)
	return ctl, true
}

// ListController builds a list controller for cat that reports back to c.
func (c *Coordinator) ListController(cat model.Category, r Renderer) *ListController {
	return NewListController(cat, c.store, c, r, c.formOpts...)
}

func (c *Coordinator) PresentModal(ctl *form.Controller) {
	if c.presenter != nil {
		c.presenter.PresentModal(ctl)
	}
}

func (c *Coordinator) DismissModal() {
	if c.presenter != nil {
		c.presenter.DismissModal()
	}
}

func (c *Coordinator) formOptions() []form.Option {
	opts := append([]form.Option(nil), c.formOpts...)
	return append(opts, form.WithResultHandler(func(r form.Result) { _ = c.HandleFormResult(r) }))
}
