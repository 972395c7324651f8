// Package form implements the work detail form: a draft copy of one work item,
// a view/edit/create protocol over it, and a single terminal result.
//
// The form never touches the store. Whoever opens it receives the outcome through
// the result handler exactly once.
package form

import (
	"errors"
	"strings"
	"time"

	"workboard/internal/model"
)

var (
	ErrInvalidDraft = errors.New("invalid draft: title is required")
	ErrClosed       = errors.New("form is closed")
)

type Mode int

const (
	ModeViewing Mode = iota
	ModeEditing
	ModeCreating
	ModeClosed
)

func (m Mode) String() string {
	switch m {
	case ModeViewing:
		return "viewing"
	case ModeEditing:
		return "editing"
	case ModeCreating:
		return "creating"
	case ModeClosed:
		return "closed"
	default:
		return "unknown"
	}
}

type ResultKind int

const (
	ResultCancelled ResultKind = iota
	ResultCreated
	ResultUpdated
)

func (k ResultKind) String() string {
	switch k {
	case ResultCreated:
		return "created"
	case ResultUpdated:
		return "updated"
	default:
		return "cancelled"
	}
}

// Result is the single outcome of a form session. Work is zero for ResultCancelled.
type Result struct {
	Kind ResultKind
	Work model.Work
}

// Draft is the editable part of a work.
type Draft struct {
	Title   string
	Body    string
	DueDate time.Time
}

// FieldStyle tells the input widgets how to present themselves for the current mode.
type FieldStyle struct {
	Editable bool
	Dimmed   bool
}

type Option func(*Controller)

// WithResultHandler sets the callback that receives the terminal result.
func WithResultHandler(fn func(Result)) Option {
	return func(c *Controller) { c.onResult = fn }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

func WithIDGenerator(fn func() string) Option {
	return func(c *Controller) {
		if fn != nil {
			c.newID = fn
		}
	}
}

type Controller struct {
	mode     Mode
	original model.Work
	category model.Category
	draft    Draft

	now      func() time.Time
	newID    func() string
	onResult func(Result)
	result   *Result
}

// NewCreate opens an empty form for a new work in category c.
func NewCreate(c model.Category, opts ...Option) *Controller {
	ctl := newController(opts)
	ctl.mode = ModeCreating
	ctl.category = c
	ctl.draft = Draft{DueDate: ctl.now()}
	return ctl
}

// NewEdit opens a read-only form over a copy of w. ToggleEdit makes it editable.
func NewEdit(w model.Work, opts ...Option) *Controller {
	ctl := newController(opts)
	ctl.mode = ModeViewing
	ctl.original = w
	ctl.category = w.Category
	ctl.draft = Draft{Title: w.Title, Body: model.ClampBody(w.Body), DueDate: w.DueDate}
	if ctl.draft.DueDate.IsZero() {
		ctl.draft.DueDate = ctl.now()
	}
	return ctl
}

func newController(opts []Option) *Controller {
	c := &Controller{now: time.Now, newID: model.NewWorkID}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Mode() Mode { return c.mode }

func (c *Controller) Draft() Draft { return c.draft }

func (c *Controller) Category() model.Category { return c.category }

// Original returns the work the form was opened on; ok is false for a create form.
func (c *Controller) Original() (model.Work, bool) {
	return c.original, c.original.ID != ""
}

func (c *Controller) Editable() bool {
	return c.mode == ModeEditing || c.mode == ModeCreating
}

func (c *Controller) FieldStyle() FieldStyle {
	e := c.Editable()
	return FieldStyle{Editable: e, Dimmed: !e}
}

// Result returns the terminal result once the form is closed.
func (c *Controller) Result() (Result, bool) {
	if c.result == nil {
		return Result{}, false
	}
	return *c.result, true
}

// ToggleEdit switches a viewing form to editing. It reports whether anything changed.
func (c *Controller) ToggleEdit() bool {
	if c.mode != ModeViewing {
		return false
	}
	c.mode = ModeEditing
	return true
}

// UpdateDraft replaces the draft fields. It is ignored unless the form is editable.
// The body is cut at model.MaxBodyLength characters; a zero date means now.
func (c *Controller) UpdateDraft(title, body string, due time.Time) bool {
	if !c.Editable() {
		return false
	}
	if due.IsZero() {
		due = c.now()
	}
	c.draft = Draft{Title: title, Body: model.ClampBody(body), DueDate: due}
	return true
}

// GuardBody is the per-keystroke body filter: text past the limit is discarded.
func (c *Controller) GuardBody(text string) string {
	return model.ClampBody(text)
}

// Confirm finalizes the draft. The title is saved with leading and trailing
// spaces trimmed; a blank title leaves the form open and returns ErrInvalidDraft.
// Confirming a form that was only viewed closes it as cancelled.
func (c *Controller) Confirm() (Result, error) {
	switch c.mode {
	case ModeClosed:
		return Result{}, ErrClosed
	case ModeViewing:
		return c.finish(Result{Kind: ResultCancelled}), nil
	}

	if strings.TrimSpace(c.draft.Title) == "" {
		return Result{}, ErrInvalidDraft
	}
	w := model.Work{
		Title:    strings.TrimSpace(c.draft.Title),
		Body:     model.ClampBody(c.draft.Body),
		DueDate:  c.draft.DueDate,
		Category: c.category,
	}
	kind := ResultUpdated
	if c.mode == ModeCreating {
		kind = ResultCreated
		w.ID = c.newID()
	} else {
		w.ID = c.original.ID
	}
	return c.finish(Result{Kind: kind, Work: w}), nil
}

// Cancel closes the form and discards the draft.
func (c *Controller) Cancel() Result {
	if c.mode == ModeClosed {
		if c.result != nil {
			return *c.result
		}
		return Result{Kind: ResultCancelled}
	}
	c.draft = Draft{}
	return c.finish(Result{Kind: ResultCancelled})
}

func (c *Controller) finish(r Result) Result {
	c.mode = ModeClosed
	c.result = &r
	if c.onResult != nil {
		c.onResult(r)
	}
	return r
}
