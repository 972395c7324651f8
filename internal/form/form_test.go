package form

import (
	"errors"
	"strings"
	"testing"
	"time"

	"workboard/internal/model"
)

var fixedNow = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func TestNewCreate_StartsEditableWithNowDate(t *testing.T) {
	c := NewCreate(model.CategoryTodo, WithClock(clock))
	if c.Mode() != ModeCreating {
		t.Fatalf("expected creating, got %v", c.Mode())
	}
	if !c.Draft().DueDate.Equal(fixedNow) {
		t.Fatalf("expected default due date now, got %v", c.Draft().DueDate)
	}
	if st := c.FieldStyle(); !st.Editable || st.Dimmed {
		t.Fatalf("expected editable, non-dimmed fields, got %+v", st)
	}
	if _, ok := c.Original(); ok {
		t.Fatalf("create form must not report an original")
	}
}

func TestConfirm_BlankTitleOnCreateIsInvalid(t *testing.T) {
	emitted := 0
	c := NewCreate(model.CategoryTodo, WithResultHandler(func(Result) { emitted++ }))
	c.UpdateDraft("   ", "body", time.Time{})

	_, err := c.Confirm()
	if !errors.Is(err, ErrInvalidDraft) {
		t.Fatalf("expected ErrInvalidDraft, got %v", err)
	}
	if c.Mode() != ModeCreating {
		t.Fatalf("state must not change on invalid confirm, got %v", c.Mode())
	}
	if emitted != 0 {
		t.Fatalf("expected no emission, got %d", emitted)
	}
}

func TestConfirm_CreateMintsIDAndEmitsOnce(t *testing.T) {
	var got []Result
	c := NewCreate(model.CategoryDoing,
		WithClock(clock),
		WithIDGenerator(func() string { return "work-new" }),
		WithResultHandler(func(r Result) { got = append(got, r) }),
	)
	due := fixedNow.Add(48 * time.Hour)
	c.UpdateDraft("Write report", "details", due)

	res, err := c.Confirm()
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if res.Kind != ResultCreated || res.Work.ID != "work-new" || res.Work.Category != model.CategoryDoing {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !res.Work.DueDate.Equal(due) || res.Work.Body != "details" {
		t.Fatalf("draft fields not carried: %+v", res.Work)
	}
	if _, err := c.Confirm(); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed on second confirm, got %v", err)
	}
	_ = c.Cancel()
	if len(got) != 1 {
		t.Fatalf("expected exactly one emission, got %d", len(got))
	}
}

func TestConfirm_TrimsTitle(t *testing.T) {
	c := NewCreate(model.CategoryTodo, WithClock(clock))
	c.UpdateDraft("  Buy milk \t", "  body kept as typed ", time.Time{})
	res, err := c.Confirm()
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if res.Work.Title != "Buy milk" {
		t.Fatalf("expected trimmed title, got %q", res.Work.Title)
	}
	if res.Work.Body != "  body kept as typed " {
		t.Fatalf("body must not be trimmed, got %q", res.Work.Body)
	}
}

func TestEditFlow_ViewToggleConfirmKeepsID(t *testing.T) {
	orig := model.Work{ID: "w-1", Title: "Old", Body: "b", DueDate: fixedNow, Category: model.CategoryTodo}
	c := NewEdit(orig, WithClock(clock))

	if c.Mode() != ModeViewing {
		t.Fatalf("expected viewing, got %v", c.Mode())
	}
	if st := c.FieldStyle(); st.Editable || !st.Dimmed {
		t.Fatalf("expected read-only dimmed fields, got %+v", st)
	}
	if c.UpdateDraft("ignored", "", time.Time{}) {
		t.Fatalf("draft must not change while viewing")
	}
	if !c.ToggleEdit() {
		t.Fatalf("expected toggle from viewing to succeed")
	}
	if c.ToggleEdit() {
		t.Fatalf("toggle outside viewing must be a no-op")
	}
	c.UpdateDraft("Buy milk", "2 liters", fixedNow)

	res, err := c.Confirm()
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if res.Kind != ResultUpdated || res.Work.ID != "w-1" || res.Work.Title != "Buy milk" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Work.Category != model.CategoryTodo {
		t.Fatalf("category must be preserved, got %v", res.Work.Category)
	}
}

func TestEdit_DraftIsACopy(t *testing.T) {
	orig := model.Work{ID: "w-1", Title: "Old", Category: model.CategoryTodo}
	c := NewEdit(orig)
	c.ToggleEdit()
	c.UpdateDraft("New", "", time.Time{})
	if orig.Title != "Old" {
		t.Fatalf("original mutated through the draft")
	}
	if o, _ := c.Original(); o.Title != "Old" {
		t.Fatalf("form's original changed: %q", o.Title)
	}
}

func TestConfirm_BlankTitleOnEditIsInvalid(t *testing.T) {
	c := NewEdit(model.Work{ID: "w-1", Title: "Old", Category: model.CategoryTodo})
	c.ToggleEdit()
	c.UpdateDraft("", "", time.Time{})
	if _, err := c.Confirm(); !errors.Is(err, ErrInvalidDraft) {
		t.Fatalf("expected ErrInvalidDraft, got %v", err)
	}
	if c.Mode() != ModeEditing {
		t.Fatalf("expected to stay editing, got %v", c.Mode())
	}
}

func TestConfirm_FromViewingClosesAsCancelled(t *testing.T) {
	var got Result
	c := NewEdit(model.Work{ID: "w-1", Title: "Old", Category: model.CategoryTodo},
		WithResultHandler(func(r Result) { got = r }))
	res, err := c.Confirm()
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if res.Kind != ResultCancelled || got.Kind != ResultCancelled || c.Mode() != ModeClosed {
		t.Fatalf("expected cancelled close, got res=%+v mode=%v", res, c.Mode())
	}
}

func TestCancel_DiscardsDraft(t *testing.T) {
	emitted := []Result{}
	c := NewCreate(model.CategoryTodo, WithResultHandler(func(r Result) { emitted = append(emitted, r) }))
	c.UpdateDraft("Something", "", time.Time{})
	res := c.Cancel()
	if res.Kind != ResultCancelled || c.Mode() != ModeClosed {
		t.Fatalf("unexpected cancel: %+v mode=%v", res, c.Mode())
	}
	if c.Draft().Title != "" {
		t.Fatalf("expected draft discarded, got %+v", c.Draft())
	}
	c.Cancel()
	if len(emitted) != 1 {
		t.Fatalf("expected a single cancelled emission, got %d", len(emitted))
	}
}

func TestBodyLimit_Boundaries(t *testing.T) {
	c := NewCreate(model.CategoryTodo)

	exact := strings.Repeat("a", model.MaxBodyLength)
	if got := c.GuardBody(exact); got != exact {
		t.Fatalf("body of exactly %d chars must pass unchanged", model.MaxBodyLength)
	}
	over := exact + "b"
	if got := c.GuardBody(over); got != exact {
		t.Fatalf("expected 1001st char discarded, got len=%d", len(got))
	}

	c.UpdateDraft("T", over, time.Time{})
	if n := model.BodyLength(c.Draft().Body); n != model.MaxBodyLength {
		t.Fatalf("expected stored body of %d chars, got %d", model.MaxBodyLength, n)
	}
	res, err := c.Confirm()
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if n := model.BodyLength(res.Work.Body); n > model.MaxBodyLength {
		t.Fatalf("confirmed body exceeds limit: %d", n)
	}
}

func TestBodyLimit_CountsCharactersNotBytes(t *testing.T) {
	c := NewCreate(model.CategoryTodo)
	body := strings.Repeat("\u00e9", model.MaxBodyLength+5)
	got := c.GuardBody(body)
	if n := model.BodyLength(got); n != model.MaxBodyLength {
		t.Fatalf("expected %d characters, got %d", model.MaxBodyLength, n)
	}
}

func TestBodyLimit_CombiningMarksCountOnce(t *testing.T) {
	const accented = "e\u0301" // e + combining acute accent
	c := NewCreate(model.CategoryTodo)

	exact := strings.Repeat(accented, model.MaxBodyLength)
	if !c.UpdateDraft("T", exact, time.Time{}) {
		t.Fatalf("create form must accept draft updates")
	}
	if c.Draft().Body != exact {
		t.Fatalf("body of exactly %d characters was cut to %d", model.MaxBodyLength, model.BodyLength(c.Draft().Body))
	}

	c.UpdateDraft("T", exact+accented, time.Time{})
	if c.Draft().Body != exact {
		t.Fatalf("expected the 1001st character discarded, got %d", model.BodyLength(c.Draft().Body))
	}
}
