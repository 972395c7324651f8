package store

import (
	"errors"
	"fmt"
	"testing"

	"workboard/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(model.DefaultCategories())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func work(id, title string, c model.Category) model.Work {
	return model.Work{ID: id, Title: title, Category: c}
}

func titles(items []model.Work) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Title)
	}
	return out
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNew_RejectsBadCategorySets(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatalf("expected error for empty category set")
	}
	if _, err := New([]model.Category{"TODO", "TODO"}); err == nil {
		t.Fatalf("expected error for duplicate category")
	}
	if _, err := New([]model.Category{"TODO", "  "}); err == nil {
		t.Fatalf("expected error for blank category")
	}
}

func TestStore_AddRemoveScenario(t *testing.T) {
	s := newTestStore(t)

	var lastCount int
	var lastTitles []string
	sub, err := s.Subscribe(model.CategoryTodo, func(snap Snapshot) {
		lastCount = snap.Count()
		lastTitles = titles(snap.Items)
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Cancel()

	if lastCount != 0 || len(lastTitles) != 0 {
		t.Fatalf("expected empty replay, got count=%d titles=%v", lastCount, lastTitles)
	}

	steps := []struct {
		apply func() error
		want  []string
	}{
		{func() error { return s.Add(work("1", "A", model.CategoryTodo)) }, []string{"A"}},
		{func() error { return s.Add(work("2", "B", model.CategoryTodo)) }, []string{"A", "B"}},
		{func() error { _, err := s.Remove("1"); return err }, []string{"B"}},
	}
	for i, st := range steps {
		if err := st.apply(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if !sameStrings(lastTitles, st.want) {
			t.Fatalf("step %d: expected list %v, got %v", i, st.want, lastTitles)
		}
		if lastCount != len(st.want) {
			t.Fatalf("step %d: expected count %d, got %d", i, len(st.want), lastCount)
		}
		if got := s.Count(model.CategoryTodo); got != lastCount {
			t.Fatalf("step %d: Count()=%d but last notification=%d", i, got, lastCount)
		}
	}
}

func TestStore_AddDuplicateIDAcrossCategories(t *testing.T) {
	s := newTestStore(t)
	if err := s.Add(work("1", "A", model.CategoryTodo)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	err := s.Add(work("1", "A again", model.CategoryDone))
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if s.Count(model.CategoryDone) != 0 || s.Len() != 1 {
		t.Fatalf("duplicate add must not apply: done=%d len=%d", s.Count(model.CategoryDone), s.Len())
	}
}

func TestStore_RejectsBlankTitle(t *testing.T) {
	s := newTestStore(t)
	if err := s.Add(work("1", "  ", model.CategoryTodo)); !errors.Is(err, ErrBlankTitle) {
		t.Fatalf("expected ErrBlankTitle, got %v", err)
	}
	if s.Len() != 0 || s.Version() != 0 {
		t.Fatalf("blank add must not apply: len=%d version=%d", s.Len(), s.Version())
	}

	_ = s.Add(work("1", "A", model.CategoryTodo))
	if err := s.Replace(work("1", "", model.CategoryTodo)); !errors.Is(err, ErrBlankTitle) {
		t.Fatalf("expected ErrBlankTitle, got %v", err)
	}
	if w, _ := s.Lookup("1"); w.Title != "A" {
		t.Fatalf("blank replace must not apply, title=%q", w.Title)
	}

	_, err := Seed(newTestStore(t), map[model.Category][]model.Work{
		model.CategoryTodo: {work("2", "", model.CategoryTodo)},
	})
	if !errors.Is(err, ErrBlankTitle) {
		t.Fatalf("expected Seed to refuse a blank mirror row, got %v", err)
	}
}

func TestStore_AddRejectsUnknownCategoryAndEmptyID(t *testing.T) {
	s := newTestStore(t)
	if err := s.Add(work("1", "A", "LATER")); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
	if err := s.Add(work("", "A", model.CategoryTodo)); !errors.Is(err, ErrEmptyID) {
		t.Fatalf("expected ErrEmptyID, got %v", err)
	}
}

func TestStore_ReplaceKeepsPosition(t *testing.T) {
	s := newTestStore(t)
	for i, title := range []string{"A", "B", "C"} {
		if err := s.Add(work(fmt.Sprint(i+1), title, model.CategoryTodo)); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if err := s.Replace(work("2", "Buy milk", model.CategoryTodo)); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	got := titles(s.Items(model.CategoryTodo))
	if want := []string{"A", "Buy milk", "C"}; !sameStrings(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestStore_ReplaceMissingIsNotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.Replace(work("nope", "X", model.CategoryTodo))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var nf NotFoundError
	if !errors.As(err, &nf) || nf.ID != "nope" {
		t.Fatalf("expected NotFoundError{ID: nope}, got %#v", err)
	}
}

func TestStore_ReplaceWithNewCategoryMovesAndNotifiesBoth(t *testing.T) {
	s := newTestStore(t)
	_ = s.Add(work("1", "A", model.CategoryTodo))
	_ = s.Add(work("2", "B", model.CategoryDoing))

	var order []model.Category
	sub, err := s.SubscribeAll(func(snap Snapshot) { order = append(order, snap.Category) })
	if err != nil {
		t.Fatalf("SubscribeAll: %v", err)
	}
	defer sub.Cancel()
	order = nil

	if err := s.Replace(work("1", "A*", model.CategoryDoing)); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if len(order) != 2 || order[0] != model.CategoryTodo || order[1] != model.CategoryDoing {
		t.Fatalf("expected TODO then DOING notifications, got %v", order)
	}
	if s.Count(model.CategoryTodo) != 0 {
		t.Fatalf("expected work to leave TODO")
	}
	if got := titles(s.Items(model.CategoryDoing)); !sameStrings(got, []string{"B", "A*"}) {
		t.Fatalf("expected appended to DOING, got %v", got)
	}
	if w, ok := s.Lookup("1"); !ok || w.Category != model.CategoryDoing {
		t.Fatalf("expected lookup to follow the move, got %+v ok=%v", w, ok)
	}
}

func TestStore_Move(t *testing.T) {
	s := newTestStore(t)
	_ = s.Add(work("1", "A", model.CategoryTodo))

	notified := 0
	sub, _ := s.Subscribe(model.CategoryTodo, func(Snapshot) { notified++ })
	defer sub.Cancel()
	notified = 0

	if err := s.Move("1", model.CategoryTodo); err != nil {
		t.Fatalf("Move same category: %v", err)
	}
	if notified != 0 {
		t.Fatalf("expected no notification for a no-op move, got %d", notified)
	}
	if err := s.Move("1", model.CategoryDone); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if s.Count(model.CategoryDone) != 1 || s.Count(model.CategoryTodo) != 0 {
		t.Fatalf("unexpected counts after move")
	}
	if err := s.Move("1", "LATER"); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
	if err := s.Move("zzz", model.CategoryTodo); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_RemoveTwiceIsNotFound(t *testing.T) {
	s := newTestStore(t)
	_ = s.Add(work("1", "A", model.CategoryTodo))
	if _, err := s.Remove("1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := s.Remove("1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second remove, got %v", err)
	}
}

func TestStore_NeverHoldsDuplicateIDs(t *testing.T) {
	s := newTestStore(t)
	cats := s.Categories()
	// Deterministic pseudo-random sequence of operations over a small id space.
	seed := uint32(7)
	next := func(n int) int {
		seed = seed*1103515245 + 12345
		return int(seed>>16) % n
	}
	for i := 0; i < 500; i++ {
		id := fmt.Sprint(next(8))
		c := cats[next(len(cats))]
		switch next(4) {
		case 0:
			_ = s.Add(work(id, "t", c))
		case 1:
			_ = s.Replace(work(id, "r", c))
		case 2:
			_, _ = s.Remove(id)
		case 3:
			_ = s.Move(id, c)
		}

		seen := map[string]bool{}
		total := 0
		for _, cat := range cats {
			for _, it := range s.Items(cat) {
				if seen[it.ID] {
					t.Fatalf("op %d: duplicate id %q in store", i, it.ID)
				}
				if it.Category != cat {
					t.Fatalf("op %d: work %q listed under %s but has category %s", i, it.ID, cat, it.Category)
				}
				seen[it.ID] = true
				total++
			}
		}
		if total != s.Len() {
			t.Fatalf("op %d: index size %d != listed %d", i, s.Len(), total)
		}
	}
}

func TestSubscribe_ReplaysAfterMutations(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 5; i++ {
		_ = s.Add(work(fmt.Sprint(i), fmt.Sprint("T", i), model.CategoryDoing))
	}
	_, _ = s.Remove("0")

	var got Snapshot
	calls := 0
	sub, err := s.Subscribe(model.CategoryDoing, func(snap Snapshot) { got = snap; calls++ })
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Cancel()
	if calls != 1 {
		t.Fatalf("expected exactly one replay, got %d", calls)
	}
	if got.Count() != 4 || got.Items[0].ID != "1" {
		t.Fatalf("unexpected replay snapshot: %+v", got)
	}
}

func TestSubscribe_UnknownCategoryAndNilHandler(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Subscribe("LATER", func(Snapshot) {}); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
	if _, err := s.Subscribe(model.CategoryTodo, nil); err == nil {
		t.Fatalf("expected error for nil handler")
	}
}

func TestSubscription_CancelStopsDelivery(t *testing.T) {
	s := newTestStore(t)
	calls := 0
	sub, _ := s.Subscribe(model.CategoryTodo, func(Snapshot) { calls++ })
	sub.Cancel()
	sub.Cancel()
	_ = s.Add(work("1", "A", model.CategoryTodo))
	if calls != 1 {
		t.Fatalf("expected only the replay delivery, got %d", calls)
	}
}

func TestNotify_NestedMutationsKeepOrderForAllSubscribers(t *testing.T) {
	s := newTestStore(t)

	var first, second []uint64
	subA, _ := s.Subscribe(model.CategoryTodo, func(snap Snapshot) {
		first = append(first, snap.Version)
		// React to the first add by adding another work from inside the handler.
		if snap.Count() == 1 {
			_ = s.Add(work("2", "B", model.CategoryTodo))
		}
	})
	defer subA.Cancel()
	subB, _ := s.Subscribe(model.CategoryTodo, func(snap Snapshot) {
		second = append(second, snap.Version)
	})
	defer subB.Cancel()

	if err := s.Add(work("1", "A", model.CategoryTodo)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	want := []uint64{0, 1, 2}
	if fmt.Sprint(first) != fmt.Sprint(want) || fmt.Sprint(second) != fmt.Sprint(want) {
		t.Fatalf("expected both subscribers to see versions %v, got first=%v second=%v", want, first, second)
	}
	if s.Count(model.CategoryTodo) != 2 {
		t.Fatalf("expected nested add to apply")
	}
}

func TestNotify_SubscribeDuringDeliveryNeverSeesStaleSnapshot(t *testing.T) {
	s := newTestStore(t)

	var late []int
	var lateSub *Subscription
	outer, _ := s.Subscribe(model.CategoryTodo, func(snap Snapshot) {
		if snap.Count() == 1 && lateSub == nil {
			_ = s.Add(work("2", "B", model.CategoryTodo))
			lateSub, _ = s.Subscribe(model.CategoryTodo, func(snap Snapshot) { late = append(late, snap.Count()) })
		}
	})
	defer outer.Cancel()

	_ = s.Add(work("1", "A", model.CategoryTodo))
	defer lateSub.Cancel()

	if fmt.Sprint(late) != "[2]" {
		t.Fatalf("expected late subscriber to see only the current snapshot, got %v", late)
	}
}

func TestSnapshot_ItemsAreIsolatedCopies(t *testing.T) {
	s := newTestStore(t)
	_ = s.Add(work("1", "A", model.CategoryTodo))

	sub, _ := s.Subscribe(model.CategoryTodo, func(snap Snapshot) {
		if len(snap.Items) > 0 {
			snap.Items[0].Title = "mutated"
		}
	})
	defer sub.Cancel()

	items := s.Items(model.CategoryTodo)
	items[0].Title = "also mutated"

	if w, _ := s.Lookup("1"); w.Title != "A" {
		t.Fatalf("store state leaked through a snapshot: %q", w.Title)
	}
}

func TestResolveCategory(t *testing.T) {
	s := newTestStore(t)
	for in, want := range map[string]model.Category{"TODO": model.CategoryTodo, " doing ": model.CategoryDoing, "Done": model.CategoryDone} {
		got, err := s.ResolveCategory(in)
		if err != nil || got != want {
			t.Fatalf("ResolveCategory(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := s.ResolveCategory("later"); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
	if _, err := s.ResolveCategory(" "); err == nil {
		t.Fatalf("expected error for blank label")
	}
}
