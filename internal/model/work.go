package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rivo/uniseg"
)

// MaxBodyLength is the maximum number of characters a work body may hold. A
// character is a user-perceived one (grapheme cluster): "é" written as e plus a
// combining accent, or a ZWJ emoji sequence, counts once.
const MaxBodyLength = 1000

type Category string

const (
	CategoryTodo  Category = "TODO"
	CategoryDoing Category = "DOING"
	CategoryDone  Category = "DONE"
)

// DefaultCategories returns the built-in board columns in display order.
func DefaultCategories() []Category {
	return []Category{CategoryTodo, CategoryDoing, CategoryDone}
}

func (c Category) String() string { return string(c) }

// Work is one task on the board.
//
// Work is a plain value: copying it yields an independent draft. Code outside the
// store never mutates a Work it did not copy.
type Work struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Body     string    `json:"body,omitempty"`
	DueDate  time.Time `json:"dueDate"`
	Category Category  `json:"category"`
}

func NewWorkID() string {
	return "work-" + uuid.NewString()
}

// HasTitle reports whether the work carries a non-blank title (required to save it).
func (w Work) HasTitle() bool {
	return strings.TrimSpace(w.Title) != ""
}

// BodyLength counts the characters of s the way MaxBodyLength does.
func BodyLength(s string) int {
	return uniseg.GraphemeClusterCount(s)
}

// ClampBody truncates s to MaxBodyLength characters, never splitting one.
func ClampBody(s string) string {
	if BodyLength(s) <= MaxBodyLength {
		return s
	}
	g := uniseg.NewGraphemes(s)
	for n := 0; g.Next(); n++ {
		if n == MaxBodyLength {
			start, _ := g.Positions()
			return s[:start]
		}
	}
	return s
}
