package store

import (
	"errors"
	"fmt"

	"workboard/internal/model"
)

var (
	ErrDuplicateID     = errors.New("duplicate work id")
	ErrNotFound        = errors.New("work not found")
	ErrUnknownCategory = errors.New("unknown category")
	ErrEmptyID         = errors.New("work id is empty")
	ErrBlankTitle      = errors.New("work title is blank")

	errNoCategories  = errors.New("store needs at least one category")
	errEmptyCategory = errors.New("category label is empty")
	errNilHandler    = errors.New("nil snapshot handler")
)

type DuplicateIDError struct {
	ID string
}

func (e DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate work id: %s", e.ID)
}

func (e DuplicateIDError) Is(target error) bool { return target == ErrDuplicateID }

type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("work not found: %s", e.ID)
}

func (e NotFoundError) Is(target error) bool { return target == ErrNotFound }

type UnknownCategoryError struct {
	Category model.Category
}

func (e UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category: %q", string(e.Category))
}

func (e UnknownCategoryError) Is(target error) bool { return target == ErrUnknownCategory }

type BlankTitleError struct {
	ID string
}

func (e BlankTitleError) Error() string {
	return fmt.Sprintf("work title is blank: %s", e.ID)
}

func (e BlankTitleError) Is(target error) bool { return target == ErrBlankTitle }
