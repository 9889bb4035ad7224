package services

import "fmt"

// ValidationError reports malformed or meaningless input, such as an
// adjustment target equal to the current balance.
type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

// ProtectedEntityError reports an attempt to mutate or delete a system
// entity (system tags, the system currency).
type ProtectedEntityError struct {
	Entity string
	Name   string
}

func (e ProtectedEntityError) Error() string {
	return fmt.Sprintf("%s %q is protected", e.Entity, e.Name)
}

// EntityInUseError blocks deletion while foreign rows still reference the
// entity. Count lets callers render an actionable message.
type EntityInUseError struct {
	Entity string
	Name   string
	Count  int64
}

func (e EntityInUseError) Error() string {
	return fmt.Sprintf("%s %q is referenced by %d row(s)", e.Entity, e.Name, e.Count)
}

type NotFoundError struct {
	Entity string
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// DuplicateNameError guards the unique names: currency code, tag name,
// counterparty name, wallet name.
type DuplicateNameError struct {
	Entity string
	Name   string
}

func (e DuplicateNameError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Entity, e.Name)
}
