package models

import "fmt"

// NotFoundError reports that a referenced entity does not exist. It is a
// domain error, distinct from storage failures, and maps to a 404 at the
// HTTP boundary.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func NewAssetNotFound(id string) *NotFoundError {
	return &NotFoundError{Kind: "asset", ID: id}
}

func NewManufacturerNotFound(id string) *NotFoundError {
	return &NotFoundError{Kind: "manufacturer", ID: id}
}

func NewProductNotFound(id string) *NotFoundError {
	return &NotFoundError{Kind: "product", ID: id}
}
