// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// Snippet is a titled unit of stored text — one knowledge record.
// The `json:"..."` tags tell Go's encoding/json package how to serialize/deserialize
// this struct to/from JSON. This is called a "struct tag" — metadata attached to fields.
//
// For example, when we marshal a Snippet to JSON:
//
//	snippet := Snippet{ID: "abc", Title: "Glycolysis"}
//	json.Marshal(snippet) → {"id":"abc","title":"Glycolysis",...}
//
// ID is generated by the store on creation and never changes afterwards.
// Category is a free-form label ("pathway", "enzyme", ...) — the server
// stores it but does not interpret it.
type Snippet struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
