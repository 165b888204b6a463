// Package builder holds the authoring side of formforge: an Editor that
// applies field and option edits to a form in memory, and a Library that
// sanitises, lints and persists finished forms through a store.Store.
package builder
