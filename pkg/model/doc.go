// Package model defines the declarative form definition (FormConfig and its
// FormField list) together with the runtime Value type used while a form is
// being filled in. The JSON encoding of FormConfig is the durable contract
// shared by every store: field order is display order, timestamps are
// ISO-8601 strings and date values travel as YYYY-MM-DD.
//
// Check performs the structural lint that both the validation compiler and
// the builder rely on; its *SchemaError matches ErrConfiguration.
package model
