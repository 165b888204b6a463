// Package derive computes derived field values. Each derived field names a
// formula key and an ordered list of parent fields; the Engine looks the key
// up in a Registry and evaluates it whenever the caller hands it a new value
// set. Evaluation is synchronous, single level (parents are never derived)
// and writes back only values that actually changed.
package derive
