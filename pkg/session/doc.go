// Package session runs one form-filling session: it owns the live value map,
// feeds every edit through the derivation engine and then the field's
// validator, and gates submission on the whole-form validator before handing
// values to a Sink.
package session
