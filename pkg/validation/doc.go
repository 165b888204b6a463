// Package validation compiles a form's field list into runtime validators.
//
// Each user-entered field gets a short rule chain chosen by its FieldType;
// the first failing rule supplies the message. Optional fields accept an
// empty value without running the rest of the chain, and derived fields are
// never validated because the user does not type them. Failures are data
// (Result), never errors; only malformed definitions produce an error, and
// only from Compile.
package validation
