// Package export converts form definitions to and from their exchange
// formats: indented JSON, YAML, and an OpenAPI 3 schema of the payload a
// valid submission produces.
package export
