// Package prompt fills a form session from the terminal. Each editable field
// is asked with a prompt matching its type, answers flow through the session
// so derived values and inline errors show up as the user goes, and the form
// is submitted once every field passes.
package prompt
