// Package preview renders a form definition as a standalone HTML page, the
// terminal counterpart of the browser preview. Pages are rendered with
// go-template from an embedded bundle and styled through go-theme manifests.
package preview
