// Package templates renders the contact selector's HTML.
//
// The *_templ.go files are generated from the .templ sources with
// `templ generate` and committed alongside them.
package templates
