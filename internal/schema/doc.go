// Package schema declares the closed set of document node and mark types,
// their attributes and content rules, and constructs validated trees from
// their persisted JSON form.
package schema
