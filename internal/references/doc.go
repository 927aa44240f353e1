// Package references extracts the mentions, documents and attachments a
// document points at, and rewrites the URLs it embeds.
package references
