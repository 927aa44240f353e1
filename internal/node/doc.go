// Package node defines the in-memory document tree shared by every
// conversion in the wiki: a tagged variant keyed by Type with primitive
// attributes, ordered children and, for text nodes, marks.
package node
