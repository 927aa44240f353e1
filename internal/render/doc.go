// Package render turns documents into standalone HTML pages.
//
// ToHTML produces the interactive page: math and diagrams are left for
// client scripts. ToPdfHTML produces a self-contained page for a headless
// renderer: math is typeset, code is highlighted, print styles are applied
// and exactly one readiness script sets window.renderStatus to "ready".
package render
