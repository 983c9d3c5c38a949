// Package mdrender converts README-flavored Markdown into a flat sequence of
// typed block nodes.
//
// The renderer understands a deliberately small subset of Markdown: fenced
// code, ATX headings, block quotes, image lines, horizontal rules, pipe
// tables, bullet lists and paragraphs, with bold, italic, inline code, links
// and images recognized inside each block. Every input is legal input; text
// that matches no construct is emitted as a paragraph.
//
// Rendering is pure. A Renderer holds only immutable configuration and may be
// shared between goroutines.
package mdrender
