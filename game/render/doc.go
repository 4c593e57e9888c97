// Package render draws Rush Hour boards for terminals and plain text.
//
// Every vehicle is labelled with a letter in index order, so the main
// vehicle is always 'A'. Replay expands a solution into frames that a
// caller can print one at a time; Renderer.Play does that with lipgloss
// colors and, when writing to a terminal, redraws each frame in place.
package render
