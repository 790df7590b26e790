// Package output prints what macsetup is doing and what it did.
//
// The Printer writes progress lines as modules and clones run, "would ..."
// lines in dry-run mode and the final summary. Styling uses lipgloss with
// adaptive colors and is dropped entirely when the output is not a color
// terminal (see DetectFormat). The same summary can be exported as YAML with
// WriteReport.
package output
