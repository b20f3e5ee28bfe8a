// Package table turns the raw settlement-price file into a types.Table.
//
// The file is decoded from its legacy encoding (Shift-JIS by default) with
// golang.org/x/text, a fixed number of metadata lines is skipped, the next
// line is the header, and the remaining records are decoded with gocsv and
// converted into typed rows. Columns are matched by name, not position.
//
// Parse is pure: no I/O beyond the byte slice and no logging.
package table
