// Package types defines the Go types shared by the agent packages: the parsed
// settlement table (Row, OptionType), the per-run Result and the error
// conditions every pipeline stage reports through.
package types
