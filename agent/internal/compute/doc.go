// Package compute derives the published values from a parsed settlement
// table.
//
// Extract runs four steps over a types.Table:
//
//  1. Month selection: the first two rows whose instrument starts with the
//     mini-future prefix, in file order (Months).
//  2. ATM rounding: each reference settlement price rounded to the strike
//     increment, halves away from zero (RoundToIncrement).
//  3. IV lookup: for each month and PUT/CALL, the first row matching option
//     type, expiration label, ATM strike and the index underlying (LookupIV).
//  4. Assembly into a types.Result.
//
// Row selection is expressed as composable Predicates over the ordered rows.
// Everything here is pure and deterministic; there is no I/O and no logging.
package compute
