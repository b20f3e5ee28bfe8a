package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// OptionType is the PUT/CALL flag of a settlement row. The zero value marks
// rows that are not options (futures carry no flag).
type OptionType int

const (
	OptionNone OptionType = iota
	OptionPut
	OptionCall
)

// sourceOptionTypes maps each variant to its raw value in the exchange file.
// The asymmetry is intentional: the file spells CALL as "CAL".
var sourceOptionTypes = map[OptionType]string{
	OptionPut:  "PUT",
	OptionCall: "CAL",
}

// SourceString returns the raw file representation ("PUT" or "CAL").
// OptionNone has no representation and returns "".
func (o OptionType) SourceString() string {
	return sourceOptionTypes[o]
}

// ParseOptionType maps a raw file value back to an OptionType. Unknown or
// blank values map to OptionNone.
func ParseOptionType(raw string) OptionType {
	for t, s := range sourceOptionTypes {
		if s == raw {
			return t
		}
	}
	return OptionNone
}

// String returns the lowercase name used in metric tags.
func (o OptionType) String() string {
	switch o {
	case OptionPut:
		return "put"
	case OptionCall:
		return "call"
	default:
		return "none"
	}
}

// Row is one data line of the settlement-price file. Rows are never mutated
// after parsing.
type Row struct {
	// Record is the 1-based position among the data records, for error messages.
	Record int

	Instrument string
	Expiration string
	OptionType OptionType
	Strike     int64
	Underlying string

	// Settlement and IV are invalid when the cell was blank.
	Settlement decimal.NullDecimal
	IV         decimal.NullDecimal
}

// Table is the parsed file in file order.
type Table []Row

// Result is the output of one pipeline run.
type Result struct {
	FirstMonthATM     int64
	SecondMonthATM    int64
	FirstMonthPutIV   decimal.Decimal
	FirstMonthCallIV  decimal.Decimal
	SecondMonthPutIV  decimal.Decimal
	SecondMonthCallIV decimal.Decimal

	// Expiration labels of the two reference rows, kept for logging.
	FirstMonthLabel  string
	SecondMonthLabel string
}

// LogAttrs returns the six values as slog key/value pairs. Decimals are
// rendered as strings so logs show the exact file values.
func (r Result) LogAttrs() []any {
	return []any{
		"first_month_atm", r.FirstMonthATM,
		"second_month_atm", r.SecondMonthATM,
		"first_month_put_iv", r.FirstMonthPutIV.String(),
		"first_month_call_iv", r.FirstMonthCallIV.String(),
		"second_month_put_iv", r.SecondMonthPutIV.String(),
		"second_month_call_iv", r.SecondMonthCallIV.String(),
	}
}

// String is a compact single-line summary for CLI output.
func (r Result) String() string {
	return fmt.Sprintf("atm1=%d atm2=%d iv1(put=%s call=%s) iv2(put=%s call=%s)",
		r.FirstMonthATM, r.SecondMonthATM,
		r.FirstMonthPutIV, r.FirstMonthCallIV,
		r.SecondMonthPutIV, r.SecondMonthCallIV)
}
