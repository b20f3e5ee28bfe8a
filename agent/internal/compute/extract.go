package compute

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/didacticeureka/didacticeureka/pkg/types"
)

// LabelMode selects which expiration label the second-month IV lookup uses.
type LabelMode int

const (
	// LabelFirstMonth reuses the first month's label for the second month.
	// This reproduces the legacy job, which read the label from the
	// first-month record twice. In practice it makes the second-month lookup
	// miss unless the exchange lists the second-month ATM strike under the
	// first month too.
	LabelFirstMonth LabelMode = iota
	// LabelOwnMonth uses each month's own label.
	LabelOwnMonth
)

// Options are the fixed selection rules.
type Options struct {
	FuturePrefix     string
	IndexName        string
	Increment        int64
	SecondMonthLabel LabelMode
}

// DefaultOptions matches the Nikkei 225 mini-future / index-option layout.
var DefaultOptions = Options{
	FuturePrefix:     "FUT_225M_",
	IndexName:        "日経225",
	Increment:        250,
	SecondMonthLabel: LabelFirstMonth,
}

// Predicate reports whether a row is selected.
type Predicate func(types.Row) bool

// All combines predicates with logical AND.
func All(ps ...Predicate) Predicate {
	return func(r types.Row) bool {
		for _, p := range ps {
			if !p(r) {
				return false
			}
		}
		return true
	}
}

// InstrumentPrefix selects rows whose instrument name starts with prefix.
func InstrumentPrefix(prefix string) Predicate {
	return func(r types.Row) bool { return strings.HasPrefix(r.Instrument, prefix) }
}

// OptionTypeIs selects rows of the given option type.
func OptionTypeIs(t types.OptionType) Predicate {
	return func(r types.Row) bool { return r.OptionType == t }
}

// ExpirationIs selects rows with the given expiration label.
func ExpirationIs(label string) Predicate {
	return func(r types.Row) bool { return r.Expiration == label }
}

// StrikeIs selects rows with the given strike.
func StrikeIs(strike int64) Predicate {
	return func(r types.Row) bool { return r.Strike == strike }
}

// UnderlyingIs selects rows on the given underlying asset.
func UnderlyingIs(name string) Predicate {
	return func(r types.Row) bool { return r.Underlying == name }
}

// Filter returns the rows matching p, preserving order.
func Filter(t types.Table, p Predicate) types.Table {
	var out types.Table
	for _, r := range t {
		if p(r) {
			out = append(out, r)
		}
	}
	return out
}

// First returns the first row matching p.
func First(t types.Table, p Predicate) (types.Row, bool) {
	for _, r := range t {
		if p(r) {
			return r, true
		}
	}
	return types.Row{}, false
}

// Months returns the first and second reference rows in file order.
func Months(t types.Table, prefix string) (first, second types.Row, err error) {
	refs := Filter(t, InstrumentPrefix(prefix))
	if len(refs) < 2 {
		return first, second, fmt.Errorf("compute: %d rows with prefix %q, need 2: %w",
			len(refs), prefix, types.ErrInsufficientExpirations)
	}
	return refs[0], refs[1], nil
}

// LookupIV returns the implied volatility of the first row matching the
// option type, expiration label, strike and underlying.
func LookupIV(t types.Table, opt types.OptionType, label string, strike int64, underlying string) (decimal.Decimal, error) {
	row, ok := First(t, All(
		OptionTypeIs(opt),
		ExpirationIs(label),
		StrikeIs(strike),
		UnderlyingIs(underlying),
	))
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("compute: %s %s strike %d on %s: %w",
			opt.SourceString(), label, strike, underlying, types.ErrIVNotFound)
	}
	if !row.IV.Valid {
		return decimal.Decimal{}, fmt.Errorf("compute: %s %s strike %d on %s: record %d has a blank volatility: %w",
			opt.SourceString(), label, strike, underlying, row.Record, types.ErrIVNotFound)
	}
	return row.IV.Decimal, nil
}

// Extract derives the ATM strikes and ATM implied volatilities of the two
// nearest expirations. It is pure: the same table always yields the same
// Result.
func Extract(t types.Table, opts Options) (types.Result, error) {
	first, second, err := Months(t, opts.FuturePrefix)
	if err != nil {
		return types.Result{}, err
	}

	firstATM, err := atm(first, opts.Increment)
	if err != nil {
		return types.Result{}, err
	}
	secondATM, err := atm(second, opts.Increment)
	if err != nil {
		return types.Result{}, err
	}

	firstLabel := first.Expiration
	secondLabel := SecondMonthLookupLabel(first, second, opts.SecondMonthLabel)

	res := types.Result{
		FirstMonthATM:    firstATM,
		SecondMonthATM:   secondATM,
		FirstMonthLabel:  first.Expiration,
		SecondMonthLabel: second.Expiration,
	}

	lookups := []struct {
		dst    *decimal.Decimal
		opt    types.OptionType
		label  string
		strike int64
	}{
		{&res.FirstMonthPutIV, types.OptionPut, firstLabel, firstATM},
		{&res.FirstMonthCallIV, types.OptionCall, firstLabel, firstATM},
		{&res.SecondMonthPutIV, types.OptionPut, secondLabel, secondATM},
		{&res.SecondMonthCallIV, types.OptionCall, secondLabel, secondATM},
	}
	for _, l := range lookups {
		iv, err := LookupIV(t, l.opt, l.label, l.strike, opts.IndexName)
		if err != nil {
			return types.Result{}, err
		}
		*l.dst = iv
	}
	return res, nil
}

// SecondMonthLookupLabel returns the expiration label used for the second
// month's IV lookup under mode.
func SecondMonthLookupLabel(first, second types.Row, mode LabelMode) string {
	if mode == LabelOwnMonth {
		return second.Expiration
	}
	return first.Expiration
}

func atm(ref types.Row, increment int64) (int64, error) {
	if !ref.Settlement.Valid {
		return 0, fmt.Errorf("compute: reference row %s (record %d) has no settlement price: %w",
			ref.Instrument, ref.Record, types.ErrMalformedTable)
	}
	return RoundToIncrement(ref.Settlement.Decimal, increment), nil
}
