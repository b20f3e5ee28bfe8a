package compute

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/didacticeureka/didacticeureka/pkg/types"
)

const nikkei = "日経225"

func dec(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func future(name, label, settle string) types.Row {
	return types.Row{Instrument: name, Expiration: label, Underlying: nikkei, Settlement: dec(settle)}
}

func option(opt types.OptionType, label string, strike int64, iv string) types.Row {
	r := types.Row{
		Instrument: "OOP_" + opt.SourceString() + "_" + label,
		Expiration: label,
		OptionType: opt,
		Strike:     strike,
		Underlying: nikkei,
		Settlement: dec("100"),
	}
	if iv != "" {
		r.IV = dec(iv)
	}
	return r
}

// fixture has the second-month ATM strike listed under both labels so that
// both label modes resolve.
func fixture() types.Table {
	return types.Table{
		future("FUT_225M_2509", "2025/09", "27890"),
		future("FUT_225M_2510", "2025/10", "28310"),
		future("FUT_225_2509", "2025/09", "27895"),
		option(types.OptionPut, "2025/09", 28000, "0.18"),
		option(types.OptionCall, "2025/09", 28000, "0.20"),
		option(types.OptionPut, "2025/09", 28250, "0.21"),
		option(types.OptionCall, "2025/09", 28250, "0.22"),
		option(types.OptionPut, "2025/10", 28250, "0.17"),
		option(types.OptionCall, "2025/10", 28250, "0.19"),
	}
}

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(decimal.RequireFromString(want)), "got %s, want %s", got, want)
}

func TestExtract_OwnMonthLabel(t *testing.T) {
	opts := DefaultOptions
	opts.SecondMonthLabel = LabelOwnMonth

	res, err := Extract(fixture(), opts)
	require.NoError(t, err)

	assert.Equal(t, int64(28000), res.FirstMonthATM)
	assert.Equal(t, int64(28250), res.SecondMonthATM)
	assertDec(t, "0.18", res.FirstMonthPutIV)
	assertDec(t, "0.20", res.FirstMonthCallIV)
	assertDec(t, "0.17", res.SecondMonthPutIV)
	assertDec(t, "0.19", res.SecondMonthCallIV)
	assert.Equal(t, "2025/09", res.FirstMonthLabel)
	assert.Equal(t, "2025/10", res.SecondMonthLabel)
}

func TestExtract_FirstMonthLabelReusesFirstExpiration(t *testing.T) {
	res, err := Extract(fixture(), DefaultOptions)
	require.NoError(t, err)

	assert.Equal(t, int64(28250), res.SecondMonthATM)
	assertDec(t, "0.21", res.SecondMonthPutIV)
	assertDec(t, "0.22", res.SecondMonthCallIV)
}

func TestExtract_FirstMonthLabelMissesWithoutCrossListing(t *testing.T) {
	tbl := types.Table{
		future("FUT_225M_2509", "2025/09", "27890"),
		future("FUT_225M_2510", "2025/10", "28310"),
		option(types.OptionPut, "2025/09", 28000, "0.18"),
		option(types.OptionCall, "2025/09", 28000, "0.20"),
		option(types.OptionPut, "2025/10", 28250, "0.17"),
		option(types.OptionCall, "2025/10", 28250, "0.19"),
	}

	_, err := Extract(tbl, DefaultOptions)
	require.ErrorIs(t, err, types.ErrIVNotFound)

	opts := DefaultOptions
	opts.SecondMonthLabel = LabelOwnMonth
	_, err = Extract(tbl, opts)
	require.NoError(t, err)
}

func TestExtract_InsufficientExpirations(t *testing.T) {
	tbl := types.Table{
		future("FUT_225M_2509", "2025/09", "27890"),
		option(types.OptionPut, "2025/09", 28000, "0.18"),
	}
	_, err := Extract(tbl, DefaultOptions)
	require.ErrorIs(t, err, types.ErrInsufficientExpirations)

	_, err = Extract(nil, DefaultOptions)
	require.ErrorIs(t, err, types.ErrInsufficientExpirations)
}

func TestExtract_MissingPutIsIVNotFound(t *testing.T) {
	var tbl types.Table
	for _, r := range fixture() {
		if r.OptionType == types.OptionPut && r.Expiration == "2025/09" && r.Strike == 28000 {
			continue
		}
		tbl = append(tbl, r)
	}
	_, err := Extract(tbl, DefaultOptions)
	require.ErrorIs(t, err, types.ErrIVNotFound)
}

func TestExtract_BlankIVIsIVNotFound(t *testing.T) {
	tbl := fixture()
	tbl[4] = option(types.OptionCall, "2025/09", 28000, "")

	_, err := Extract(tbl, DefaultOptions)
	require.ErrorIs(t, err, types.ErrIVNotFound)
}

func TestExtract_BlankSettlementIsMalformed(t *testing.T) {
	tbl := fixture()
	tbl[1].Settlement = decimal.NullDecimal{}

	_, err := Extract(tbl, DefaultOptions)
	require.ErrorIs(t, err, types.ErrMalformedTable)
}

func TestExtract_WrongUnderlyingIgnored(t *testing.T) {
	tbl := fixture()
	// A same-strike put on another underlying ahead of the index put.
	other := option(types.OptionPut, "2025/09", 28000, "0.99")
	other.Underlying = "TOPIX"
	tbl = append(types.Table{other}, tbl...)

	res, err := Extract(tbl, DefaultOptions)
	require.NoError(t, err)
	assertDec(t, "0.18", res.FirstMonthPutIV)
}

func TestExtract_FirstMatchWins(t *testing.T) {
	tbl := fixture()
	tbl = append(tbl, option(types.OptionPut, "2025/09", 28000, "0.50"))

	res, err := Extract(tbl, DefaultOptions)
	require.NoError(t, err)
	assertDec(t, "0.18", res.FirstMonthPutIV)
}

func TestExtract_Idempotent(t *testing.T) {
	tbl := fixture()
	a, err := Extract(tbl, DefaultOptions)
	require.NoError(t, err)
	b, err := Extract(tbl, DefaultOptions)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestExtract_OptionRowOrderIrrelevant(t *testing.T) {
	want, err := Extract(fixture(), DefaultOptions)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		tbl := fixture()
		opts := tbl[3:]
		rng.Shuffle(len(opts), func(a, b int) { opts[a], opts[b] = opts[b], opts[a] })

		got, err := Extract(tbl, DefaultOptions)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestMonths_FileOrder(t *testing.T) {
	tbl := types.Table{
		future("FUT_225M_2510", "2025/10", "28310"),
		future("FUT_225M_2509", "2025/09", "27890"),
		future("FUT_225M_2511", "2025/11", "28500"),
	}
	first, second, err := Months(tbl, "FUT_225M_")
	require.NoError(t, err)
	assert.Equal(t, "2025/10", first.Expiration)
	assert.Equal(t, "2025/09", second.Expiration)
}

func TestLookupIV_ErrorNamesQuery(t *testing.T) {
	_, err := LookupIV(fixture(), types.OptionCall, "2025/12", 30000, nikkei)
	require.True(t, errors.Is(err, types.ErrIVNotFound))
	assert.Contains(t, err.Error(), "CAL 2025/12 strike 30000")
}
