package table

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"github.com/didacticeureka/didacticeureka/pkg/types"
)

// Column names as they appear in the settlement file header.
const (
	ColInstrument = "銘柄名称"
	ColExpiration = "限月"
	ColPutCall    = "PUT/CAL"
	ColStrike     = "権利行使価格"
	ColUnderlying = "原資産名称"
	ColSettlement = "清算価格"
	ColIV         = "ボラティリティ"
)

// RequiredColumns lists every header name Parse needs, in no particular order.
var RequiredColumns = []string{
	ColInstrument, ColExpiration, ColPutCall, ColStrike,
	ColUnderlying, ColSettlement, ColIV,
}

// record is the raw CSV shape; typed conversion happens in toRow so errors
// can name the offending record and column.
type record struct {
	Instrument string `csv:"銘柄名称"`
	Expiration string `csv:"限月"`
	PutCall    string `csv:"PUT/CAL"`
	Strike     string `csv:"権利行使価格"`
	Underlying string `csv:"原資産名称"`
	Settlement string `csv:"清算価格"`
	IV         string `csv:"ボラティリティ"`
}

// Options describes the physical layout of the file.
type Options struct {
	// Encoding is a WHATWG label such as "shift_jis".
	Encoding string
	// SkipRows is the number of metadata lines preceding the header.
	SkipRows int
}

// Parse decodes raw with the configured encoding, skips the metadata lines,
// reads the header and converts every following record into a types.Row.
//
// Any structural or type problem is reported as types.ErrMalformedTable.
func Parse(raw []byte, opts Options) (types.Table, error) {
	enc, err := htmlindex.Get(opts.Encoding)
	if err != nil {
		return nil, fmt.Errorf("table: encoding %q: %w", opts.Encoding, err)
	}
	br := bufio.NewReader(transform.NewReader(bytes.NewReader(raw), enc.NewDecoder()))

	for i := 0; i < opts.SkipRows; i++ {
		if _, err := br.ReadString('\n'); err != nil {
			return nil, malformed("file ends inside the %d metadata lines", opts.SkipRows)
		}
	}

	headerLine, err := br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("table: read header: %w", err)
	}
	header, err := parseHeader(headerLine)
	if err != nil {
		return nil, err
	}

	var normalized bytes.Buffer
	hw := csv.NewWriter(&normalized)
	_ = hw.Write(header)
	hw.Flush()

	cr := csv.NewReader(io.MultiReader(&normalized, br))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var records []record
	if err := gocsv.UnmarshalCSV(cr, &records); err != nil {
		return nil, malformed("decode records: %v", err)
	}

	rows := make(types.Table, 0, len(records))
	for i, rec := range records {
		row, err := toRow(rec, i+1)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// parseHeader splits the header line and checks every required column is
// present. Names are trimmed and stripped of a byte-order mark.
func parseHeader(line string) ([]string, error) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return nil, malformed("missing header line")
	}
	fields, err := csv.NewReader(strings.NewReader(line)).Read()
	if err != nil {
		return nil, malformed("header: %v", err)
	}

	seen := make(map[string]bool, len(fields))
	for i, f := range fields {
		f = strings.TrimSpace(strings.TrimPrefix(f, "\ufeff"))
		fields[i] = f
		seen[f] = true
	}
	var missing []string
	for _, col := range RequiredColumns {
		if !seen[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, malformed("header is missing columns %s", strings.Join(missing, ", "))
	}
	return fields, nil
}

func toRow(rec record, n int) (types.Row, error) {
	row := types.Row{
		Record:     n,
		Instrument: strings.TrimSpace(rec.Instrument),
		Expiration: strings.TrimSpace(rec.Expiration),
		OptionType: types.ParseOptionType(strings.TrimSpace(rec.PutCall)),
		Underlying: strings.TrimSpace(rec.Underlying),
	}

	var err error
	if row.Strike, err = parseStrike(rec.Strike); err != nil {
		return row, malformed("record %d column %s: %v", n, ColStrike, err)
	}
	if row.Settlement, err = parseDecimal(rec.Settlement); err != nil {
		return row, malformed("record %d column %s: %v", n, ColSettlement, err)
	}
	if row.IV, err = parseDecimal(rec.IV); err != nil {
		return row, malformed("record %d column %s: %v", n, ColIV, err)
	}
	return row, nil
}

// parseStrike accepts integral values written either as "28000" or
// "28000.0". A blank cell is 0 (futures rows carry no strike).
func parseStrike(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("%q is not an integer strike", s)
	}
	return d.IntPart(), nil
}

// parseDecimal returns an invalid NullDecimal for a blank cell.
func parseDecimal(s string) (decimal.NullDecimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("%q is not a number", s)
	}
	return decimal.NewNullDecimal(d), nil
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("table: %s: %w", fmt.Sprintf(format, args...), types.ErrMalformedTable)
}
