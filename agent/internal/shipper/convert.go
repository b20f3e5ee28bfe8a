package shipper

import (
	"sort"
	"strconv"

	dto "github.com/prometheus/client_model/go"
	"github.com/shopspring/decimal"

	"github.com/didacticeureka/didacticeureka/pkg/types"
)

// Metric names and label keys of the published events.
const (
	MetricATM = "atm"
	MetricIV  = "iv"

	LabelMonth   = "month"
	LabelPutCall = "put_call"
)

var metricHelp = map[string]string{
	MetricATM: "At-the-money strike of the nearest index-option expirations.",
	MetricIV:  "Implied volatility at the at-the-money strike.",
}

// Label is a single tag key/value pair.
type Label struct {
	Name  string
	Value string
}

// Event is one metric data point.
type Event struct {
	Name   string
	Labels []Label
	Value  decimal.Decimal
}

// Integral reports whether the event carries an integer value (atm).
func (e Event) Integral() bool {
	return e.Name == MetricATM
}

// Float returns the value as a float64 for wire formats that need one.
func (e Event) Float() float64 {
	f, _ := e.Value.Float64()
	return f
}

// Events returns the six events for res in a fixed order:
// atm month 1, atm month 2, then iv month 1 put/call, iv month 2 put/call.
func Events(res types.Result) []Event {
	atm := func(month int, v int64) Event {
		return Event{
			Name:   MetricATM,
			Labels: []Label{{LabelMonth, strconv.Itoa(month)}},
			Value:  decimal.NewFromInt(v),
		}
	}
	iv := func(month int, opt types.OptionType, v decimal.Decimal) Event {
		return Event{
			Name:   MetricIV,
			Labels: []Label{{LabelMonth, strconv.Itoa(month)}, {LabelPutCall, opt.String()}},
			Value:  v,
		}
	}
	return []Event{
		atm(1, res.FirstMonthATM),
		atm(2, res.SecondMonthATM),
		iv(1, types.OptionPut, res.FirstMonthPutIV),
		iv(1, types.OptionCall, res.FirstMonthCallIV),
		iv(2, types.OptionPut, res.SecondMonthPutIV),
		iv(2, types.OptionCall, res.SecondMonthCallIV),
	}
}

// toMetricFamilies groups events into Prometheus gauge families sorted by
// name. Metric order inside a family follows event order.
func toMetricFamilies(events []Event) []*dto.MetricFamily {
	byName := make(map[string]*dto.MetricFamily)
	for _, e := range events {
		mf, ok := byName[e.Name]
		if !ok {
			mf = &dto.MetricFamily{
				Name: strPtr(e.Name),
				Type: dto.MetricType_GAUGE.Enum(),
			}
			if h, ok := metricHelp[e.Name]; ok {
				mf.Help = strPtr(h)
			}
			byName[e.Name] = mf
		}

		m := &dto.Metric{Gauge: &dto.Gauge{Value: float64Ptr(e.Float())}}
		for _, l := range e.Labels {
			m.Label = append(m.Label, &dto.LabelPair{Name: strPtr(l.Name), Value: strPtr(l.Value)})
		}
		mf.Metric = append(mf.Metric, m)
	}

	out := make([]*dto.MetricFamily, 0, len(byName))
	for _, mf := range byName {
		out = append(out, mf)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GetName() < out[j].GetName() })
	return out
}

func strPtr(s string) *string       { return &s }
func float64Ptr(f float64) *float64 { return &f }
