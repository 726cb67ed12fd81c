package predict

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Values is an ordered sequence of monthly predictions. Non-finite entries
// serialize as JSON strings ("NaN", "+Inf", "-Inf").
type Values []float64

// Sum returns the total of all predictions.
func (v Values) Sum() float64 {
	var total float64
	for _, x := range v {
		total += x
	}
	return total
}

// Mean returns the average prediction, or zero for an empty sequence.
func (v Values) Mean() float64 {
	if len(v) == 0 {
		return 0
	}
	return v.Sum() / float64(len(v))
}

func (v Values) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("[]"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(formatNumber(x))
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func (v *Values) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Values, len(raw))
	for i, item := range raw {
		f, err := parseNumber(item)
		if err != nil {
			return fmt.Errorf("prediction %d: %w", i, err)
		}
		out[i] = f
	}
	*v = out
	return nil
}

// scalar is a single float64 with the same non-finite encoding as Values.
type scalar float64

func (s scalar) MarshalJSON() ([]byte, error) {
	return formatNumber(float64(s)), nil
}

func (s *scalar) UnmarshalJSON(data []byte) error {
	f, err := parseNumber(data)
	if err != nil {
		return err
	}
	*s = scalar(f)
	return nil
}

func formatNumber(x float64) []byte {
	text := strconv.FormatFloat(x, 'g', -1, 64)
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return []byte(strconv.Quote(text))
	}
	return []byte(text)
}

func parseNumber(data []byte) (float64, error) {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return 0, err
	}
	return strconv.ParseFloat(s, 64)
}

type resultFields Result

// MarshalJSON encodes the result, writing non-finite scalars as strings.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		resultFields
		Confidence scalar `json:"confidence"`
		TrendSlope scalar `json:"trend_slope"`
		RSquared   scalar `json:"r_squared"`
	}{resultFields(r), scalar(r.Confidence), scalar(r.TrendSlope), scalar(r.RSquared)})
}

func (r *Result) UnmarshalJSON(data []byte) error {
	var aux struct {
		resultFields
		Confidence scalar `json:"confidence"`
		TrendSlope scalar `json:"trend_slope"`
		RSquared   scalar `json:"r_squared"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = Result(aux.resultFields)
	r.Confidence = float64(aux.Confidence)
	r.TrendSlope = float64(aux.TrendSlope)
	r.RSquared = float64(aux.RSquared)
	return nil
}

type performanceFields Performance

// MarshalJSON encodes the performance, writing non-finite scalars as strings.
func (p Performance) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		performanceFields
		TotalRevenue   scalar `json:"total_revenue"`
		AvgDealSize    scalar `json:"avg_deal_size"`
		AvgCustomerAge scalar `json:"avg_customer_age"`
	}{performanceFields(p), scalar(p.TotalRevenue), scalar(p.AvgDealSize), scalar(p.AvgCustomerAge)})
}

func (p *Performance) UnmarshalJSON(data []byte) error {
	var aux struct {
		performanceFields
		TotalRevenue   scalar `json:"total_revenue"`
		AvgDealSize    scalar `json:"avg_deal_size"`
		AvgCustomerAge scalar `json:"avg_customer_age"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = Performance(aux.performanceFields)
	p.TotalRevenue = float64(aux.TotalRevenue)
	p.AvgDealSize = float64(aux.AvgDealSize)
	p.AvgCustomerAge = float64(aux.AvgCustomerAge)
	return nil
}
