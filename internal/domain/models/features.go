package models

import "time"

// FeatureRow is one fused observation: a trading date with its normalized
// price features and the sentiment feature. Rows are consumed by the
// forecasting model strictly in date order.
type FeatureRow struct {
	Date      time.Time
	Close     float64 // min-max scaled close, [0, 1]
	Volume    float64 // min-max scaled log1p(volume), [0, 1]
	Sentiment float64 // daily aggregate, [-1, 1]; 0 when no news
}

// Features returns the row as a model input vector.
// Index layout: [close, volume, sentiment].
func (r FeatureRow) Features() []float64 {
	return []float64{r.Close, r.Volume, r.Sentiment}
}

// Scaler holds the min-max parameters a fusion window was normalized with.
// Deriving them from the window itself keeps training and inference
// reproducible for the same window definition.
type Scaler struct {
	Min float64
	Max float64
}

// Scale maps v into [0, 1] using the captured window range.
func (s Scaler) Scale(v float64) float64 {
	if s.Max == s.Min {
		return 0
	}
	return (v - s.Min) / (s.Max - s.Min)
}

// Unscale maps a [0, 1] model output back to the original unit.
func (s Scaler) Unscale(v float64) float64 {
	return v*(s.Max-s.Min) + s.Min
}

// FusionWindow is the ordered feature sequence for one symbol together with
// the scaling parameters needed to denormalize model output.
type FusionWindow struct {
	Symbol      string
	Rows        []FeatureRow
	CloseScaler Scaler
	VolScaler   Scaler
	LastClose   float64 // unscaled close of the final row
	EndDate     time.Time
}
