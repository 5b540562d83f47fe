package sentiment

// Label thresholds for directional stance. A score within ±0.15 of zero is
// considered neutral.
const (
	LabelBearish = "bearish"
	LabelNeutral = "neutral"
	LabelBullish = "bullish"

	labelThreshold = 0.15
)

// LabelFor maps a bounded score to its directional label.
func LabelFor(score float64) string {
	switch {
	case score < -labelThreshold:
		return LabelBearish
	case score > labelThreshold:
		return LabelBullish
	default:
		return LabelNeutral
	}
}
