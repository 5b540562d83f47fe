package features

import "marketminds/internal/domain/models"

// Lookback is the sequence length fed into the forecasting model.
const Lookback = 7

// Sequences builds supervised (X, y) pairs from a fusion window using a
// sliding lookback window. label[i] is the scaled close of the row that
// follows sequence i, the next-day target.
func Sequences(w *models.FusionWindow) (seqs [][]models.FeatureRow, labels []float64) {
	rows := w.Rows
	for i := Lookback; i < len(rows); i++ {
		seqs = append(seqs, rows[i-Lookback:i])
		labels = append(labels, rows[i].Close)
	}
	return seqs, labels
}

// LatestSequence returns the final lookback rows of the window, which is
// the single inference input. Returns nil when the window is too short.
func LatestSequence(w *models.FusionWindow) []models.FeatureRow {
	if len(w.Rows) < Lookback {
		return nil
	}
	return w.Rows[len(w.Rows)-Lookback:]
}

// ZeroSentiment returns a copy of the sequence with the sentiment feature
// zeroed, used for the counterfactual price-only baseline.
func ZeroSentiment(seq []models.FeatureRow) []models.FeatureRow {
	out := make([]models.FeatureRow, len(seq))
	copy(out, seq)
	for i := range out {
		out[i].Sentiment = 0
	}
	return out
}
