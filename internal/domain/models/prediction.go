package models

import "time"

// Direction of a predicted move relative to the current close.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// PredictionResult is the full prediction response contract. Computed fresh
// on every request; never cached across price or sentiment updates.
//
// For an untrained symbol Trained is false and the predicted fields are nil;
// that is a normal product state, not an error.
type PredictionResult struct {
	Symbol                string     `json:"symbol"`
	Trained               bool       `json:"trained"`
	CurrentPrice          float64    `json:"current_price"`
	PredictedPrice        *float64   `json:"predicted_price"`
	Direction             *Direction `json:"direction"`
	ChangePercent         *float64   `json:"change_percent"`
	SentimentContribution *float64   `json:"sentiment_contribution"`
	PredictionDate        time.Time  `json:"prediction_date"`
	ModelVersion          string     `json:"model_version,omitempty"`
}
