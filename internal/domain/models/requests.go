package models

// Requests for the prediction HTTP endpoints. Defined in domain for consistency and reuse.

type PredictRequest struct {
	Symbol string `param:"symbol" json:"symbol" validate:"required,max=10"`
}

type TrainRequest struct {
	Symbol   string `param:"symbol" json:"symbol" validate:"required,max=10"`
	DaysData int    `query:"days" json:"days" default:"365" validate:"gte=60,lte=1825"`
}

type JobStatusRequest struct {
	Symbol string `param:"symbol" json:"symbol" validate:"required,max=10"`
}

type SentimentRequest struct {
	Symbol string `param:"symbol" json:"symbol" validate:"required,max=10"`
	Days   int    `query:"days" json:"days" default:"30" validate:"gte=1,lte=365"`
}
