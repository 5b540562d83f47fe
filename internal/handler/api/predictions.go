package api

import (
	"errors"
	"net/http"
	"time"

	models "marketminds/internal/domain/models"
	domrepo "marketminds/internal/domain/repository"
	"marketminds/internal/usecase"
	xhttp "marketminds/pkg/http"
	xlogger "marketminds/pkg/logger"

	"github.com/labstack/echo/v4"
)

// PredictionsHandler exposes the prediction, training and sentiment
// endpoints over Echo.
type PredictionsHandler struct {
	logger    *xlogger.Logger
	predictor *usecase.PredictionOrchestrator
	trainer   *usecase.TrainingOrchestrator
	store     domrepo.MarketStore
}

func NewPredictionsHandler(logger *xlogger.Logger, predictor *usecase.PredictionOrchestrator, trainer *usecase.TrainingOrchestrator, store domrepo.MarketStore) *PredictionsHandler {
	return &PredictionsHandler{logger: logger, predictor: predictor, trainer: trainer, store: store}
}

func (h *PredictionsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/predict/:symbol", h.Predict)
	g.POST("/train/:symbol", h.Train)
	g.GET("/train/:symbol/status", h.TrainStatus)
	g.GET("/sentiment/:symbol", h.Sentiment)
}

func (h *PredictionsHandler) Predict(c echo.Context) error {
	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.predictor.Predict(c.Request().Context(), req.Symbol)
	if err != nil {
		h.logger.Error("predict usecase error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, domainError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *PredictionsHandler) Train(c echo.Context) error {
	req := &models.TrainRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	job, err := h.trainer.TrainAsync(c.Request().Context(), req.Symbol, req.DaysData)
	if err != nil {
		h.logger.Error("train usecase error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, domainError(err))
	}
	return xhttp.DataResponse(c, http.StatusAccepted, job)
}

func (h *PredictionsHandler) TrainStatus(c echo.Context) error {
	req := &models.JobStatusRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	job, err := h.trainer.LatestJob(c.Request().Context(), req.Symbol)
	if err != nil {
		h.logger.Error("job status error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, domainError(err))
	}
	if job == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no training job for %s", req.Symbol))
	}
	return xhttp.SuccessResponse(c, job)
}

func (h *PredictionsHandler) Sentiment(c echo.Context) error {
	req := &models.SentimentRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -req.Days)
	rows, err := h.store.GetDailySentiment(c.Request().Context(), req.Symbol, from, to)
	if err != nil {
		h.logger.Error("sentiment query error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, domainError(err))
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

// domainError maps domain sentinels onto transport errors. Anything
// unmapped surfaces as a 500.
func domainError(err error) error {
	switch {
	case errors.Is(err, models.ErrDataUnavailable):
		return xhttp.NotFoundError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrInsufficientData):
		return xhttp.NewAppError("ERR_INSUFFICIENT_DATA", "", err.Error(), http.StatusUnprocessableEntity).WithError(err)
	case errors.Is(err, models.ErrTrainingInProgress):
		return xhttp.NewAppError("ERR_TRAINING_IN_PROGRESS", "", err.Error(), http.StatusConflict).WithError(err)
	default:
		return err
	}
}
