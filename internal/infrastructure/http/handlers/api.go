package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/nutriplan/dietplan/internal/domain/nutrition"
	"github.com/nutriplan/dietplan/internal/domain/plan"
	"github.com/nutriplan/dietplan/internal/domain/profile"
	"github.com/nutriplan/dietplan/internal/infrastructure/http/middleware"
	"github.com/nutriplan/dietplan/internal/ports/inbound"
	"github.com/nutriplan/dietplan/internal/ports/outbound"
	apperrors "github.com/nutriplan/dietplan/pkg/errors"
)

// maxBodyBytes bounds a JSON request body
const maxBodyBytes = 64 << 10

// APIHandlers handles the JSON API under /api/v1
type APIHandlers struct {
	plans     inbound.PlanService
	documents outbound.DocumentStore
	logger    *zap.Logger
}

// NewAPIHandlers creates a new API handlers instance
func NewAPIHandlers(plans inbound.PlanService, documents outbound.DocumentStore, logger *zap.Logger) *APIHandlers {
	return &APIHandlers{
		plans:     plans,
		documents: documents,
		logger:    logger.Named("api"),
	}
}

// PlanResponse is the body returned by POST /api/v1/plans
type PlanResponse struct {
	Plan        *plan.DietPlan          `json:"plan"`
	Nutrition   []FoodNutritionResponse `json:"nutrition"`
	Document    *DocumentResponse       `json:"document,omitempty"`
	RenderError *ErrorSummary           `json:"render_error,omitempty"`
}

// FoodNutritionResponse is the lookup outcome for one custom food
type FoodNutritionResponse struct {
	Food    string          `json:"food"`
	Info    *nutrition.Info `json:"info,omitempty"`
	Summary string          `json:"summary,omitempty"`
	Error   *ErrorSummary   `json:"error,omitempty"`
}

// DocumentResponse points at a stored PDF
type DocumentResponse struct {
	Token       string `json:"token"`
	Filename    string `json:"filename"`
	DownloadURL string `json:"download_url"`
	Size        int    `json:"size"`
}

// ErrorSummary is a non-fatal failure reported inside a successful response
type ErrorSummary struct {
	Code           apperrors.ErrorCode `json:"code"`
	Message        string              `json:"message"`
	UpstreamStatus int                 `json:"upstream_status,omitempty"`
}

func newErrorSummary(err error) *ErrorSummary {
	if err == nil {
		return nil
	}
	appErr, ok := apperrors.As(err)
	if !ok {
		return &ErrorSummary{Code: apperrors.CodeInternal, Message: err.Error()}
	}
	return &ErrorSummary{
		Code:           appErr.Code,
		Message:        appErr.Message,
		UpstreamStatus: appErr.UpstreamStatus,
	}
}

// CreatePlan handles POST /api/v1/plans
func (h *APIHandlers) CreatePlan(w http.ResponseWriter, r *http.Request) {
	result, ok := h.generate(w, r)
	if !ok {
		return
	}

	resp := PlanResponse{
		Plan:        result.Plan,
		Nutrition:   make([]FoodNutritionResponse, 0, len(result.Nutrition)),
		RenderError: newErrorSummary(result.RenderErr),
	}
	for _, fn := range result.Nutrition {
		item := FoodNutritionResponse{Food: fn.Food, Info: fn.Info, Error: newErrorSummary(fn.Err)}
		if fn.Info != nil {
			item.Summary = fn.Info.Summary()
		}
		resp.Nutrition = append(resp.Nutrition, item)
	}

	if result.Document != nil {
		if token := storeDocument(r.Context(), h.documents, result.Document, h.logger); token != "" {
			resp.Document = &DocumentResponse{
				Token:       token,
				Filename:    result.Document.Filename,
				DownloadURL: DownloadPath(token),
				Size:        len(result.Document.Data),
			}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// CreatePlanPDF handles POST /api/v1/plans/pdf and answers with the document
func (h *APIHandlers) CreatePlanPDF(w http.ResponseWriter, r *http.Request) {
	result, ok := h.generate(w, r)
	if !ok {
		return
	}

	if result.RenderErr != nil || result.Document == nil {
		err := result.RenderErr
		if err == nil {
			err = apperrors.NewRenderError(errors.New("no document produced"))
		}
		middleware.WriteError(w, r, err)
		return
	}

	WriteDocument(w, result.Document)
}

// GetNutrition handles GET /api/v1/nutrition?food=
func (h *APIHandlers) GetNutrition(w http.ResponseWriter, r *http.Request) {
	food := r.URL.Query().Get("food")

	info, err := h.plans.LookupNutrition(r.Context(), food)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, FoodNutritionResponse{
		Food:    strings.TrimSpace(food),
		Info:    info,
		Summary: info.Summary(),
	})
}

func (h *APIHandlers) generate(w http.ResponseWriter, r *http.Request) (*inbound.PlanResult, bool) {
	var in profile.Input
	if err := decodeJSON(w, r, &in); err != nil {
		middleware.WriteError(w, r, err)
		return nil, false
	}

	p, err := profile.New(in)
	if err != nil {
		middleware.WriteError(w, r, err)
		return nil, false
	}

	result, err := h.plans.Generate(r.Context(), p)
	if err != nil {
		h.logger.Warn("Plan generation failed",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(err),
		)
		middleware.WriteError(w, r, err)
		return nil, false
	}
	return result, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return apperrors.NewBadRequestError("request body is empty")
		case errors.As(err, &maxErr):
			return apperrors.NewBadRequestError("request body is too large")
		default:
			return apperrors.NewAppError(apperrors.CodeBadRequest, "invalid JSON body", err.Error()).WithCause(err)
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
