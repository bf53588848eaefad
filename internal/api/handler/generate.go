package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/geocycle/geocycle/internal/api/middleware"
	"github.com/geocycle/geocycle/internal/api/models"
	"github.com/geocycle/geocycle/internal/api/response"
	"github.com/geocycle/geocycle/internal/planner"
)

// CoursePlanner builds plans for each response contract.
type CoursePlanner interface {
	PlanCourses(ctx context.Context, req planner.TripRequest) ([]planner.Course, error)
	PlanCourse(ctx context.Context, req planner.TripRequest) (*planner.Course, error)
	PlanShop(ctx context.Context, req planner.TripRequest) (*planner.ShopPlan, error)
}

// GenerateHandler handles POST /generate.
type GenerateHandler struct {
	planner  CoursePlanner
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewGenerateHandler creates a new GenerateHandler.
func NewGenerateHandler(p CoursePlanner, logger zerolog.Logger) *GenerateHandler {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)

	return &GenerateHandler{
		planner:  p,
		validate: v,
		logger:   logger,
	}
}

// Generate handles POST /generate. The version field selects the response
// shape: v3 (default) an array of courses, v2 one course, v1 one shop.
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req planner.TripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			response.BadRequest(w, r, "invalid request", fieldErrors(verrs))
			return
		}
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	var (
		result any
		err    error
	)
	switch req.Version {
	case planner.VersionShop:
		result, err = h.planner.PlanShop(r.Context(), req)
	case planner.VersionCourse:
		result, err = h.planner.PlanCourse(r.Context(), req)
	default:
		result, err = h.planner.PlanCourses(r.Context(), req)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, result)
}

func (h *GenerateHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())

	if errors.Is(err, planner.ErrTooFar) {
		h.logger.Info().Str("request_id", requestID).Err(err).Msg("start point rejected")
		response.Notice(w, r, err.Error())
		return
	}

	event := h.logger.Error()
	if errors.Is(err, planner.ErrUpstreamTimeout) || errors.Is(err, planner.ErrUpstreamUnavailable) {
		event = h.logger.Warn()
	}
	event.Str("request_id", requestID).Err(err).Msg("plan generation failed")

	response.InternalError(w, r, err.Error())
}

func fieldErrors(verrs validator.ValidationErrors) []models.FieldError {
	out := make([]models.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, models.FieldError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
			Code:    fe.Tag(),
		})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return "must be one of: " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gte":
		return "must be at least " + fe.Param()
	default:
		return "is invalid"
	}
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}
