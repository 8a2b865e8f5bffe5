package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/couchcryptid/field-risk-service/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

const maxRequestBodySize = 1 << 16

type inputsRequest struct {
	Ground   string `json:"ground" validate:"omitempty,oneof=normal wet unstable"`
	Terrain  string `json:"terrain" validate:"omitempty,oneof=flat hilly"`
	Severity string `json:"severity" validate:"omitempty,oneof=low medium high"`
}

type locationRequest struct {
	Name string   `json:"name" validate:"required,max=200"`
	Lat  *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lon  *float64 `json:"lon" validate:"required,gte=-180,lte=180"`
}

type searchRequest struct {
	Query string `json:"query" validate:"max=200"`
}

type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (s *Server) handleGetAssessment(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, s.svc.State())
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Refresh(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, s.svc.State())
}

func (s *Server) handlePutInputs(w http.ResponseWriter, r *http.Request) {
	var req inputsRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	in, err := domain.ParseUserInputs(req.Ground, req.Terrain, req.Severity)
	if err != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request", Details: []string{err.Error()}})
		return
	}
	s.svc.SetInputs(r.Context(), in)
	sharedobs.WriteJSON(w, http.StatusOK, s.svc.State())
}

func (s *Server) handlePutLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	loc := domain.Location{
		Name:        strings.TrimSpace(req.Name),
		Coordinates: domain.Coordinates{Lat: *req.Lat, Lon: *req.Lon},
	}
	if err := s.svc.SetLocation(r.Context(), loc); err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, s.svc.State())
}

func (s *Server) handleSearchLocation(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	if _, err := s.svc.SearchPlace(r.Context(), req.Query); err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, s.svc.State())
}

func (s *Server) handleGetReport(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(s.svc.Report() + "\n"))
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
// It writes a 400 and returns false on any failure.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body", Details: []string{err.Error()}})
		return false
	}

	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			sharedobs.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request"})
			return false
		}
		details := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, describeFieldError(fe))
		}
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request", Details: details})
		return false
	}
	return true
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "gte", "lte":
		return fmt.Sprintf("%s is out of range (%s %s)", fe.Field(), fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNoLocation):
		return http.StatusConflict
	case errors.Is(err, domain.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrLocationNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrProviderUnavailable), errors.Is(err, domain.ErrGeocodingFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err, "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()))
	}
	sharedobs.WriteJSON(w, status, errorResponse{Error: domain.UserMessage(err)})
}
