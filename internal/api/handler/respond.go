package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ganttwork/planner/internal/domain"
	"github.com/ganttwork/planner/internal/gantt"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// parseErrorBody is the 422 payload for documents the parser rejected.
type parseErrorBody struct {
	Error string     `json:"error"`
	Line  int        `json:"line"`
	Type  gantt.Kind `json:"type"`
}

// mapError translates domain sentinel errors to HTTP status codes.
// All mapping lives here so individual handlers stay concise.
func mapError(w http.ResponseWriter, err error) {
	var pe *gantt.ParseError
	switch {
	case errors.As(err, &pe):
		respondJSON(w, http.StatusUnprocessableEntity, parseErrorBody{Error: pe.Message, Line: pe.Line, Type: pe.Kind})
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidProject):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrBodyTooLarge):
		respondError(w, http.StatusRequestEntityTooLarge, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// readBody reads the whole request body, reporting an overflow of chi's
// RequestSize middleware as domain.ErrBodyTooLarge.
func readBody(r *http.Request) ([]byte, error) {
	b, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: limit is %d bytes", domain.ErrBodyTooLarge, tooLarge.Limit)
		}
		return nil, fmt.Errorf("read body: %w", err)
	}
	return b, nil
}

// decodeJSON reads and unmarshals the body into v. A syntactically broken
// body yields errBadJSON so callers can answer 400.
func decodeJSON(r *http.Request, v any) error {
	b, err := readBody(r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return errBadJSON
	}
	return nil
}

var errBadJSON = errors.New("invalid JSON body")

// respondDecodeError answers a decodeJSON failure.
func respondDecodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, errBadJSON) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	mapError(w, err)
}
