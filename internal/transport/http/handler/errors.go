package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/huntier-api/internal/domain"
	"github.com/huntier-api/internal/pkg/validate"
	appmw "github.com/huntier-api/internal/transport/http/middleware"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

// statusFor maps domain sentinels onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnprocessable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrTooManyRequests):
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// respondError writes err as an ErrorEnvelope. Internal errors are logged and
// replaced by a generic message.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var fields validate.Error
	if errors.As(err, &fields) {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorEnvelope{Error: "validation failed", Fields: fields})
		return
	}

	status := statusFor(err)
	env := ErrorEnvelope{Error: err.Error()}

	var retry *domain.RetryAfterError
	if errors.As(err, &retry) {
		secs := int(math.Ceil(retry.After.Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(secs))
		env.RetryAfter = secs
	}
	var invalid *domain.InvalidCodeError
	if errors.As(err, &invalid) {
		remaining := invalid.Remaining
		env.AttemptsRemaining = &remaining
	}

	if status == http.StatusInternalServerError {
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"err", err)
		env.Error = http.StatusText(status)
	}
	writeJSON(w, status, env)
}

// decode reads a JSON body into dst and validates it in the request locale.
// It writes the error response itself and reports whether the handler may go on.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validate.Struct(dst, appmw.LocaleFromContext(r.Context())); err != nil {
		respondError(w, r, err)
		return false
	}
	return true
}

func clientMeta(r *http.Request) domain.ClientMeta {
	ip := appmw.ClientIPFromRequest(r)
	ua := r.UserAgent()
	if len(ua) > 256 {
		ua = ua[:256]
	}
	return domain.ClientMeta{UserAgent: ua, IP: ip}
}

func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := appmw.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	return claims.UserID, true
}

func parsePagination(r *http.Request) (page, perPage int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage < 1 {
		perPage = 20
	}
	return
}
