package server

import (
	stderrors "errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/matzehuels/nodemap/pkg/errors"
	"github.com/matzehuels/nodemap/pkg/store"
)

// errorBody is the JSON body of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusOf(err)
	if status >= 500 {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, errorBody{Error: string(code), Message: errors.UserMessage(err)})
}

// statusOf maps an error to an HTTP status and a code.
func statusOf(err error) (int, errors.Code) {
	if stderrors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound, errors.ErrCodeNotFound
	}
	code := errors.GetCode(err)
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat,
		errors.ErrCodeInvalidOutline, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest, code
	case errors.ErrCodeNoRoot, errors.ErrCodeInvalidTarget:
		return http.StatusUnprocessableEntity, code
	case errors.ErrCodeNotFound, errors.ErrCodeSessionNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound, code
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout, code
	case errors.ErrCodeUnsupported:
		return http.StatusServiceUnavailable, code
	case "":
		return http.StatusInternalServerError, errors.ErrCodeInternal
	default:
		return http.StatusInternalServerError, code
	}
}
