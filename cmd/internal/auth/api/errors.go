package authapi

import (
	"errors"
	"net/http"

	"authcore/cmd/apperr"
)

const (
	internalMessage = "Um erro interno não esperado aconteceu."
	internalAction  = "Entre em contato com o suporte."
)

type errorBody struct {
	Name       string `json:"name"`
	Message    string `json:"message"`
	Action     string `json:"action"`
	StatusCode int    `json:"status_code"`
}

// classify maps an error kind to its status and public name. Anything unrecognized is internal.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, apperr.KindValidation):
		return http.StatusBadRequest, "ValidationError"
	case errors.Is(err, apperr.KindNotFound):
		return http.StatusNotFound, "NotFoundError"
	case errors.Is(err, apperr.KindUnauthorized):
		return http.StatusUnauthorized, "UnauthorizedError"
	case errors.Is(err, apperr.KindMethodNotAllowed):
		return http.StatusMethodNotAllowed, "MethodNotAllowedError"
	default:
		return http.StatusInternalServerError, "InternalServerError"
	}
}

// writeError is the single place kinds become HTTP responses.
// Unauthorized responses also expire the session cookie. Internal causes are logged, never sent.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, name := classify(err)
	body := errorBody{Name: name, StatusCode: status}

	ae, ok := apperr.As(err)
	if status == http.StatusInternalServerError || !ok {
		h.log.ErrorContext(r.Context(), "http.internal_error",
			"method", r.Method,
			"path", r.URL.Path,
			"err", err,
		)
		body.Name = "InternalServerError"
		body.StatusCode = http.StatusInternalServerError
		body.Message = internalMessage
		body.Action = internalAction
		writeJSON(w, http.StatusInternalServerError, body)
		return
	}

	if status == http.StatusUnauthorized {
		h.cookies.ClearSessionCookie(w)
	}
	body.Message = ae.Message
	body.Action = ae.Action
	writeJSON(w, status, body)
}

func invalidBody(op string) error {
	return apperr.Validation(op, "",
		"Corpo da requisição inválido.",
		"Verifique se o JSON enviado é válido e tente novamente.",
	)
}
