package handle

import (
	"encoding/json"
	"net/http"

	"ridelink/internal/ride-service/core/myerrors"
)

func jsonResponse(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

// JsonError writes an error response as JSON with the specified HTTP status
// code. Exported because the auth middleware uses it too.
func JsonError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": err.Error(),
		"code":  code,
	})
}

// serviceError translates the error kind set by the core into an HTTP
// status. Storage is the fallback kind, so unknown errors come out as 500.
func serviceError(w http.ResponseWriter, err error) {
	JsonError(w, statusFor(myerrors.KindOf(err)), err)
}

func statusFor(kind myerrors.Kind) int {
	switch kind {
	case myerrors.KindValidation:
		return http.StatusBadRequest
	case myerrors.KindForbidden:
		return http.StatusForbidden
	case myerrors.KindNotFound:
		return http.StatusNotFound
	case myerrors.KindConflict:
		return http.StatusConflict
	case myerrors.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
