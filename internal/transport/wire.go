package transport

import (
	"errors"
	"net/http"

	"agentlink/internal/domain"
)

// Routes and headers shared by client and server.
const (
	SendPath      = "/v1/a2a:sendMessage"
	DIDPath       = "/v1/did"
	HealthPath    = "/healthz"
	SessionHeader = "X-Session-ID"

	maxBodyBytes = 1 << 20
)

// errorBody is the JSON body of every non-2xx response.
type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// publication is the body of a DID publish request. Payload is the base64
// encoding of an auth.RecordClaim and Proof its signature.
type publication struct {
	Payload string `json:"payload"`
	Proof   string `json:"proof"`
}

// StatusFor maps an error kind to the HTTP status the server answers with.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSignature), errors.Is(err, domain.ErrReplay):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrIdentity):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSessionExpired):
		return http.StatusGone
	case errors.Is(err, domain.ErrCapacityExceeded):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrDecryption), errors.Is(err, domain.ErrCrypto):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
