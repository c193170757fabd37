package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"agentlink/internal/domain"
	"agentlink/internal/metrics"
	"agentlink/internal/services/auth"
	"agentlink/internal/services/registry"
)

// Responder answers envelopes; agent.Responder satisfies it.
type Responder interface {
	Handle(ctx context.Context, env domain.Envelope, id domain.SessionID) (domain.Response, error)
}

// Directory is the registry surface served under DIDPath.
type Directory interface {
	Lookup(did domain.DID) registry.Resolution
	Register(rec domain.IdentityRecord) error
}

// Handler is the HTTP face of an agent.
type Handler struct {
	responder Responder
	dir       Directory
	authn     *auth.Authenticator
	log       zerolog.Logger
}

// NewHandler wires the routes. dir may be nil, in which case the DID
// routes are not served. authn checks publication freshness and replay;
// nil gets a private default.
func NewHandler(resp Responder, dir Directory, authn *auth.Authenticator, log zerolog.Logger) *Handler {
	if authn == nil {
		authn = auth.NewAuthenticator(auth.WithLogger(log))
	}
	return &Handler{responder: resp, dir: dir, authn: authn, log: log}
}

// RegisterRoutes mounts the agent routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get(HealthPath, h.healthz)
	r.Post(SendPath, h.sendMessage)
	if h.dir != nil {
		r.Get(DIDPath+"/{did}", h.getDID)
		r.Post(DIDPath, h.publishDID)
	}
}

// Router returns a chi router with recovery and request metrics.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.observe)
	h.RegisterRoutes(r)
	return r
}

func (h *Handler) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			path = rc.RoutePattern()
		}
		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		metrics.RecordHTTPRequest(r.Method, path, code, time.Since(start))
		h.log.Debug().Str("method", r.Method).Str("path", path).Int("status", code).Dur("took", time.Since(start)).Msg("request")
	})
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) sendMessage(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var env domain.Envelope
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&env); err != nil {
		http.Error(w, fmt.Sprintf("Failed to parse envelope: %v", err), http.StatusBadRequest)
		return
	}
	id := domain.SessionID(r.Header.Get(SessionHeader))
	resp, err := h.responder.Handle(r.Context(), env, id)
	if err != nil {
		h.fail(w, err)
		return
	}
	if resp.SessionID != "" {
		w.Header().Set(SessionHeader, resp.SessionID.String())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) getDID(w http.ResponseWriter, r *http.Request) {
	raw, err := url.PathUnescape(chi.URLParam(r, "did"))
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to parse DID: %v", err), http.StatusBadRequest)
		return
	}
	did, err := domain.ParseDID(raw)
	if err != nil {
		h.fail(w, err)
		return
	}
	res := h.dir.Lookup(did)
	switch res.Status {
	case registry.NotFound, registry.Invalid:
		writeError(w, http.StatusNotFound, domain.ErrIdentity)
		return
	}
	writeJSON(w, http.StatusOK, res.Record)
}

func (h *Handler) publishDID(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var pub publication
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&pub); err != nil {
		http.Error(w, fmt.Sprintf("Failed to parse record: %v", err), http.StatusBadRequest)
		return
	}
	rec, err := h.authn.AuthenticateRecord(pub.Payload, pub.Proof)
	if err != nil {
		h.fail(w, err)
		return
	}
	if prev := h.dir.Lookup(rec.DID); prev.Status != registry.NotFound && prev.Status != registry.Invalid &&
		prev.Record.SigningKey != rec.SigningKey {
		writeError(w, http.StatusConflict, domain.ErrIdentity)
		return
	}
	if err := h.dir.Register(rec); err != nil {
		h.fail(w, err)
		return
	}
	h.log.Info().Str("did", rec.DID.String()).Msg("identity published")
	w.WriteHeader(http.StatusNoContent)
}

// fail logs the detailed error and answers with its kind only.
func (h *Handler) fail(w http.ResponseWriter, err error) {
	code := StatusFor(err)
	h.log.Warn().Err(err).Str("kind", domain.Kind(err)).Int("status", code).Msg("request rejected")
	writeError(w, code, err)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, errorBody{Error: http.StatusText(code), Kind: domain.Kind(err)})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
