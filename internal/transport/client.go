package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"agentlink/internal/domain"
	"agentlink/internal/services/auth"
)

// DefaultTimeout bounds a single request when the caller's context has no
// deadline of its own.
const DefaultTimeout = 30 * time.Second

// HTTP talks to a remote agentd.
type HTTP struct {
	Base string
	HTTP *http.Client

	signer []byte
}

// ClientOption configures an HTTP client.
type ClientOption func(*HTTP)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(c *http.Client) ClientOption { return func(h *HTTP) { h.HTTP = c } }

// WithSigner sets the Ed25519 seed used to prove possession when publishing.
func WithSigner(seed []byte) ClientOption {
	return func(h *HTTP) { h.signer = append([]byte(nil), seed...) }
}

// NewHTTP returns a client for base, e.g. "http://127.0.0.1:8080".
func NewHTTP(base string, opts ...ClientOption) *HTTP {
	c := &HTTP{
		Base: strings.TrimRight(base, "/"),
		HTTP: &http.Client{Timeout: DefaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Send posts env to the peer. sessionID is empty for handshakes.
func (c *HTTP) Send(ctx context.Context, env domain.Envelope, sessionID domain.SessionID) (domain.Response, error) {
	var hdr http.Header
	if sessionID != "" {
		hdr = http.Header{SessionHeader: []string{sessionID.String()}}
	}
	var out domain.Response
	if err := c.do(ctx, http.MethodPost, SendPath, hdr, env, &out); err != nil {
		return domain.Response{}, err
	}
	return out, nil
}

// Resolve fetches the record for did. An unknown DID is an ErrIdentity.
func (c *HTTP) Resolve(ctx context.Context, did domain.DID) (domain.IdentityRecord, error) {
	var out domain.IdentityRecord
	if err := c.do(ctx, http.MethodGet, DIDPath+"/"+url.PathEscape(did.String()), nil, nil, &out); err != nil {
		return domain.IdentityRecord{}, err
	}
	if out.DID != did {
		return domain.IdentityRecord{}, fmt.Errorf("resolve %s: directory answered for %s: %w", did, out.DID, domain.ErrIdentity)
	}
	return out, nil
}

// Publish uploads rec as a claim stamped now and signed by the configured
// signer.
func (c *HTTP) Publish(ctx context.Context, rec domain.IdentityRecord) error {
	if len(c.signer) == 0 {
		return fmt.Errorf("publish %s: no signing key configured: %w", rec.DID, domain.ErrIdentity)
	}
	payload, proof, err := auth.SignRecord(rec, time.Now().Unix(), c.signer)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, DIDPath, nil, publication{Payload: payload, Proof: proof}, nil)
}

// Health reports whether the peer answers its health probe.
func (c *HTTP) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, HealthPath, nil, nil, nil)
}

func (c *HTTP) do(ctx context.Context, method, path string, hdr http.Header, in, out any) error {
	var body *bytes.Buffer
	if in != nil {
		body = new(bytes.Buffer)
		if err := json.NewEncoder(body).Encode(in); err != nil {
			return fmt.Errorf("%s %s: encode: %v: %w", method, path, err, domain.ErrTransport)
		}
	}
	req, err := newRequest(ctx, method, c.Base+path, body)
	if err != nil {
		return fmt.Errorf("%s %s: %v: %w", method, path, err, domain.ErrTransport)
	}
	for k, v := range hdr {
		req.Header[k] = v
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %v: %w", method, path, err, domain.ErrTransport)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return remoteError(method, path, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode: %v: %w", method, path, err, domain.ErrTransport)
	}
	return nil
}

func newRequest(ctx context.Context, method, u string, body *bytes.Buffer) (*http.Request, error) {
	if body == nil {
		return http.NewRequestWithContext(ctx, method, u, nil)
	}
	return http.NewRequestWithContext(ctx, method, u, body)
}

// remoteError rebuilds the domain error kind the server reported.
func remoteError(method, path string, resp *http.Response) error {
	var eb errorBody
	_ = json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&eb)
	kind := domain.ForKind(eb.Kind)
	if kind == nil {
		kind = domain.ErrTransport
	}
	msg := eb.Error
	if msg == "" {
		msg = resp.Status
	}
	return fmt.Errorf("%s %s: %s: %w", method, path, msg, kind)
}

var (
	_ domain.Transport         = (*HTTP)(nil)
	_ domain.IdentitySource    = (*HTTP)(nil)
	_ domain.IdentityPublisher = (*HTTP)(nil)
)
