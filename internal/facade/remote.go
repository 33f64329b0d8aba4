package facade

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dave11k/flow-roll-app-sub001/internal/apperror"
	"github.com/dave11k/flow-roll-app-sub001/internal/model"
)

// Compile-time check that Remote satisfies the Service interface.
var _ Service = (*Remote)(nil)

// Remote speaks the JSON API of a flow-roll server. Transport failures and
// server faults fall back to the local service, so callers keep working
// while the remote backend is unreachable.
type Remote struct {
	baseURL  string
	client   *http.Client
	fallback *Local
	logger   *slog.Logger
}

// NewRemote creates a facade that routes calls to the server at baseURL.
func NewRemote(baseURL string, timeout time.Duration, fallback *Local, logger *slog.Logger) *Remote {
	return &Remote{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		fallback: fallback,
		logger:   logger,
	}
}

// transportError marks failures worth falling back over: unreachable host,
// timeout, or a server-side fault. Domain errors (404, 400) are not
// transport errors and propagate as-is.
type transportError struct {
	err error
}

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

// errorResponse is the error envelope every API endpoint uses.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// do performs one API call with the protocol and client version headers
// attached, decoding a JSON response into out when out is non-nil.
func (r *Remote) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("facade: encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("facade: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Protocol-Version", ProtocolVersion)
	req.Header.Set("X-Client-Version", ClientVersion)

	resp, err := r.client.Do(req)
	if err != nil {
		return &transportError{err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return &transportError{err: fmt.Errorf("facade: server returned %s", resp.Status)}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &transportError{err: fmt.Errorf("facade: decoding response: %w", err)}
	}
	return nil
}

// decodeAPIError converts a 4xx response back into the apperror taxonomy so
// remote and local failures look identical to callers.
func decodeAPIError(resp *http.Response) error {
	var body errorResponse
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body.Message == "" {
		body.Message = resp.Status
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return &apperror.AppError{Err: apperror.ErrNotFound, Message: body.Message}
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return &apperror.AppError{Err: apperror.ErrValidation, Message: body.Message}
	default:
		return fmt.Errorf("facade: server returned %s: %s", resp.Status, body.Message)
	}
}

// fallBack reports whether err warrants serving the call locally.
func (r *Remote) fallBack(op string, err error) bool {
	var te *transportError
	if !errors.As(err, &te) {
		return false
	}
	r.logger.Warn("remote backend unavailable, serving locally",
		slog.String("op", op),
		slog.String("error", err.Error()))
	return true
}

func (r *Remote) GetTechniques(ctx context.Context) ([]model.Technique, error) {
	var out []model.Technique
	err := r.do(ctx, http.MethodGet, "/api/v1/techniques", nil, &out)
	if err != nil {
		if r.fallBack("GetTechniques", err) {
			return r.fallback.GetTechniques(ctx)
		}
		return nil, err
	}
	return out, nil
}

func (r *Remote) SaveTechnique(ctx context.Context, technique *model.Technique) (*model.Technique, error) {
	method, path := http.MethodPost, "/api/v1/techniques"
	if technique.ID != "" {
		method, path = http.MethodPut, "/api/v1/techniques/"+technique.ID
	}
	var out model.Technique
	err := r.do(ctx, method, path, technique, &out)
	if err != nil {
		if r.fallBack("SaveTechnique", err) {
			return r.fallback.SaveTechnique(ctx, technique)
		}
		return nil, err
	}
	return &out, nil
}

func (r *Remote) DeleteTechnique(ctx context.Context, id string) error {
	err := r.do(ctx, http.MethodDelete, "/api/v1/techniques/"+id, nil, nil)
	if err != nil && r.fallBack("DeleteTechnique", err) {
		return r.fallback.DeleteTechnique(ctx, id)
	}
	return err
}

func (r *Remote) GetSessions(ctx context.Context) ([]model.TrainingSession, error) {
	var out []model.TrainingSession
	err := r.do(ctx, http.MethodGet, "/api/v1/sessions", nil, &out)
	if err != nil {
		if r.fallBack("GetSessions", err) {
			return r.fallback.GetSessions(ctx)
		}
		return nil, err
	}
	return out, nil
}

func (r *Remote) SaveSession(ctx context.Context, session *model.TrainingSession) (*model.TrainingSession, error) {
	method, path := http.MethodPost, "/api/v1/sessions"
	if session.ID != "" {
		method, path = http.MethodPut, "/api/v1/sessions/"+session.ID
	}
	var out model.TrainingSession
	err := r.do(ctx, method, path, session, &out)
	if err != nil {
		if r.fallBack("SaveSession", err) {
			return r.fallback.SaveSession(ctx, session)
		}
		return nil, err
	}
	return &out, nil
}

func (r *Remote) DeleteSession(ctx context.Context, id string) error {
	err := r.do(ctx, http.MethodDelete, "/api/v1/sessions/"+id, nil, nil)
	if err != nil && r.fallBack("DeleteSession", err) {
		return r.fallback.DeleteSession(ctx, id)
	}
	return err
}

func (r *Remote) GetProfile(ctx context.Context) (*model.UserProfile, error) {
	var out model.UserProfile
	err := r.do(ctx, http.MethodGet, "/api/v1/profile", nil, &out)
	if err != nil {
		if r.fallBack("GetProfile", err) {
			return r.fallback.GetProfile(ctx)
		}
		return nil, err
	}
	return &out, nil
}

func (r *Remote) SaveProfile(ctx context.Context, profile *model.UserProfile) (*model.UserProfile, error) {
	var out model.UserProfile
	err := r.do(ctx, http.MethodPut, "/api/v1/profile", profile, &out)
	if err != nil {
		if r.fallBack("SaveProfile", err) {
			return r.fallback.SaveProfile(ctx, profile)
		}
		return nil, err
	}
	return &out, nil
}

func (r *Remote) GetTags(ctx context.Context) ([]model.Tag, error) {
	var out []model.Tag
	err := r.do(ctx, http.MethodGet, "/api/v1/tags", nil, &out)
	if err != nil {
		if r.fallBack("GetTags", err) {
			return r.fallback.GetTags(ctx)
		}
		return nil, err
	}
	return out, nil
}

// HealthCheck reports the remote server's health. IsLocal is rewritten to
// false because the caller is not the process answering the probe. When the
// server is unreachable the local health is reported instead.
func (r *Remote) HealthCheck(ctx context.Context) (*Health, error) {
	var out Health
	err := r.do(ctx, http.MethodGet, "/api/v1/health", nil, &out)
	if err != nil {
		if r.fallBack("HealthCheck", err) {
			return r.fallback.HealthCheck(ctx)
		}
		return nil, err
	}
	out.IsLocal = false
	return &out, nil
}

func (r *Remote) CheckCompatibility(ctx context.Context) (*Compatibility, error) {
	var out Compatibility
	err := r.do(ctx, http.MethodGet, "/api/v1/compatibility", nil, &out)
	if err != nil {
		if r.fallBack("CheckCompatibility", err) {
			return r.fallback.CheckCompatibility(ctx)
		}
		return nil, err
	}
	return &out, nil
}
