// Package client is a typed HTTP client for the profile API. It implements
// profile.Session so the view-model and edit form can run against a remote
// server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
	"go.uber.org/zap"

	applog "github.com/janisto/profile-sync/internal/platform/logging"
	"github.com/janisto/profile-sync/internal/platform/timeutil"
	"github.com/janisto/profile-sync/internal/profileform"
	"github.com/janisto/profile-sync/internal/service/profile"
)

const (
	// DefaultTimeout bounds every request.
	DefaultTimeout = 30 * time.Second
	defaultBaseURL = "http://localhost:8080"
	userAgent      = "profilectl"

	acceptCBOR = "application/cbor, application/json;q=0.9"
	acceptJSON = "application/json"
)

// ErrUnauthorized means the server rejected the bearer token.
var ErrUnauthorized = errors.New("unauthorized")

// Client calls the profile API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	accept     string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the API endpoint.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithToken sets the Bearer token for authenticated requests.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithJSON asks the server for JSON instead of CBOR.
func WithJSON() Option {
	return func(c *Client) {
		c.accept = acceptJSON
	}
}

// NewClient creates a profile API client. A nil httpClient gets one with
// DefaultTimeout.
func NewClient(httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	c := &Client{
		httpClient: httpClient,
		baseURL:    defaultBaseURL,
		accept:     acceptCBOR,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// API payloads. CBOR falls back to the json tags.
type wireProfile struct {
	ID        string         `json:"id"`
	FullName  string         `json:"fullName"`
	Email     string         `json:"email"`
	Phone     string         `json:"phone"`
	Address1  string         `json:"address1"`
	Address2  string         `json:"address2"`
	AvatarURL string         `json:"avatarUrl,omitempty"`
	UpdatedAt *timeutil.Time `json:"updatedAt,omitempty"`
}

type wireUpdate struct {
	FullName *string `json:"fullName,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Address1 *string `json:"address1,omitempty"`
	Address2 *string `json:"address2,omitempty"`
}

type wireAvatar struct {
	AvatarURL string `json:"avatarUrl"`
}

type wireProblem struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
	Errors []struct {
		Message  string `json:"message"`
		Location string `json:"location"`
	} `json:"errors"`
}

func (w *wireProfile) snapshot() *profile.Snapshot {
	s := &profile.Snapshot{
		UserID:    w.ID,
		FullName:  w.FullName,
		Email:     w.Email,
		Phone:     w.Phone,
		Address1:  w.Address1,
		Address2:  w.Address2,
		AvatarURL: w.AvatarURL,
	}
	if w.UpdatedAt != nil {
		s.UpdatedAt = w.UpdatedAt.Time
	}
	return s
}

// FetchProfile calls GET /profile.
func (c *Client) FetchProfile(ctx context.Context) (*profile.Snapshot, error) {
	var out wireProfile
	if err := c.call(ctx, http.MethodGet, "/profile", nil, "", &out, opFetch); err != nil {
		return nil, err
	}
	return out.snapshot(), nil
}

// UpdateProfile calls PATCH /profile. A 422 response is returned as a
// *profileform.ValidationError.
func (c *Client) UpdateProfile(ctx context.Context, fields profile.Fields) (*profile.Snapshot, error) {
	body, err := json.Marshal(wireUpdate{
		FullName: fields.FullName,
		Phone:    fields.Phone,
		Address1: fields.Address1,
		Address2: fields.Address2,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding update: %w", err)
	}

	var out wireProfile
	err = c.call(ctx, http.MethodPatch, "/profile", body, "application/json", &out, opUpdate)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnprocessableEntity {
			if verr := validationErrorFrom(apiErr.problem, fields); verr != nil {
				return nil, verr
			}
		}
		return nil, err
	}
	return out.snapshot(), nil
}

// ReplaceAvatar calls PUT /profile/avatar with the raw image.
func (c *Client) ReplaceAvatar(ctx context.Context, img profile.Image) (string, error) {
	contentType := img.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(img.Data)
	}
	var out wireAvatar
	if err := c.call(ctx, http.MethodPut, "/profile/avatar", img.Data, contentType, &out, opAvatar); err != nil {
		return "", err
	}
	return out.AvatarURL, nil
}

// EndSession calls DELETE /session.
func (c *Client) EndSession(ctx context.Context) error {
	return c.call(ctx, http.MethodDelete, "/session", nil, "", nil, opSession)
}

func (c *Client) call(
	ctx context.Context,
	method, path string,
	body []byte,
	contentType string,
	target any,
	op operation,
) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", c.accept)
	req.Header.Set("User-Agent", userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		applog.LogWarn(ctx, "profile api request failed",
			zap.String("method", method), zap.String("path", path), zap.Error(err))
		return op.transportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if target == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}
		if err := decodeBody(resp, target); err != nil {
			return op.transportError(fmt.Errorf("decoding response: %w", err))
		}
		return nil
	}

	apiErr := &APIError{Status: resp.StatusCode}
	var p wireProblem
	if err := decodeBody(resp, &p); err == nil {
		apiErr.Title = p.Title
		apiErr.Detail = p.Detail
		apiErr.problem = p
	}
	apiErr.cause = op.statusCause(resp.StatusCode)

	applog.LogWarn(ctx, "profile api error",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.String("detail", apiErr.Detail),
	)
	return apiErr
}

func decodeBody(resp *http.Response, target any) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if strings.HasSuffix(mediaType, "cbor") {
		return cbor.Unmarshal(data, target)
	}
	return json.Unmarshal(data, target)
}

// validationErrorFrom maps problem details onto form issues. Each detail's
// rule is recovered by re-running the local rule on the submitted value.
func validationErrorFrom(p wireProblem, fields profile.Fields) *profileform.ValidationError {
	sent := map[profileform.Field]*string{
		profileform.FieldFullName: fields.FullName,
		profileform.FieldPhone:    fields.Phone,
		profileform.FieldAddress1: fields.Address1,
		profileform.FieldAddress2: fields.Address2,
	}
	result := profileform.ValidationResult{}
	for _, d := range p.Errors {
		f, err := profileform.ParseField(strings.TrimPrefix(d.Location, "body."))
		if err != nil {
			continue
		}
		issue := profileform.Issue{Rule: profileform.RuleInvalidFormat, Message: d.Message}
		if v := sent[f]; v != nil {
			if local, bad := profileform.ValidateField(f, *v); bad {
				issue = local
			}
		}
		result[f] = issue
	}
	if len(result) == 0 {
		return nil
	}
	return &profileform.ValidationError{Result: result}
}

var _ profile.Session = (*Client)(nil)
