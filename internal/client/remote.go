package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"secure-vault/internal/domain"
	"secure-vault/internal/service"
)

// RemoteBackend talks JSON to the account server. Base is the API root, e.g. http://localhost:3001/api.
type RemoteBackend struct {
	Base string
	HTTP *http.Client
}

func NewRemoteBackend(base string, httpClient *http.Client) *RemoteBackend {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &RemoteBackend{Base: base, HTTP: httpClient}
}

var _ Backend = (*RemoteBackend)(nil)

type wireUser struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
}

type wireAuth struct {
	User  wireUser `json:"user"`
	Token string   `json:"token"`
}

type wireFile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
	Date string `json:"date"`
}

type wireError struct {
	Message string `json:"message"`
}

func (c *RemoteBackend) Register(ctx context.Context, req RegisterRequest) (*domain.Session, error) {
	body := map[string]string{"name": req.Name, "email": req.Email, "password": req.Password}
	return c.authenticate(ctx, "/register", body)
}

func (c *RemoteBackend) Login(ctx context.Context, req LoginRequest) (*domain.Session, error) {
	body := map[string]string{"email": req.Email, "password": req.Password}
	return c.authenticate(ctx, "/login", body)
}

func (c *RemoteBackend) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	var out struct {
		User wireUser `json:"user"`
	}
	if err := c.getJSON(ctx, "/me", token, &out); err != nil {
		return nil, err
	}
	user, err := out.User.toDomain()
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *RemoteBackend) ListFiles(ctx context.Context, token string) ([]domain.FileItem, error) {
	var out []wireFile
	if err := c.getJSON(ctx, "/files", token, &out); err != nil {
		return nil, err
	}

	items := make([]domain.FileItem, len(out))
	for i, f := range out {
		items[i] = domain.FileItem{
			ID:   f.ID,
			Name: f.Name,
			Size: f.Size,
			Type: domain.FileType(f.Type),
		}
		if f.Date != "" {
			if d, err := time.Parse(time.DateOnly, f.Date); err == nil {
				items[i].ModifiedAt = d
			}
		}
	}
	return items, nil
}

func (c *RemoteBackend) Download(ctx context.Context, token, key string, w io.Writer) (int64, error) {
	resp, err := c.do(ctx, http.MethodGet, "/files/download?key="+url.QueryEscape(key), token, nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, decodeError(resp, true)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("%w: download %s: %v", ErrUnavailable, key, err)
	}
	return n, nil
}

func (c *RemoteBackend) authenticate(ctx context.Context, path string, body any) (*domain.Session, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, http.MethodPost, path, "", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, decodeError(resp, false)
	}

	var out wireAuth
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	user, err := out.User.toDomain()
	if err != nil {
		return nil, err
	}
	return &domain.Session{User: user, Token: out.Token}, nil
}

func (c *RemoteBackend) getJSON(ctx context.Context, path, token string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp, true)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return nil
}

func (c *RemoteBackend) do(ctx context.Context, method, path, token string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.Base+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}

// decodeError maps a failed response back onto the store's error kinds.
func decodeError(resp *http.Response, tokenRoute bool) error {
	var body wireError
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body)
	msg := body.Message
	if msg == "" {
		msg = resp.Status
	}

	var kind error
	switch {
	case resp.StatusCode == http.StatusBadRequest:
		kind = service.ErrValidation
	case resp.StatusCode == http.StatusUnauthorized && tokenRoute:
		kind = service.ErrInvalidToken
	case resp.StatusCode == http.StatusUnauthorized:
		kind = service.ErrInvalidCredentials
	case resp.StatusCode == http.StatusConflict:
		kind = service.ErrUserAlreadyExists
	case resp.StatusCode == http.StatusNotFound:
		kind = service.ErrNotFound
	case resp.StatusCode >= http.StatusInternalServerError:
		return &service.StorageError{Op: "server", Err: errors.New(msg)}
	default:
		kind = ErrUnavailable
	}
	return fmt.Errorf("%w: %s", kind, msg)
}

func (u wireUser) toDomain() (domain.User, error) {
	user := domain.User{ID: u.ID, Name: u.Name, Email: u.Email}
	if u.CreatedAt != "" {
		createdAt, err := time.Parse(time.RFC3339Nano, u.CreatedAt)
		if err != nil {
			return domain.User{}, fmt.Errorf("%w: bad createdAt %q", ErrUnavailable, u.CreatedAt)
		}
		user.CreatedAt = createdAt.UTC()
	}
	return user, nil
}
