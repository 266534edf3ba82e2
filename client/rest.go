package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	chatmodel "baatcheet/module/chat/model"
	usermodel "baatcheet/module/user/model"
	"baatcheet/tools/errs"
)

// REST is the HTTP side of the client: auth session (cookie jar), contact
// list, history and sends.
type REST struct {
	base string
	http *http.Client
}

func NewREST(baseURL string) (*REST, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errs.Wrap(err)
	}
	return &REST{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Jar: jar, Timeout: 15 * time.Second},
	}, nil
}

// BaseURL returns the server root this client talks to.
func (r *REST) BaseURL() string { return r.base }

func (r *REST) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body *bytes.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return errs.Wrap(err)
		}
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.base+path, body)
	if err != nil {
		return errs.Wrap(err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return errs.Wrap(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var ce errs.CodeError
		if derr := json.NewDecoder(resp.Body).Decode(&ce); derr == nil && ce.Code != 0 {
			return &ce
		}
		return errs.ErrInternal.WithDetail(fmt.Sprintf("%s %s: status %d", method, path, resp.StatusCode))
	}
	if out == nil {
		return nil
	}
	return errs.Wrap(json.NewDecoder(resp.Body).Decode(out))
}

type userEnvelope struct {
	User *usermodel.User `json:"user"`
}

func (r *REST) Signup(ctx context.Context, username, email, password string) (*usermodel.User, error) {
	var env userEnvelope
	err := r.doJSON(ctx, http.MethodPost, "/api/auth/signup",
		map[string]string{"username": username, "email": email, "password": password}, &env)
	if err != nil {
		return nil, err
	}
	return env.User, nil
}

// Login authenticates and stores the session cookie in the jar.
func (r *REST) Login(ctx context.Context, email, password string) (*usermodel.User, error) {
	var env userEnvelope
	err := r.doJSON(ctx, http.MethodPost, "/api/auth/login",
		map[string]string{"email": email, "password": password}, &env)
	if err != nil {
		return nil, err
	}
	return env.User, nil
}

func (r *REST) Logout(ctx context.Context) error {
	return r.doJSON(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

// CheckAuth restores a session from the cookie jar, if still valid.
func (r *REST) CheckAuth(ctx context.Context) (*usermodel.User, error) {
	var env userEnvelope
	if err := r.doJSON(ctx, http.MethodGet, "/api/auth/check-auth", nil, &env); err != nil {
		return nil, err
	}
	return env.User, nil
}

// Contacts fetches the contact list with last-message previews.
func (r *REST) Contacts(ctx context.Context) ([]chatmodel.ContactPreview, error) {
	var env struct {
		Users []chatmodel.ContactPreview `json:"users"`
	}
	if err := r.doJSON(ctx, http.MethodGet, "/api/messages/user", nil, &env); err != nil {
		return nil, err
	}
	return env.Users, nil
}

// History fetches the full ordered conversation with userID.
func (r *REST) History(ctx context.Context, userID string) ([]chatmodel.Message, error) {
	var env struct {
		Messages []chatmodel.Message `json:"messages"`
	}
	if err := r.doJSON(ctx, http.MethodGet, "/api/messages/"+userID, nil, &env); err != nil {
		return nil, err
	}
	return env.Messages, nil
}

// Send writes a message and returns the canonical persisted record with
// the server-assigned id and timestamp.
func (r *REST) Send(ctx context.Context, receiverID, text, image string) (*chatmodel.Message, error) {
	var env struct {
		Message *chatmodel.Message `json:"message"`
	}
	body := map[string]string{}
	if text != "" {
		body["text"] = text
	}
	if image != "" {
		body["image"] = image
	}
	if err := r.doJSON(ctx, http.MethodPost, "/api/messages/send/"+receiverID, body, &env); err != nil {
		return nil, err
	}
	return env.Message, nil
}
