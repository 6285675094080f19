// Package mfoapi is the typed HTTP client for the remote reward service.
// All JSON responses parse into an envelope before interpretation; the
// orchestrator never sees a raw body.
package mfoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/mfo-tools/mfo-claim/internal/domain"
	"github.com/mfo-tools/mfo-claim/internal/signin"
)

// DefaultBaseURL is the production origin of the reward service
const DefaultBaseURL = "http://mfapi.818long.com"

// Client talks to the reward service. The underlying http.Client carries a
// cookie jar because the service requires session continuity across the
// calls of a single run.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client against baseURL with a bounded per-call timeout
func New(baseURL string, timeout time.Duration) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
	}, nil
}

// envelope is the common JSON response shape of the service
type envelope struct {
	State int             `json:"state"`
	Msg   string          `json:"msg"`
	Data  json.RawMessage `json:"data"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Code     string `json:"code"`
	Type     int    `json:"type"`
	Source   string `json:"source"`
}

type loginData struct {
	Token  string      `json:"token"`
	UserID json.Number `json:"userId"`
}

type statusRequest struct {
	ActivityName string      `json:"activityName"`
	UserID       json.Number `json:"userId"`
	Platform     string      `json:"platForm"`
}

type statusData struct {
	SignDay *int `json:"signDay"`
}

type signinRequest struct {
	DateNo     int         `json:"dateNo"`
	UserID     json.Number `json:"userId"`
	Platform   string      `json:"platForm"`
	SignInType int         `json:"signInType"`
}

type bonusRequest struct {
	Month    string      `json:"month"`
	Platform string      `json:"platForm"`
	UserID   json.Number `json:"userId"`
}

type taskRequest struct {
	TaskID   int         `json:"taskId"`
	Platform string      `json:"platForm"`
	UserID   json.Number `json:"userId"`
}

// FetchCaptcha retrieves a fresh captcha challenge image
func (c *Client) FetchCaptcha(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/webapi/login/getCaptcha", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch captcha: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch captcha: HTTP %d", resp.StatusCode)
	}

	img, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read captcha image: %w", err)
	}
	return img, nil
}

// Login authenticates with the captcha answer. A non-nil error means the
// service was unreachable or sent garbage (transport); a non-success
// outcome with nil error is a server-side rejection.
func (c *Client) Login(ctx context.Context, account domain.Account, code string) (domain.Session, domain.Outcome, error) {
	env, err := c.post(ctx, "/webapi/login/doLogin", "", loginRequest{
		Username: account.Username,
		Password: account.Password,
		Code:     code,
		Type:     1,
		Source:   "web",
	})
	if err != nil {
		return domain.Session{}, domain.OutcomeTransport, err
	}

	outcome := ClassifyState(env.State)
	if outcome != domain.OutcomeSuccess {
		return domain.Session{}, outcome, nil
	}

	var data loginData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return domain.Session{}, domain.OutcomeTransport, fmt.Errorf("parse login data: %w", err)
	}
	if data.Token == "" || data.UserID.String() == "" {
		return domain.Session{}, domain.OutcomeUnknown, nil
	}

	return domain.Session{Token: data.Token, UserID: data.UserID.String()}, domain.OutcomeSuccess, nil
}

// SignInStatus returns the count of days already checked in this month
func (c *Client) SignInStatus(ctx context.Context, session domain.Session) (int, domain.Outcome, error) {
	env, err := c.post(ctx, "/webapi/signIn/getSignInList", session.Token, statusRequest{
		ActivityName: "signin",
		UserID:       json.Number(session.UserID),
		Platform:     "web",
	})
	if err != nil {
		return 0, domain.OutcomeTransport, err
	}

	outcome := ClassifyState(env.State)
	if outcome != domain.OutcomeSuccess {
		return 0, outcome, nil
	}

	var data statusData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return 0, domain.OutcomeTransport, fmt.Errorf("parse sign-in status: %w", err)
	}
	if data.SignDay == nil {
		return 0, domain.OutcomeUnknown, nil
	}

	return *data.SignDay, domain.OutcomeSuccess, nil
}

// SignIn submits the check-in for dayNo
func (c *Client) SignIn(ctx context.Context, session domain.Session, dayNo int, kind signin.Kind) (domain.Outcome, error) {
	env, err := c.post(ctx, "/webapi/signIn/doSignin", session.Token, signinRequest{
		DateNo:     dayNo,
		UserID:     json.Number(session.UserID),
		Platform:   "web",
		SignInType: int(kind),
	})
	if err != nil {
		return domain.OutcomeTransport, err
	}
	return ClassifyState(env.State), nil
}

// ClaimMonthBonus claims the month-completion bonus for month (YYYYMM)
func (c *Client) ClaimMonthBonus(ctx context.Context, session domain.Session, month string) (domain.Outcome, error) {
	env, err := c.post(ctx, "/webapi/signIn/getfullPrize", session.Token, bonusRequest{
		Month:    month,
		Platform: "web",
		UserID:   json.Number(session.UserID),
	})
	if err != nil {
		return domain.OutcomeTransport, err
	}
	return ClassifyState(env.State), nil
}

// ClaimTaskPrize claims the recurring daily task reward
func (c *Client) ClaimTaskPrize(ctx context.Context, session domain.Session) (domain.Outcome, error) {
	env, err := c.post(ctx, "/webapi/task/getTaskPrize", session.Token, taskRequest{
		TaskID:   1,
		Platform: "web",
		UserID:   json.Number(session.UserID),
	})
	if err != nil {
		return domain.OutcomeTransport, err
	}
	return ClassifyState(env.State), nil
}

// post sends a JSON request and parses the response envelope. The token,
// when non-empty, goes out as the service's custom `token` header.
func (c *Client) post(ctx context.Context, path, token string, body interface{}) (*envelope, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("token", token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w (body: %s)", err, string(raw))
	}

	return &env, nil
}
