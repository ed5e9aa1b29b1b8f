// Package api is the client of the Sign-Lingo REST backend. It provides the
// lesson content, quizzes and completion reporting used by the tracker when a
// backend is configured, plus account endpoints for the bot.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/microcosm-cc/bluemonday"

	"github.com/example/signlingo/internal/apperr"
	"github.com/example/signlingo/internal/logger"
	"github.com/example/signlingo/internal/progression"
	"github.com/example/signlingo/internal/validation"
	"github.com/example/signlingo/pkg/models"
)

// ErrNoToken is returned by authenticated calls for a logged out user
var ErrNoToken = errors.New("not logged in")

// TokenSource looks up a user's session token, empty when logged out
type TokenSource interface {
	Token(ctx context.Context, userID string) (string, error)
}

// Client talks JSON to the backend
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	policy  *bluemonday.Policy
	log     *logger.Logger
	now     func() time.Time
}

// NewClient creates a client for baseURL. tokens may be nil when only
// public endpoints are used.
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		policy:  bluemonday.StrictPolicy(),
		log:     log,
		now:     time.Now,
	}
}

// AuthResult is the answer to a successful login
type AuthResult struct {
	Token   string             `json:"token"`
	Profile models.UserProfile `json:"user"`
}

// Feedback is a message sent from the feedback form
type Feedback struct {
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
	Rating    int    `json:"rating"`
	Category  string `json:"category"`
	Message   string `json:"message"`
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

type completionResponse struct {
	NewTotalXP int `json:"new_total_xp"`
	Streak     int `json:"streak"`
}

type leaderboardResponse struct {
	Players []models.LeaderboardEntry `json:"players"`
}

// Register creates an account. The form is validated locally and nothing
// is sent when it is invalid.
func (c *Client) Register(ctx context.Context, fullName, email, password string) error {
	if err := validation.Registration(fullName, email, password); err != nil {
		return err
	}
	body := map[string]string{
		"full_name": strings.TrimSpace(fullName),
		"email":     strings.TrimSpace(email),
		"password":  password,
	}
	return c.do(ctx, "register", http.MethodPost, "/register", "", body, nil)
}

// Login exchanges credentials for a session token and the user's profile
func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	if err := validation.Login(email, password); err != nil {
		return AuthResult{}, err
	}
	var res AuthResult
	body := map[string]string{"email": strings.TrimSpace(email), "password": password}
	if err := c.do(ctx, "login", http.MethodPost, "/login", "", body, &res); err != nil {
		return AuthResult{}, err
	}
	if res.Token == "" {
		return AuthResult{}, apperr.New(apperr.Network, "login", "response carries no token")
	}
	return res, nil
}

// Profile fetches the authoritative profile of a logged in user
func (c *Client) Profile(ctx context.Context, userID string) (models.UserProfile, error) {
	token, err := c.token(ctx, "profile", userID)
	if err != nil {
		return models.UserProfile{}, err
	}
	var p models.UserProfile
	if err := c.do(ctx, "profile", http.MethodGet, "/user/profile", token, nil, &p); err != nil {
		return models.UserProfile{}, err
	}
	return p, nil
}

// Leaderboard returns players ordered by xp. period is one of the backend's
// periods (weekly, monthly, allTime); empty means allTime.
func (c *Client) Leaderboard(ctx context.Context, period string) ([]models.LeaderboardEntry, error) {
	if period == "" {
		period = "allTime"
	}
	var res leaderboardResponse
	path := "/leaderboard?period=" + url.QueryEscape(period)
	if err := c.do(ctx, "leaderboard", http.MethodGet, path, "", nil, &res); err != nil {
		return nil, err
	}
	return res.Players, nil
}

// LessonContent implements progression.ContentProvider
func (c *Client) LessonContent(ctx context.Context, lessonID int64) (models.LessonContent, error) {
	var content models.LessonContent
	path := "/api/lesson/" + strconv.FormatInt(lessonID, 10)
	if err := c.do(ctx, "lesson content", http.MethodGet, path, "", nil, &content); err != nil {
		return models.LessonContent{}, err
	}
	if content.LessonID == 0 {
		content.LessonID = lessonID
	}
	return content, nil
}

// Quiz implements progression.QuizProvider
func (c *Client) Quiz(ctx context.Context, lessonID int64) (models.QuizContent, error) {
	var content models.QuizContent
	path := "/api/quiz/" + strconv.FormatInt(lessonID, 10)
	if err := c.do(ctx, "quiz", http.MethodGet, path, "", nil, &content); err != nil {
		return models.QuizContent{}, err
	}
	if content.LessonID == 0 {
		content.LessonID = lessonID
	}
	return content, nil
}

// ReportCompletion implements progression.CompletionReporter
func (c *Client) ReportCompletion(ctx context.Context, userID string, done progression.Completion) (progression.Receipt, error) {
	token, err := c.token(ctx, "complete lesson", userID)
	if err != nil {
		return progression.Receipt{}, err
	}
	var res completionResponse
	if err := c.do(ctx, "complete lesson", http.MethodPost, "/api/lesson/complete", token, done, &res); err != nil {
		return progression.Receipt{}, err
	}
	c.log.Debug("completion reported", "user_id", userID, "lesson_id", done.LessonID, "total_xp", res.NewTotalXP)
	return progression.Receipt{TotalXP: res.NewTotalXP, Streak: res.Streak}, nil
}

// SubmitFeedback sends feedback with markup stripped from the message
func (c *Client) SubmitFeedback(ctx context.Context, fb Feedback) error {
	fb.Message = strings.TrimSpace(c.policy.Sanitize(fb.Message))
	if fb.Message == "" {
		return apperr.New(apperr.Validation, "feedback", validation.MsgRequired)
	}
	if fb.Rating < 1 || fb.Rating > 5 {
		fb.Rating = 5
	}
	if fb.Category == "" {
		fb.Category = "general"
	}
	if fb.UserName == "" {
		fb.UserName = "Anonymous"
	}
	fb.UserName = c.policy.Sanitize(fb.UserName)
	return c.do(ctx, "feedback", http.MethodPost, "/feedback", "", fb, nil)
}

// token returns the stored token, rejecting it early when its exp claim
// has already passed. The signature is the backend's business.
func (c *Client) token(ctx context.Context, op, userID string) (string, error) {
	if c.tokens == nil {
		return "", apperr.Wrap(apperr.Unauthorized, op, ErrNoToken)
	}
	token, err := c.tokens.Token(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	if token == "" {
		return "", apperr.Wrap(apperr.Unauthorized, op, ErrNoToken)
	}
	if expired(token, c.now()) {
		return "", apperr.New(apperr.Unauthorized, op, "session expired")
	}
	return token, nil
}

// expired reports whether a JWT carries an exp before now. Tokens that are
// not JWTs are left for the backend to judge.
func expired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(now)
}

func (c *Client) do(ctx context.Context, op, method, path, token string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return apperr.Wrap(apperr.Internal, op, fmt.Errorf("failed to marshal request: %w", err))
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return apperr.Wrap(apperr.Internal, op, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.Network, op, fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Wrap(apperr.Network, op, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn("backend request failed", "op", op, "method", method, "path", path, "status", resp.StatusCode)
		return apperr.Wrap(statusKind(resp.StatusCode), op, fmt.Errorf("HTTP %d: %s", resp.StatusCode, errorMessage(data, resp.Status)))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperr.Wrap(apperr.Network, op, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

func statusKind(status int) apperr.Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperr.Unauthorized
	case status == http.StatusNotFound:
		return apperr.NotFound
	case status == http.StatusBadRequest || status == http.StatusConflict || status == http.StatusUnprocessableEntity:
		return apperr.Validation
	default:
		return apperr.Network
	}
}

func errorMessage(data []byte, fallback string) string {
	var e errorResponse
	if json.Unmarshal(data, &e) == nil {
		if e.Message != "" {
			return e.Message
		}
		if e.Error != "" {
			return e.Error
		}
	}
	return fallback
}
