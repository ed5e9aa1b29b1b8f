package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"

	"github.com/example/signlingo/internal/apperr"
	"github.com/example/signlingo/internal/progression"
	"github.com/example/signlingo/pkg/models"
)

type staticTokens map[string]string

func (s staticTokens) Token(_ context.Context, userID string) (string, error) {
	return s[userID], nil
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "abc",
		"exp":     exp.Unix(),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type fakeBackend struct {
	completions []progression.Completion
	feedback    []Feedback
	registered  int
	authHeader  string
}

func (f *fakeBackend) router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/lesson/{id:[0-9]+}", func(w http.ResponseWriter, req *http.Request) {
		if mux.Vars(req)["id"] == "404" {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Lesson not found"})
			return
		}
		writeJSON(w, http.StatusOK, models.LessonContent{
			Title: "Greetings",
			Signs: []models.SignItem{{Word: "HELLO", MediaType: models.MediaImage, MediaURL: "https://cdn/hello.png"}},
		})
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/quiz/{id:[0-9]+}", func(w http.ResponseWriter, req *http.Request) {
		if mux.Vars(req)["id"] == "500" {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "boom"})
			return
		}
		if mux.Vars(req)["id"] == "7" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"questions": [`))
			return
		}
		writeJSON(w, http.StatusOK, models.QuizContent{
			LessonID:       1,
			TotalQuestions: 1,
			Questions: []models.Question{{
				ID: 1, Type: models.QuestionPickSign, Prompt: "Which sign means HELLO?",
				CorrectAnswer: "HELLO", Options: []models.QuizOption{{Word: "HELLO"}, {Word: "BYE"}},
			}},
		})
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/lesson/complete", func(w http.ResponseWriter, req *http.Request) {
		f.authHeader = req.Header.Get("Authorization")
		var c progression.Completion
		if err := json.NewDecoder(req.Body).Decode(&c); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "bad body"})
			return
		}
		f.completions = append(f.completions, c)
		writeJSON(w, http.StatusOK, map[string]int{"new_total_xp": 110})
	}).Methods(http.MethodPost)
	r.HandleFunc("/login", func(w http.ResponseWriter, req *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(req.Body).Decode(&body)
		if body["password"] != "Secret#123" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message": "Login successful!",
			"token":   "tok",
			"user":    map[string]interface{}{"full_name": "Ada Lovelace", "email": body["email"], "xp": 40, "streak": 2},
		})
	}).Methods(http.MethodPost)
	r.HandleFunc("/register", func(w http.ResponseWriter, _ *http.Request) {
		f.registered++
		writeJSON(w, http.StatusCreated, map[string]string{"message": "User registered successfully!"})
	}).Methods(http.MethodPost)
	r.HandleFunc("/user/profile", func(w http.ResponseWriter, req *http.Request) {
		if !strings.HasPrefix(req.Header.Get("Authorization"), "Bearer ") {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"_id": "abc", "full_name": "Ada Lovelace", "xp": 250, "streak": 5, "joined_at": "2024-03-01T10:00:00.123456",
		})
	}).Methods(http.MethodGet)
	r.HandleFunc("/leaderboard", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Query().Get("period") != "weekly" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "unexpected period"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"players": []map[string]interface{}{
			{"_id": "1", "full_name": "Top", "xp": 900},
			{"_id": "2", "full_name": "Second", "xp": 500},
		}})
	}).Methods(http.MethodGet)
	r.HandleFunc("/feedback", func(w http.ResponseWriter, req *http.Request) {
		var fb Feedback
		_ = json.NewDecoder(req.Body).Decode(&fb)
		f.feedback = append(f.feedback, fb)
		writeJSON(w, http.StatusCreated, map[string]string{"message": "Feedback submitted successfully!"})
	}).Methods(http.MethodPost)
	return r
}

func newTestClient(t *testing.T, tokens TokenSource) (*Client, *fakeBackend) {
	t.Helper()
	backend := &fakeBackend{}
	srv := httptest.NewServer(backend.router())
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", 5*time.Second, tokens, nil), backend
}

func TestLessonContentAndQuiz(t *testing.T) {
	c, _ := newTestClient(t, nil)
	ctx := context.Background()

	content, err := c.LessonContent(ctx, 3)
	if err != nil {
		t.Fatalf("LessonContent: %v", err)
	}
	if content.LessonID != 3 || len(content.Signs) != 1 || content.Signs[0].Word != "HELLO" {
		t.Fatalf("unexpected content %+v", content)
	}

	q, err := c.Quiz(ctx, 1)
	if err != nil {
		t.Fatalf("Quiz: %v", err)
	}
	if len(q.Questions) != 1 || q.Questions[0].Prompt != "Which sign means HELLO?" {
		t.Fatalf("unexpected quiz %+v", q)
	}
}

func TestErrorKinds(t *testing.T) {
	c, _ := newTestClient(t, nil)
	ctx := context.Background()

	if _, err := c.LessonContent(ctx, 404); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("404: got %v", err)
	} else if !strings.Contains(err.Error(), "Lesson not found") {
		t.Fatalf("backend message lost: %v", err)
	}
	if _, err := c.Quiz(ctx, 500); !apperr.Is(err, apperr.Network) {
		t.Fatalf("500: got %v", err)
	}
	if _, err := c.Quiz(ctx, 7); !apperr.Is(err, apperr.Network) {
		t.Fatalf("truncated body: got %v", err)
	}

	dead := NewClient("http://127.0.0.1:1", time.Second, nil, nil)
	if _, err := dead.Quiz(ctx, 1); !apperr.Is(err, apperr.Network) {
		t.Fatalf("transport failure: got %v", err)
	}
}

func TestReportCompletion(t *testing.T) {
	token := signedToken(t, time.Now().Add(time.Hour))
	c, backend := newTestClient(t, staticTokens{"u1": token})

	receipt, err := c.ReportCompletion(context.Background(), "u1", progression.Completion{LessonID: 6, QuizScore: 60, XP: 20})
	if err != nil {
		t.Fatalf("ReportCompletion: %v", err)
	}
	if receipt.TotalXP != 110 {
		t.Fatalf("TotalXP = %d", receipt.TotalXP)
	}
	if len(backend.completions) != 1 || backend.completions[0] != (progression.Completion{LessonID: 6, QuizScore: 60, XP: 20}) {
		t.Fatalf("backend got %+v", backend.completions)
	}
	if backend.authHeader != "Bearer "+token {
		t.Fatalf("Authorization = %q", backend.authHeader)
	}
}

func TestReportCompletionWithoutValidToken(t *testing.T) {
	expiredToken := signedToken(t, time.Now().Add(-time.Minute))
	c, backend := newTestClient(t, staticTokens{"old": expiredToken})
	ctx := context.Background()

	_, err := c.ReportCompletion(ctx, "nobody", progression.Completion{LessonID: 1})
	if !apperr.Is(err, apperr.Unauthorized) || !errors.Is(err, ErrNoToken) {
		t.Fatalf("missing token: got %v", err)
	}
	if _, err := c.ReportCompletion(ctx, "old", progression.Completion{LessonID: 1}); !apperr.Is(err, apperr.Unauthorized) {
		t.Fatalf("expired token: got %v", err)
	}
	if len(backend.completions) != 0 {
		t.Fatalf("request sent without a valid token")
	}
}

func TestExpiredIgnoresOpaqueTokens(t *testing.T) {
	if expired("not-a-jwt", time.Now()) {
		t.Fatalf("opaque tokens are judged by the backend")
	}
	if expired(signedToken(t, time.Now().Add(time.Hour)), time.Now()) {
		t.Fatalf("fresh token reported expired")
	}
}

func TestLoginAndProfile(t *testing.T) {
	c, _ := newTestClient(t, staticTokens{"u1": "tok"})
	ctx := context.Background()

	res, err := c.Login(ctx, "ada@gmail.com", "Secret#123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Token != "tok" || res.Profile.FullName != "Ada Lovelace" || res.Profile.XP != 40 {
		t.Fatalf("unexpected login %+v", res)
	}

	if _, err := c.Login(ctx, "ada@gmail.com", "Wrong#1234"); !apperr.Is(err, apperr.Unauthorized) {
		t.Fatalf("bad credentials: got %v", err)
	}

	p, err := c.Profile(ctx, "u1")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if p.XP != 250 || p.Level() != 3 || p.JoinedAt == "" {
		t.Fatalf("unexpected profile %+v", p)
	}
}

func TestInvalidFormsNeverReachTheNetwork(t *testing.T) {
	c, backend := newTestClient(t, nil)
	ctx := context.Background()

	if err := c.Register(ctx, "Al", "al@gmail.com", "Secret#123"); !apperr.Is(err, apperr.Validation) {
		t.Fatalf("short name: got %v", err)
	}
	if _, err := c.Login(ctx, "ada@yahoo.com", "Secret#123"); !apperr.Is(err, apperr.Validation) {
		t.Fatalf("non gmail: got %v", err)
	}
	if backend.registered != 0 {
		t.Fatalf("invalid form was sent")
	}
	if err := c.Register(ctx, "Ada Lovelace", "ada@gmail.com", "Secret#123"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if backend.registered != 1 {
		t.Fatalf("registered = %d", backend.registered)
	}
}

func TestLeaderboard(t *testing.T) {
	c, _ := newTestClient(t, nil)
	players, err := c.Leaderboard(context.Background(), "weekly")
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(players) != 2 || players[0].FullName != "Top" || players[0].XP != 900 {
		t.Fatalf("unexpected players %+v", players)
	}
	if _, err := c.Leaderboard(context.Background(), ""); !apperr.Is(err, apperr.Validation) {
		t.Fatalf("allTime is rejected by the fake backend, got %v", err)
	}
}

func TestSubmitFeedbackSanitizes(t *testing.T) {
	c, backend := newTestClient(t, nil)
	ctx := context.Background()

	err := c.SubmitFeedback(ctx, Feedback{Message: `<script>alert(1)</script>Great <b>app</b>`, Rating: 9})
	if err != nil {
		t.Fatalf("SubmitFeedback: %v", err)
	}
	got := backend.feedback[0]
	if got.Message != "Great app" || got.Rating != 5 || got.Category != "general" || got.UserName != "Anonymous" {
		t.Fatalf("unexpected feedback %+v", got)
	}

	if err := c.SubmitFeedback(ctx, Feedback{Message: "<img src=x>"}); !apperr.Is(err, apperr.Validation) {
		t.Fatalf("markup-only message: got %v", err)
	}
	if len(backend.feedback) != 1 {
		t.Fatalf("empty feedback was sent")
	}
}
