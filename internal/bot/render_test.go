package bot

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/example/signlingo/internal/apperr"
	"github.com/example/signlingo/internal/progression"
	"github.com/example/signlingo/internal/quiz"
	"github.com/example/signlingo/pkg/models"
)

func TestParseAction(t *testing.T) {
	act := parseAction("ans:1a2b3c4d:2:3")
	if act.Name != actionAnswer || act.arg(0) != "1a2b3c4d" {
		t.Fatalf("parseAction = %+v", act)
	}
	if v, ok := act.intArg(2); !ok || v != 3 {
		t.Fatalf("intArg(2) = %d, %v", v, ok)
	}
	if _, ok := act.intArg(5); ok {
		t.Fatalf("missing argument parsed")
	}
	if act.arg(-1) != "" {
		t.Fatalf("negative index returned an argument")
	}

	bare := parseAction("menu")
	if bare.Name != actionMenu || len(bare.Args) != 0 {
		t.Fatalf("parseAction(menu) = %+v", bare)
	}
	if _, ok := parseAction("lesson:abc").intArg(0); ok {
		t.Fatalf("non numeric lesson id parsed")
	}
}

func TestCallbackDataFitsTelegramLimit(t *testing.T) {
	s, err := quiz.NewSession(models.QuizContent{LessonID: 43, Questions: []models.Question{{
		CorrectAnswer: "A", Options: []models.QuizOption{{Word: "A"}, {Word: "B"}},
	}}})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	data := callbackData(actionAnswer, sessionTag(s), 12, 3)
	if len(data) > 64 {
		t.Fatalf("callback data %q is longer than 64 bytes", data)
	}
	if got := parseAction(data); got.arg(0) != sessionTag(s) {
		t.Fatalf("tag lost: %q", data)
	}
}

func units(completed ...int64) []models.Unit {
	done := make(map[int64]bool)
	for _, id := range completed {
		done[id] = true
	}
	out := []models.Unit{
		{ID: 1, Title: "Greetings", Icon: "hand-left", Lessons: []models.Lesson{{ID: 1, Title: "Hello"}, {ID: 2, Title: "Yes & No"}}},
		{ID: 2, Title: "Letters", Icon: "text", Lessons: []models.Lesson{{ID: 3, Title: "A, B, C"}}},
	}
	for i := range out {
		for j := range out[i].Lessons {
			out[i].Lessons[j].Completed = done[out[i].Lessons[j].ID]
		}
	}
	return out
}

func lessonButtons(buttons [][]MenuButton) map[string]bool {
	out := make(map[string]bool)
	for _, row := range buttons {
		for _, b := range row {
			if strings.HasPrefix(b.CallbackData, actionLesson+":") {
				out[b.CallbackData] = true
			}
		}
	}
	return out
}

func TestRenderMapOnlyOffersSelectableLessons(t *testing.T) {
	text, buttons := renderMap(units())
	got := lessonButtons(buttons)
	if len(got) != 1 || !got["lesson:1"] {
		t.Fatalf("fresh map buttons = %v", got)
	}
	if !strings.Contains(text, "Completed 0/3 lessons") || !strings.Contains(text, "🔒 A, B, C") {
		t.Fatalf("fresh map text:\n%s", text)
	}
	if !strings.Contains(text, "👋 Greetings") {
		t.Fatalf("unit icon not rendered:\n%s", text)
	}

	text, buttons = renderMap(units(1, 2))
	got = lessonButtons(buttons)
	for _, want := range []string{"lesson:1", "lesson:2", "lesson:3"} {
		if !got[want] {
			t.Fatalf("missing %s in %v", want, got)
		}
	}
	if !strings.Contains(text, "✅ Hello") || !strings.Contains(text, "▶️ A, B, C") {
		t.Fatalf("progress map text:\n%s", text)
	}
	if strings.Contains(text, "Letters 🔒") {
		t.Fatalf("unit 2 shown locked after unit 1 was completed:\n%s", text)
	}
}

func TestRenderCardNavigation(t *testing.T) {
	content := models.LessonContent{LessonID: 5, Title: "Yes & No", Signs: []models.SignItem{
		{Word: "YES", Display: "Yes"}, {Word: "NO", Display: "No"},
	}}

	text, buttons := renderCard(content, 0)
	if !strings.Contains(text, "(1/2)") || !strings.Contains(text, "Yes") {
		t.Fatalf("first card text = %q", text)
	}
	if len(buttons[0]) != 1 || buttons[0][0].CallbackData != "card:5:1" {
		t.Fatalf("first card nav = %+v", buttons[0])
	}

	_, buttons = renderCard(content, 1)
	if len(buttons[0]) != 2 || buttons[0][0].CallbackData != "card:5:0" || buttons[0][1].CallbackData != "quiz:5" {
		t.Fatalf("last card nav = %+v", buttons[0])
	}
}

func TestRenderQuestion(t *testing.T) {
	s, err := quiz.NewSession(models.QuizContent{LessonID: 7, Questions: []models.Question{
		{Type: models.QuestionPickSign, Prompt: "Which sign means \"A\"?", CorrectAnswer: "A", Options: []models.QuizOption{
			{Word: "A", Display: "A", MediaURL: "https://cdn.example.com/a.png"},
			{Word: "B", Display: "B", MediaURL: "https://cdn.example.com/b.png"},
			{Word: "C", Display: "C"},
		}},
		{Type: models.QuestionPickWord, Prompt: "What does this sign mean?", CorrectAnswer: "B", Options: []models.QuizOption{
			{Word: "A", Display: "A"}, {Word: "B", Display: "B"},
		}},
	}})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	text, buttons := renderQuestion(s)
	if !strings.Contains(text, "Question 1/2") || !strings.Contains(text, "❤️❤️❤️") {
		t.Fatalf("question text = %q", text)
	}
	if len(buttons) != 2 || len(buttons[0]) != 2 || len(buttons[1]) != 1 {
		t.Fatalf("option rows = %+v", buttons)
	}
	// pictures are numbered, options without one keep their label
	if buttons[0][0].Text != "1" || buttons[0][1].Text != "2" || buttons[1][0].Text != "C" {
		t.Fatalf("labels = %+v", buttons)
	}
	want := fmt.Sprintf("ans:%s:0:2", sessionTag(s))
	if buttons[1][0].CallbackData != want {
		t.Fatalf("callback = %q, want %q", buttons[1][0].CallbackData, want)
	}

	s.Submit("C")
	s.Advance()
	text, _ = renderQuestion(s)
	if !strings.Contains(text, "❤️❤️🤍") || !strings.Contains(text, "sign picture unavailable") {
		t.Fatalf("second question text = %q", text)
	}
}

func TestRenderDescribeQuestion(t *testing.T) {
	s, err := quiz.NewSession(models.QuizContent{LessonID: 1, Questions: []models.Question{
		{Type: models.QuestionDescribe, Prompt: "Which sign is made this way?\nFlat hand rubs a circle on the chest.", CorrectAnswer: "PLEASE",
			Options: []models.QuizOption{{Word: "PLEASE", Display: "Please"}, {Word: "SORRY", Display: "Sorry"}}},
	}})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	text, buttons := renderQuestion(s)
	if strings.Contains(text, "unavailable") || !strings.Contains(text, "rubs a circle") {
		t.Fatalf("question text = %q", text)
	}
	if buttons[0][0].Text != "Please" || buttons[0][1].Text != "Sorry" {
		t.Fatalf("labels = %+v", buttons)
	}
}

func TestHeartsBar(t *testing.T) {
	tests := []struct {
		hearts int
		want   string
	}{
		{3, "❤️❤️❤️"},
		{1, "❤️🤍🤍"},
		{0, "🤍🤍🤍"},
		{-1, "🤍🤍🤍"},
		{5, "❤️❤️❤️"},
	}
	for _, tt := range tests {
		if got := heartsBar(tt.hearts); got != tt.want {
			t.Errorf("heartsBar(%d) = %q, want %q", tt.hearts, got, tt.want)
		}
	}
}

func TestRenderResult(t *testing.T) {
	lesson := models.Lesson{ID: 1, Title: "Hello"}
	next := models.Lesson{ID: 2, Title: "Yes & No"}
	passed := progression.Outcome{
		Result:          quiz.Result{Score: 2, Total: 2, Hearts: 3, Percentage: 100, Passed: true, Finished: true},
		Profile:         models.UserProfile{XP: 110},
		XPEarned:        10,
		LevelUp:         true,
		NewAchievements: []progression.Achievement{{Icon: "🎯", Title: "First Steps"}},
	}
	text, buttons := renderResult(passed, lesson, next, true, "abcd1234")
	for _, want := range []string{"Lesson complete", "2/2 (100%)", "+10 (total 110)", "level 2", "First Steps"} {
		if !strings.Contains(text, want) {
			t.Fatalf("result text misses %q:\n%s", want, text)
		}
	}
	if buttons[0][0].CallbackData != "retry:abcd1234" || buttons[1][0].CallbackData != "lesson:2" {
		t.Fatalf("buttons = %+v", buttons)
	}

	failed := progression.Outcome{Result: quiz.Result{Score: 0, Total: 2, Hearts: 1, Finished: true}}
	text, buttons = renderResult(failed, lesson, next, true, "abcd1234")
	if !strings.Contains(text, "Not passed") || strings.Contains(text, "XP earned") {
		t.Fatalf("failed result text:\n%s", text)
	}
	if len(buttons) != 2 {
		t.Fatalf("failed result offers the next lesson: %+v", buttons)
	}
}

func TestRenderLeaderboard(t *testing.T) {
	if text := renderLeaderboard(nil, 10); !strings.Contains(text, "No players yet") {
		t.Fatalf("empty leaderboard = %q", text)
	}
	entries := leaderboardFromUsers([]models.User{
		{TelegramID: 1, FirstName: "Ana", XP: 300, Streak: 4},
		{TelegramID: 2, Username: "bo", XP: 200},
		{TelegramID: 3, XP: 100},
		{TelegramID: 4, FirstName: "Dee", XP: 50},
	})
	text := renderLeaderboard(entries, 3)
	for _, want := range []string{"🥇 Ana: 300 XP 🔥4", "🥈 @bo: 200 XP", "🥉 Anonymous: 100 XP"} {
		if !strings.Contains(text, want) {
			t.Fatalf("leaderboard misses %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "Dee") {
		t.Fatalf("leaderboard not cut to size:\n%s", text)
	}
}

func TestRenderQuests(t *testing.T) {
	board := progression.QuestBoard{Date: "2026-10-19", Quests: progression.DefaultQuests()}
	board.Quests[0].Completed = true
	text, buttons := renderQuests(board)
	if !strings.Contains(text, "(1/3)") {
		t.Fatalf("quest text:\n%s", text)
	}
	// two open quests plus the menu row
	if len(buttons) != 3 || buttons[0][0].CallbackData != "quest:2" {
		t.Fatalf("quest buttons = %+v", buttons)
	}

	for i := range board.Quests {
		board.Quests[i].Completed = true
	}
	text, buttons = renderQuests(board)
	if !strings.Contains(text, "All quests done") || len(buttons) != 1 {
		t.Fatalf("finished board:\n%s %+v", text, buttons)
	}
}

func TestErrorText(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"locked", apperr.Wrap(apperr.Validation, "open lesson", fmt.Errorf("lesson 3: %w", progression.ErrLessonLocked)), "locked"},
		{"validation", apperr.New(apperr.Validation, "validate login", "Invalid e-mail. Use a valid Gmail address"), "⚠️ Invalid e-mail"},
		{"network", fmt.Errorf("failed to load quiz 1: %w", apperr.New(apperr.Network, "quiz", "timeout")), "Couldn't reach"},
		{"not found", apperr.New(apperr.NotFound, "lesson", "lesson 99 does not exist"), "isn't available"},
		{"unauthorized", apperr.New(apperr.Unauthorized, "profile", "session expired"), "/login"},
		{"internal", errors.New("boom"), "Something went wrong"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorText(tt.err); !strings.Contains(got, tt.want) {
				t.Fatalf("errorText = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestParseFeedback(t *testing.T) {
	tests := []struct {
		in      string
		rating  int
		message string
	}{
		{"5 Love it!", 5, "Love it!"},
		{"  3   okay  ", 3, "okay"},
		{"9 lives", 0, "9 lives"},
		{"Great app", 0, "Great app"},
		{"4", 0, "4"},
	}
	for _, tt := range tests {
		r, m := parseFeedback(tt.in)
		if r != tt.rating || m != tt.message {
			t.Errorf("parseFeedback(%q) = %d, %q; want %d, %q", tt.in, r, m, tt.rating, tt.message)
		}
	}
}

func TestParseSetMedia(t *testing.T) {
	word, kind, url, err := parseSetMedia("thank_you https://cdn.example.com/ty.mp4 video")
	if err != nil || word != "THANK_YOU" || kind != models.MediaVideo || url != "https://cdn.example.com/ty.mp4" {
		t.Fatalf("parseSetMedia = %q %q %q %v", word, kind, url, err)
	}
	if _, kind, _, _ := parseSetMedia("A https://cdn.example.com/a.png"); kind != models.MediaImage {
		t.Fatalf("default media type = %q", kind)
	}
	for _, bad := range []string{"", "A", "A ftp://x/a.png", "A not-a-url", "A https://x.org/a.png gif", "A B C D"} {
		if _, _, _, err := parseSetMedia(bad); err == nil {
			t.Errorf("parseSetMedia(%q) accepted", bad)
		}
	}
}
