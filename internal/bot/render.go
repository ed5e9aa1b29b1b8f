package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/example/signlingo/internal/apperr"
	"github.com/example/signlingo/internal/database"
	"github.com/example/signlingo/internal/progression"
	"github.com/example/signlingo/internal/quiz"
	"github.com/example/signlingo/pkg/models"
)

// Callback actions. Arguments follow the action name, separated by ":".
const (
	actionMenu        = "menu"
	actionMap         = "map"
	actionProfile     = "profile"
	actionLeaderboard = "leaderboard"
	actionQuests      = "quests"
	actionHelp        = "help"
	actionFeedback    = "feedback"
	actionSettings    = "settings"
	actionReminder    = "reminder" // reminder:on|off
	actionLesson      = "lesson" // lesson:<lesson id>
	actionCard        = "card"   // card:<lesson id>:<index>
	actionQuiz        = "quiz"   // quiz:<lesson id>
	actionAnswer      = "ans"    // ans:<session tag>:<question index>:<option index>
	actionNext        = "next"   // next:<session tag>
	actionSettle      = "settle" // settle:<session tag>
	actionRetry       = "retry"  // retry:<session tag>
	actionQuest       = "quest"  // quest:<quest id>
)

// action is a parsed callback payload
type action struct {
	Name string
	Args []string
}

func parseAction(data string) action {
	parts := strings.Split(data, ":")
	return action{Name: parts[0], Args: parts[1:]}
}

func (a action) arg(i int) string {
	if i < 0 || i >= len(a.Args) {
		return ""
	}
	return a.Args[i]
}

func (a action) intArg(i int) (int64, bool) {
	v, err := strconv.ParseInt(a.arg(i), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func callbackData(name string, args ...interface{}) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, name)
	for _, a := range args {
		parts = append(parts, fmt.Sprint(a))
	}
	return strings.Join(parts, ":")
}

// sessionTag identifies a quiz attempt in button payloads, so buttons of an
// older attempt are recognised as stale
func sessionTag(s *quiz.Session) string {
	return s.ID.String()[:8]
}

// MainMenuButtons returns the buttons for the main menu
func MainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "🗺 Learning Path", CallbackData: actionMap},
			{Text: "👤 Profile", CallbackData: actionProfile},
		},
		{
			{Text: "🎯 Daily Quests", CallbackData: actionQuests},
			{Text: "🏆 Leaderboard", CallbackData: actionLeaderboard},
		},
		{
			{Text: "💬 Feedback", CallbackData: actionFeedback},
			{Text: "⚙️ Settings", CallbackData: actionSettings},
			{Text: "❓ Help", CallbackData: actionHelp},
		},
	}
}

func menuRow() []MenuButton {
	return []MenuButton{{Text: "🏠 Menu", CallbackData: actionMenu}}
}

func heartsBar(hearts int) string {
	if hearts < 0 {
		hearts = 0
	}
	full := hearts
	if full > quiz.DefaultHearts {
		full = quiz.DefaultHearts
	}
	return strings.Repeat("❤️", full) + strings.Repeat("🤍", quiz.DefaultHearts-full)
}

func progressBar(percent float64, width int) string {
	filled := int(percent/100*float64(width) + 0.5)
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("▓", filled) + strings.Repeat("░", width-filled)
}

// renderMap lists every unit with its lessons. Only selectable lessons get
// a button.
func renderMap(units []models.Unit) (string, [][]MenuButton) {
	var sb strings.Builder
	total := 0
	for _, u := range units {
		total += len(u.Lessons)
	}
	sb.WriteString("🗺 Your learning path\n")
	fmt.Fprintf(&sb, "Completed %d/%d lessons\n", progression.CompletedCount(units), total)

	next, hasNext := progression.NextLesson(units)
	locks := progression.LockMap(units)

	var buttons [][]MenuButton
	var row []MenuButton
	for i, u := range units {
		sb.WriteString("\n")
		unitMark := ""
		if progression.IsUnitLocked(units, i) {
			unitMark = " 🔒"
		}
		fmt.Fprintf(&sb, "%s %s%s\n%s %.0f%%\n", unitIcon(u.Icon), u.Title, unitMark, progressBar(progression.UnitProgress(u), 10), progression.UnitProgress(u))
		for j, l := range u.Lessons {
			mark := lessonMark(l, locks[i][j], hasNext && l.ID == next.ID)
			fmt.Fprintf(&sb, "  %s %s\n", mark, l.Title)
			if locks[i][j] {
				continue
			}
			row = append(row, MenuButton{Text: mark + " " + l.Title, CallbackData: callbackData(actionLesson, l.ID)})
			if len(row) == 2 {
				buttons = append(buttons, row)
				row = nil
			}
		}
	}
	if len(row) > 0 {
		buttons = append(buttons, row)
	}
	if hasNext {
		buttons = append(buttons, []MenuButton{{Text: "▶️ Continue: " + next.Title, CallbackData: callbackData(actionLesson, next.ID)}})
	}
	buttons = append(buttons, menuRow())
	return sb.String(), buttons
}

// unitIcons maps icon names of the curriculum to emoji
var unitIcons = map[string]string{
	"hand-left":   "👋",
	"text":        "🔤",
	"calculator":  "🔢",
	"people":      "👪",
	"heart":       "❤️",
	"help-circle": "❓",
	"home":        "🏠",
}

// unitIcon returns the emoji of an icon name; anything else is shown as is
func unitIcon(icon string) string {
	if e, ok := unitIcons[icon]; ok {
		return e
	}
	if icon == "" {
		return "📘"
	}
	return icon
}

func lessonMark(l models.Lesson, locked, next bool) string {
	switch {
	case l.Completed:
		return "✅"
	case locked:
		return "🔒"
	case next:
		return "▶️"
	default:
		return "⭕"
	}
}

// renderCard shows flashcard n of a lesson with navigation
func renderCard(content models.LessonContent, n int) (string, [][]MenuButton) {
	sign := content.Signs[n]
	text := fmt.Sprintf("📖 %s (%d/%d)\n\n🤟 %s\n%s", content.Title, n+1, len(content.Signs), sign.Display, sign.Description)

	var nav []MenuButton
	if n > 0 {
		nav = append(nav, MenuButton{Text: "◀️ Back", CallbackData: callbackData(actionCard, content.LessonID, n-1)})
	}
	if n < len(content.Signs)-1 {
		nav = append(nav, MenuButton{Text: "Next ▶️", CallbackData: callbackData(actionCard, content.LessonID, n+1)})
	} else {
		nav = append(nav, MenuButton{Text: "📝 Start quiz", CallbackData: callbackData(actionQuiz, content.LessonID)})
	}
	return text, [][]MenuButton{nav, {{Text: "🗺 Map", CallbackData: actionMap}}}
}

// optionLabel is the button text of option i. Picture options are
// numbered, matching the numbered pictures sent with the question.
func optionLabel(q models.Question, i int) string {
	o := q.Options[i]
	if q.Type == models.QuestionPickSign && o.MediaURL != "" {
		return strconv.Itoa(i + 1)
	}
	if o.Display != "" {
		return o.Display
	}
	return o.Word
}

// renderQuestion shows the current question with one button per option
func renderQuestion(s *quiz.Session) (string, [][]MenuButton) {
	q, ok := s.Current()
	if !ok {
		return "", nil
	}
	text := fmt.Sprintf("Question %d/%d  %s\n%s\n\n%s", s.Index()+1, s.Total(), heartsBar(s.Hearts()), progressBar(float64(s.Progress()), 10), q.Prompt)
	if q.Type == models.QuestionPickWord && q.SignMediaURL == "" {
		text += "\n(sign picture unavailable)"
	}

	tag := sessionTag(s)
	var buttons [][]MenuButton
	var row []MenuButton
	for i := range q.Options {
		row = append(row, MenuButton{Text: optionLabel(q, i), CallbackData: callbackData(actionAnswer, tag, s.Index(), i)})
		if len(row) == 2 {
			buttons = append(buttons, row)
			row = nil
		}
	}
	if len(row) > 0 {
		buttons = append(buttons, row)
	}
	return text, buttons
}

func renderFeedback(fb quiz.Feedback, answer string) string {
	if fb.Correct {
		return fmt.Sprintf("✅ Correct!  %s", heartsBar(fb.Hearts))
	}
	text := fmt.Sprintf("❌ Not quite. The answer is %s.  %s", answer, heartsBar(fb.Hearts))
	if fb.OutOfHearts {
		text += "\nYou're out of hearts 💔"
	}
	return text
}

// renderResult is the result card of a settled attempt
func renderResult(out progression.Outcome, lesson models.Lesson, next models.Lesson, hasNext bool, tag string) (string, [][]MenuButton) {
	r := out.Result
	var sb strings.Builder
	if r.Passed {
		sb.WriteString("🎉 Lesson complete!\n\n")
	} else {
		sb.WriteString("😕 Not passed this time\n\n")
	}
	fmt.Fprintf(&sb, "%s\nScore: %d/%d (%d%%)\nHearts left: %s\n", lesson.Title, r.Score, r.Total, r.Percentage, heartsBar(r.Hearts))
	if r.Passed {
		fmt.Fprintf(&sb, "XP earned: +%d (total %d)\n", out.XPEarned, out.Profile.XP)
		if out.LevelUp {
			fmt.Fprintf(&sb, "⬆️ Level up! You reached level %d\n", out.Profile.Level())
		}
		for _, a := range out.NewAchievements {
			fmt.Fprintf(&sb, "%s Achievement unlocked: %s\n", a.Icon, a.Title)
		}
	} else {
		fmt.Fprintf(&sb, "You need %d%% with at least one heart left to pass.\n", quiz.PassPercentage)
	}

	buttons := [][]MenuButton{{{Text: "🔄 Retry", CallbackData: callbackData(actionRetry, tag)}}}
	if r.Passed && hasNext {
		buttons = append(buttons, []MenuButton{{Text: "▶️ Next: " + next.Title, CallbackData: callbackData(actionLesson, next.ID)}})
	}
	buttons = append(buttons, []MenuButton{{Text: "🗺 Map", CallbackData: actionMap}})
	return sb.String(), buttons
}

func renderProfile(name string, p models.UserProfile, achievements []progression.Achievement) string {
	var sb strings.Builder
	if name == "" {
		name = "Learner"
	}
	fmt.Fprintf(&sb, "👤 %s\n\n", name)
	fmt.Fprintf(&sb, "⭐ Level %d  (%d XP)\n", p.Level(), p.XP)
	inLevel := p.XP % models.XPPerLevel
	if inLevel < 0 {
		inLevel = 0
	}
	fmt.Fprintf(&sb, "%s %d/%d to level %d\n", progressBar(float64(inLevel), 10), inLevel, models.XPPerLevel, p.Level()+1)
	fmt.Fprintf(&sb, "🔥 Streak: %d\n", p.Streak)
	fmt.Fprintf(&sb, "📚 Lessons completed: %d\n", p.LessonsCompleted)
	fmt.Fprintf(&sb, "📝 Quizzes taken: %d (perfect: %d)\n", p.QuizzesTaken, p.PerfectQuizzes)

	unlocked := 0
	for _, a := range achievements {
		if a.Unlocked {
			unlocked++
		}
	}
	fmt.Fprintf(&sb, "\n🏅 Achievements %d/%d\n", unlocked, len(achievements))
	for _, a := range achievements {
		if a.Unlocked {
			fmt.Fprintf(&sb, "%s %s\n", a.Icon, a.Title)
		} else {
			fmt.Fprintf(&sb, "🔒 %s (%d/%d) %s\n", a.Title, a.Progress, a.Target, a.Description)
		}
	}
	return sb.String()
}

func renderSettings(s models.UserSettings) (string, [][]MenuButton) {
	state, toggle := "off", MenuButton{Text: "🔔 Turn reminders on", CallbackData: callbackData(actionReminder, "on")}
	if s.DailyReminder {
		state, toggle = "on", MenuButton{Text: "🔕 Turn reminders off", CallbackData: callbackData(actionReminder, "off")}
	}
	text := "⚙️ Settings\n\n🔔 Daily streak reminder: " + state + "\n" +
		"A reminder comes when your streak would end tonight."
	return text, [][]MenuButton{{toggle}, menuRow()}
}

func renderStats(users []models.User, today string) string {
	active, streaks, xp := 0, 0, 0
	for _, u := range users {
		if u.LastActiveDate == today {
			active++
		}
		if u.Streak > 0 {
			streaks++
		}
		xp += u.XP
	}
	return fmt.Sprintf("📈 Bot statistics\n\n👥 Learners: %d\n✅ Active today: %d\n🔥 On a streak: %d\n⭐ XP earned in total: %d",
		len(users), active, streaks, xp)
}

// maxRecentResults is how many past attempts the profile lists
const maxRecentResults = 3

// renderQuizStats renders the recorded quiz history; recent is newest first
func renderQuizStats(stats database.QuizStats, recent []models.QuizResult) string {
	if stats.Quizzes == 0 {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "\n📊 History: %d quizzes, %d passed, %d%% average over %d lessons\n",
		stats.Quizzes, stats.Passed, stats.AvgPercentage, stats.LessonsCovered)
	for i, r := range recent {
		if i == maxRecentResults {
			break
		}
		fmt.Fprintf(&sb, "• Lesson %d: %d%% (+%d XP) on %s\n", r.LessonID, r.Percentage, r.XPEarned, r.CreatedAt.Format("Jan 2"))
	}
	return sb.String()
}

func renderLeaderboard(entries []models.LeaderboardEntry, size int) string {
	if len(entries) == 0 {
		return "🏆 Leaderboard\n\nNo players yet. Finish a lesson to be the first!"
	}
	if size > 0 && len(entries) > size {
		entries = entries[:size]
	}
	medals := []string{"🥇", "🥈", "🥉"}
	var sb strings.Builder
	sb.WriteString("🏆 Leaderboard\n\n")
	for i, e := range entries {
		rank := strconv.Itoa(i+1) + "."
		if i < len(medals) {
			rank = medals[i]
		}
		name := e.FullName
		if name == "" {
			name = "Anonymous"
		}
		fmt.Fprintf(&sb, "%s %s: %d XP", rank, name, e.XP)
		if e.Streak > 0 {
			fmt.Fprintf(&sb, " 🔥%d", e.Streak)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// leaderboardFromUsers turns local users into leaderboard rows
func leaderboardFromUsers(users []models.User) []models.LeaderboardEntry {
	entries := make([]models.LeaderboardEntry, 0, len(users))
	for _, u := range users {
		name := u.FirstName
		if name == "" && u.Username != "" {
			name = "@" + u.Username
		}
		entries = append(entries, models.LeaderboardEntry{
			ID:       userKey(u.TelegramID),
			FullName: name,
			XP:       u.XP,
			Streak:   u.Streak,
		})
	}
	return entries
}

func renderQuests(board progression.QuestBoard) (string, [][]MenuButton) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🎯 Daily quests (%d/%d)\n\n", board.CompletedQuests(), len(board.Quests))
	var buttons [][]MenuButton
	for _, q := range board.Quests {
		mark := "⬜"
		if q.Completed {
			mark = "✅"
		}
		fmt.Fprintf(&sb, "%s %s %s: %s (+%d XP)\n", mark, q.Icon, q.Title, q.Description, q.XPReward)
		if !q.Completed {
			buttons = append(buttons, []MenuButton{{Text: "Complete " + q.Title, CallbackData: callbackData(actionQuest, q.ID)}})
		}
	}
	if board.AllQuestsDone() {
		sb.WriteString("\n🌟 All quests done for today!")
	}
	buttons = append(buttons, menuRow())
	return sb.String(), buttons
}

// errorText maps an error to what the user is told
func errorText(err error) string {
	if errors.Is(err, progression.ErrLessonLocked) {
		return "🔒 This lesson is locked. Finish the lessons before it first."
	}
	switch apperr.KindOf(err) {
	case apperr.Validation:
		return "⚠️ " + validationMessage(err)
	case apperr.Network:
		return "📡 Couldn't reach the server. Please try again."
	case apperr.NotFound:
		return "🤷 That lesson isn't available."
	case apperr.Unauthorized:
		return "🔑 Please log in first with /login."
	default:
		return "❌ Something went wrong. Please try again later."
	}
}

// validationMessage is the innermost message of a validation error
func validationMessage(err error) string {
	var e *apperr.Error
	if errors.As(err, &e) && e.Err != nil {
		return e.Err.Error()
	}
	return err.Error()
}
