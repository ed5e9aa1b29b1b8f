package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/signlingo/internal/api"
	"github.com/example/signlingo/internal/apperr"
	"github.com/example/signlingo/internal/progression"
	"github.com/example/signlingo/internal/quiz"
	"github.com/example/signlingo/pkg/models"
)

const helpText = "📖 How to use the bot\n\n" +
	"🔸 Learning:\n" +
	"/map - Your learning path\n" +
	"/profile - Level, streak and achievements\n" +
	"/quests - Today's quests\n" +
	"/leaderboard - Top players\n\n" +
	"🔸 Account:\n" +
	"/login - Log in to your account\n" +
	"/register - Create an account\n" +
	"/logout - Log out\n\n" +
	"🔸 Other:\n" +
	"/feedback - Tell us what you think\n" +
	"/settings - Daily reminder on or off\n" +
	"/cancel - Cancel the current action\n\n" +
	"💡 Tips:\n" +
	"• Lessons unlock one after another\n" +
	"• Pass a quiz with 60% and at least one heart left\n" +
	"• Practise every day to keep your streak"

const onboardingText = "👋 Welcome to Sign Lingo!\n\n" +
	"🤟 Learn American Sign Language one small lesson at a time.\n" +
	"📖 Each lesson shows a few signs, then a short quiz checks what you remember.\n" +
	"❤️ You have 3 hearts per quiz. Score 60% to pass and earn XP.\n" +
	"🔥 Finish a lesson every day to build your streak."

// handleMessage routes a text message or an uploaded document
func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	userID := message.From.ID
	chatID := message.Chat.ID

	if message.IsCommand() {
		// Any command abandons pending input
		b.clearState(userID)
		b.handleCommand(ctx, message)
		return
	}

	state, ok := b.getState(userID)
	if !ok {
		_ = b.send(chatID, "I don't understand. Use /menu to show the main menu.", MainMenuButtons())
		return
	}
	switch state.State {
	case stateLoginEmail:
		b.handleLoginEmail(chatID, userID, message.Text)
	case stateLoginPassword:
		b.request(tgbotapi.NewDeleteMessage(chatID, message.MessageID))
		b.completeLogin(ctx, chatID, userID, state.Data["email"], strings.TrimSpace(message.Text))
	case stateRegister:
		b.request(tgbotapi.NewDeleteMessage(chatID, message.MessageID))
		b.handleRegistration(ctx, chatID, userID, message.Text)
	case stateFeedback:
		b.handleFeedbackText(ctx, chatID, message.From, message.Text)
	case stateImport:
		b.handleImportFile(ctx, message)
	default:
		b.clearState(userID)
		_ = b.send(chatID, "I don't understand. Use /menu to show the main menu.", MainMenuButtons())
	}
}

// handleCommand handles slash commands
func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	userID := message.From.ID
	chatID := message.Chat.ID

	switch message.Command() {
	case "start":
		b.handleStart(ctx, message)
	case "menu":
		b.showMainMenu(chatID)
	case "map", "learn":
		b.showMap(ctx, chatID, userID)
	case "profile":
		b.showProfile(ctx, chatID, message.From)
	case "leaderboard":
		b.showLeaderboard(ctx, chatID)
	case "quests":
		b.showQuests(ctx, chatID, userID)
	case "feedback":
		b.askFeedback(chatID, userID)
	case "settings":
		b.showSettings(ctx, chatID, userID)
	case "login":
		b.askLogin(chatID, userID)
	case "register":
		b.askRegistration(chatID, userID)
	case "logout":
		b.handleLogout(ctx, chatID, userID)
	case "help":
		_ = b.send(chatID, helpText, [][]MenuButton{menuRow()})
	case "cancel":
		_ = b.send(chatID, "Cancelled.", MainMenuButtons())
	case "import":
		if !b.isAdmin(userID) {
			_ = b.send(chatID, "This command is only available for administrators.", MainMenuButtons())
			return
		}
		b.askImport(chatID, userID)
	case "stats":
		if !b.isAdmin(userID) {
			_ = b.send(chatID, "This command is only available for administrators.", MainMenuButtons())
			return
		}
		b.showStats(ctx, chatID)
	case "setmedia":
		if !b.isAdmin(userID) {
			_ = b.send(chatID, "This command is only available for administrators.", MainMenuButtons())
			return
		}
		b.handleSetMedia(ctx, chatID, message.CommandArguments())
	default:
		_ = b.send(chatID, "Unknown command. Use /menu to show the main menu.", MainMenuButtons())
	}
}

// handleStart registers the user and shows onboarding on the first visit
func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message) {
	from := message.From
	chatID := message.Chat.ID
	if _, err := b.users.GetOrCreate(ctx, from.ID, from.UserName, from.FirstName); err != nil {
		b.reportError(chatID, err, "")
		return
	}

	key := userKey(from.ID)
	done, err := b.progress.OnboardingDone(ctx, key)
	if err != nil {
		b.reportError(chatID, err, "")
		return
	}
	if done {
		_ = b.send(chatID, fmt.Sprintf("Welcome back, %s! 🤟", from.FirstName), MainMenuButtons())
		return
	}

	if err := b.send(chatID, onboardingText, [][]MenuButton{{{Text: "🚀 Start learning", CallbackData: actionMap}}}); err != nil {
		return
	}
	if err := b.progress.MarkOnboardingDone(ctx, key); err != nil {
		b.log.Warn("failed to save onboarding flag", "user_id", from.ID, "error", err)
	}
}

// showMainMenu shows the main menu
func (b *Bot) showMainMenu(chatID int64) {
	_ = b.send(chatID, "🤟 Main Menu - choose an option:", MainMenuButtons())
}

func (b *Bot) showMap(ctx context.Context, chatID, userID int64) {
	units, err := b.tracker.Curriculum(ctx, userKey(userID))
	if err != nil {
		b.reportError(chatID, err, actionMap)
		return
	}
	text, buttons := renderMap(units)
	_ = b.send(chatID, text, buttons)
}

// openLesson shows the first flashcard of a lesson
func (b *Bot) openLesson(ctx context.Context, chatID int64, from *tgbotapi.User, lessonID int64) {
	content, err := b.tracker.OpenLesson(ctx, userKey(from.ID), lessonID)
	if err != nil {
		b.reportError(chatID, err, callbackData(actionLesson, lessonID))
		return
	}
	if len(content.Signs) == 0 {
		b.startQuiz(ctx, chatID, from, lessonID)
		return
	}
	b.sendCard(chatID, content, 0)
}

func (b *Bot) showCard(ctx context.Context, chatID, userID, lessonID int64, n int) string {
	content, err := b.tracker.OpenLesson(ctx, userKey(userID), lessonID)
	if err != nil {
		b.reportError(chatID, err, callbackData(actionCard, lessonID, n))
		return ""
	}
	if n < 0 || n >= len(content.Signs) {
		return "⚠️ That card no longer exists"
	}
	b.sendCard(chatID, content, n)
	return ""
}

func (b *Bot) sendCard(chatID int64, content models.LessonContent, n int) {
	text, buttons := renderCard(content, n)
	sign := content.Signs[n]
	if sign.MediaURL == "" {
		_ = b.send(chatID, text, buttons)
		return
	}
	b.sendMedia(chatID, sign.MediaType, sign.MediaURL, text, buttons)
}

// sendMedia sends a picture or a video with a caption and buttons
func (b *Bot) sendMedia(chatID int64, mediaType, url, caption string, buttons [][]MenuButton) {
	var c tgbotapi.Chattable
	if mediaType == models.MediaVideo {
		video := tgbotapi.NewVideo(chatID, tgbotapi.FileURL(url))
		video.Caption = caption
		if len(buttons) > 0 {
			video.ReplyMarkup = createKeyboard(buttons)
		}
		c = video
	} else {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(url))
		photo.Caption = caption
		if len(buttons) > 0 {
			photo.ReplyMarkup = createKeyboard(buttons)
		}
		c = photo
	}
	if err := b.sendMessage(c); err != nil {
		// Broken media links should not block the lesson
		_ = b.send(chatID, caption, buttons)
	}
}

func (b *Bot) startQuiz(ctx context.Context, chatID int64, from *tgbotapi.User, lessonID int64) {
	if b.backend == nil {
		// Local completions are recorded against the users table
		if _, err := b.users.GetOrCreate(ctx, from.ID, from.UserName, from.FirstName); err != nil {
			b.reportError(chatID, err, "")
			return
		}
	}
	s, err := b.tracker.StartQuiz(ctx, userKey(from.ID), lessonID)
	if err != nil {
		b.reportError(chatID, err, callbackData(actionQuiz, lessonID))
		return
	}
	b.setQuiz(from.ID, s)
	b.sendQuestion(chatID, s)
}

// sendQuestion sends the current question. Picture options are sent first
// as numbered pictures.
func (b *Bot) sendQuestion(chatID int64, s *quiz.Session) {
	q, ok := s.Current()
	if !ok {
		return
	}
	text, buttons := renderQuestion(s)

	if q.Type == models.QuestionPickSign {
		var media []interface{}
		for i, o := range q.Options {
			if o.MediaURL == "" {
				continue
			}
			photo := tgbotapi.NewInputMediaPhoto(tgbotapi.FileURL(o.MediaURL))
			photo.Caption = strconv.Itoa(i + 1)
			media = append(media, photo)
		}
		if len(media) > 1 {
			b.request(tgbotapi.NewMediaGroup(chatID, media))
		}
	}
	if q.Type == models.QuestionPickWord && q.SignMediaURL != "" {
		b.sendMedia(chatID, q.MediaType, q.SignMediaURL, text, buttons)
		return
	}
	_ = b.send(chatID, text, buttons)
}

// lockQuiz returns the user's quiz locked, when tag names the current attempt
func (b *Bot) lockQuiz(userID int64, tag string) (*quizState, bool) {
	qs, ok := b.quiz(userID)
	if !ok {
		return nil, false
	}
	qs.mu.Lock()
	if sessionTag(qs.session) != tag {
		qs.mu.Unlock()
		return nil, false
	}
	return qs, true
}

func (b *Bot) handleAnswer(callback *tgbotapi.CallbackQuery, act action) string {
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID

	qs, ok := b.lockQuiz(userID, act.arg(0))
	if !ok {
		return "⌛ This quiz is no longer active"
	}
	defer qs.mu.Unlock()

	s := qs.session
	index, okIndex := act.intArg(1)
	opt, okOpt := act.intArg(2)
	q, current := s.Current()
	if !current || !okIndex || !okOpt || int(index) != s.Index() || opt < 0 || int(opt) >= len(q.Options) {
		return "Already answered"
	}
	fb, ok := s.Submit(q.Options[opt].Word)
	if !ok {
		return "Already answered"
	}

	// Drop the option buttons so the question cannot be answered twice
	b.request(tgbotapi.NewEditMessageReplyMarkup(chatID, callback.Message.MessageID,
		tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}))

	answer := fb.CorrectAnswer
	for _, o := range q.Options {
		if o.Word == fb.CorrectAnswer && o.Display != "" {
			answer = o.Display
		}
	}
	_ = b.send(chatID, renderFeedback(fb, answer), [][]MenuButton{{{Text: "Continue ➡️", CallbackData: callbackData(actionNext, sessionTag(s))}}})
	if fb.Correct {
		return "✅"
	}
	return "❌"
}

// handleNext dismisses feedback, moving on or settling a finished quiz
func (b *Bot) handleNext(ctx context.Context, chatID, userID int64, act action) string {
	qs, ok := b.lockQuiz(userID, act.arg(0))
	if !ok {
		return "⌛ This quiz is no longer active"
	}
	defer qs.mu.Unlock()

	s := qs.session
	switch s.State() {
	case quiz.Answered:
		if s.Advance() == quiz.InProgress {
			b.sendQuestion(chatID, s)
			return ""
		}
	case quiz.InProgress:
		return ""
	}
	b.settle(ctx, chatID, userID, qs)
	return ""
}

// settle reports a finished attempt once and shows the result card
func (b *Bot) settle(ctx context.Context, chatID, userID int64, qs *quizState) {
	if qs.settled {
		return
	}
	key := userKey(userID)
	s := qs.session
	tag := sessionTag(s)

	out, err := b.tracker.FinishQuiz(ctx, key, s)
	if err != nil {
		b.reportError(chatID, err, callbackData(actionSettle, tag))
		return
	}
	qs.settled = true

	lesson, err := b.tracker.Lesson(ctx, key, s.LessonID)
	if err != nil {
		lesson = models.Lesson{ID: s.LessonID, Title: "Lesson " + strconv.FormatInt(s.LessonID, 10)}
	}
	var next models.Lesson
	hasNext := false
	if units, err := b.tracker.Curriculum(ctx, key); err == nil {
		next, hasNext = progression.NextLesson(units)
	}
	text, buttons := renderResult(out, lesson, next, hasNext, tag)
	_ = b.send(chatID, text, buttons)
}

func (b *Bot) handleRetry(ctx context.Context, chatID, userID int64, act action) string {
	qs, ok := b.lockQuiz(userID, act.arg(0))
	if !ok {
		return "⌛ This quiz is no longer active"
	}
	defer qs.mu.Unlock()

	if qs.session.State() != quiz.Finished {
		return ""
	}
	if err := b.tracker.RetryQuiz(ctx, qs.session); err != nil {
		b.reportError(chatID, err, callbackData(actionRetry, act.arg(0)))
		return ""
	}
	qs.settled = false
	b.sendQuestion(chatID, qs.session)
	return ""
}

func (b *Bot) showProfile(ctx context.Context, chatID int64, from *tgbotapi.User) {
	key := userKey(from.ID)
	if b.backend != nil {
		remote, err := b.backend.Profile(ctx, key)
		switch {
		case err == nil:
			if _, err := b.tracker.MergeProfile(ctx, key, remote); err != nil {
				b.log.Warn("failed to cache profile", "user_id", from.ID, "error", err)
			}
		case !apperr.Is(err, apperr.Unauthorized):
			// Show the cached profile when the backend is unreachable
			b.log.Warn("failed to refresh profile", "user_id", from.ID, "error", err)
		}
	}

	profile, err := b.tracker.Profile(ctx, key)
	if err != nil {
		b.reportError(chatID, err, actionProfile)
		return
	}
	achievements, err := b.tracker.Achievements(ctx, key)
	if err != nil {
		b.reportError(chatID, err, actionProfile)
		return
	}
	name := profile.FullName
	if name == "" {
		name = from.FirstName
	}
	text := renderProfile(name, profile, achievements)
	if b.backend == nil {
		text += b.quizStats(ctx, from.ID)
	}
	_ = b.send(chatID, text, [][]MenuButton{
		{{Text: "🗺 Map", CallbackData: actionMap}, {Text: "🎯 Quests", CallbackData: actionQuests}},
		menuRow(),
	})
}

// quizStats renders the locally recorded quiz history, or nothing
func (b *Bot) quizStats(ctx context.Context, telegramID int64) string {
	u, err := b.users.GetByTelegramID(ctx, telegramID)
	if err != nil || u == nil {
		return ""
	}
	stats, err := b.results.Stats(ctx, u.ID)
	if err != nil {
		b.log.Warn("failed to load quiz stats", "user_id", telegramID, "error", err)
		return ""
	}
	recent, err := b.results.GetByUserID(ctx, u.ID)
	if err != nil {
		b.log.Warn("failed to load quiz results", "user_id", telegramID, "error", err)
	}
	return renderQuizStats(stats, recent)
}

func (b *Bot) showLeaderboard(ctx context.Context, chatID int64) {
	var entries []models.LeaderboardEntry
	if b.backend != nil {
		players, err := b.backend.Leaderboard(ctx, b.config.LeaderboardPeriod)
		if err != nil {
			b.reportError(chatID, err, actionLeaderboard)
			return
		}
		entries = players
	} else {
		users, err := b.users.Leaderboard(ctx, b.config.LeaderboardSize)
		if err != nil {
			b.reportError(chatID, err, actionLeaderboard)
			return
		}
		entries = leaderboardFromUsers(users)
	}
	_ = b.send(chatID, renderLeaderboard(entries, b.config.LeaderboardSize), [][]MenuButton{menuRow()})
}

func (b *Bot) showQuests(ctx context.Context, chatID, userID int64) {
	board, err := b.tracker.DailyQuests(ctx, userKey(userID))
	if err != nil {
		b.reportError(chatID, err, actionQuests)
		return
	}
	text, buttons := renderQuests(board)
	_ = b.send(chatID, text, buttons)
}

func (b *Bot) completeQuest(ctx context.Context, chatID, userID int64, questID string) string {
	board, _, ok, err := b.tracker.CompleteQuest(ctx, userKey(userID), questID)
	if err != nil {
		b.reportError(chatID, err, "")
		return ""
	}
	if !ok {
		return "Already completed"
	}

	reward := 0
	for _, q := range board.Quests {
		if q.ID == questID {
			reward = q.XPReward
		}
	}
	if b.backend == nil {
		// Keep the local leaderboard in step with the profile
		if err := b.users.AddXP(ctx, userID, reward); err != nil && !apperr.Is(err, apperr.NotFound) {
			b.log.Warn("failed to add quest xp", "user_id", userID, "error", err)
		}
	}
	text, buttons := renderQuests(board)
	_ = b.send(chatID, text, buttons)
	return fmt.Sprintf("+%d XP", reward)
}

func (b *Bot) showSettings(ctx context.Context, chatID, userID int64) {
	settings, err := b.progress.Settings(ctx, userKey(userID))
	if err != nil {
		b.reportError(chatID, err, actionSettings)
		return
	}
	text, buttons := renderSettings(settings)
	_ = b.send(chatID, text, buttons)
}

// setReminder switches the daily streak reminder on or off
func (b *Bot) setReminder(ctx context.Context, chatID, userID int64, on bool) string {
	key := userKey(userID)
	settings, err := b.progress.Settings(ctx, key)
	if err != nil {
		b.reportError(chatID, err, actionSettings)
		return ""
	}
	settings.DailyReminder = on
	if err := b.progress.SaveSettings(ctx, key, settings); err != nil {
		b.reportError(chatID, err, actionSettings)
		return ""
	}
	b.log.Info("reminder setting changed", "user_id", userID, "daily_reminder", on)
	text, buttons := renderSettings(settings)
	_ = b.send(chatID, text, buttons)
	if on {
		return "🔔 Reminders on"
	}
	return "🔕 Reminders off"
}

func (b *Bot) askFeedback(chatID, userID int64) {
	b.setState(userID, stateFeedback, nil)
	_ = b.send(chatID, "💬 Send me your feedback in one message.\nStart it with a rating from 1 to 5 if you like, e.g. \"5 Love it!\"", nil)
}

// parseFeedback splits an optional leading 1-5 rating off the message
func parseFeedback(text string) (int, string) {
	text = strings.TrimSpace(text)
	fields := strings.SplitN(text, " ", 2)
	if len(fields) == 2 {
		if r, err := strconv.Atoi(fields[0]); err == nil && r >= 1 && r <= 5 {
			return r, strings.TrimSpace(fields[1])
		}
	}
	return 0, text
}

func (b *Bot) handleFeedbackText(ctx context.Context, chatID int64, from *tgbotapi.User, text string) {
	key := userKey(from.ID)
	rating, message := parseFeedback(text)
	if message == "" {
		_ = b.send(chatID, "Please write a few words of feedback.", nil)
		return
	}

	if b.backend != nil {
		profile, err := b.tracker.Profile(ctx, key)
		if err != nil {
			b.reportError(chatID, err, "")
			return
		}
		name := profile.FullName
		if name == "" {
			name = from.FirstName
		}
		err = b.backend.SubmitFeedback(ctx, api.Feedback{
			UserName:  name,
			UserEmail: profile.Email,
			Rating:    rating,
			Message:   message,
		})
		if apperr.Is(err, apperr.Validation) {
			// Leave the state so the user can send another message
			b.reportError(chatID, err, "")
			return
		}
		if err != nil {
			b.clearState(from.ID)
			b.reportError(chatID, err, actionFeedback)
			return
		}
	} else {
		b.log.Info("feedback received", "user_id", from.ID, "rating", rating, "message", message)
	}

	b.clearState(from.ID)
	if err := b.tracker.RecordFeedback(ctx, key); err != nil {
		b.log.Warn("failed to record feedback", "user_id", from.ID, "error", err)
	}
	_ = b.send(chatID, "🙏 Thank you for your feedback!", MainMenuButtons())
}

func (b *Bot) askLogin(chatID, userID int64) {
	if b.backend == nil {
		_ = b.send(chatID, "Accounts are not available on this bot. Your progress is saved automatically.", MainMenuButtons())
		return
	}
	b.setState(userID, stateLoginEmail, nil)
	_ = b.send(chatID, "🔑 Send me your e-mail address.", nil)
}

func (b *Bot) handleLoginEmail(chatID, userID int64, email string) {
	email = strings.TrimSpace(email)
	b.setState(userID, stateLoginPassword, map[string]string{"email": email})
	_ = b.send(chatID, "Now send your password. I'll delete the message right after reading it.", nil)
}

// completeLogin logs in and caches the session with the merged profile
func (b *Bot) completeLogin(ctx context.Context, chatID, userID int64, email, password string) {
	key := userKey(userID)
	res, err := b.backend.Login(ctx, email, password)
	if err != nil {
		if apperr.Is(err, apperr.Validation) || apperr.Is(err, apperr.Unauthorized) {
			b.setState(userID, stateLoginEmail, nil)
			_ = b.send(chatID, errorText(err)+"\nSend your e-mail address to try again, or /cancel.", nil)
			return
		}
		b.clearState(userID)
		b.reportError(chatID, err, "")
		return
	}

	profile, err := b.tracker.MergeProfile(ctx, key, res.Profile)
	if err != nil {
		b.clearState(userID)
		b.reportError(chatID, err, "")
		return
	}
	if err := b.progress.SaveSession(ctx, key, res.Token, profile); err != nil {
		b.clearState(userID)
		b.reportError(chatID, err, "")
		return
	}
	b.clearState(userID)
	b.log.Info("user logged in", "user_id", userID)
	_ = b.send(chatID, fmt.Sprintf("✅ Logged in as %s.", profile.FullName), MainMenuButtons())
}

func (b *Bot) askRegistration(chatID, userID int64) {
	if b.backend == nil {
		_ = b.send(chatID, "Accounts are not available on this bot. Your progress is saved automatically.", MainMenuButtons())
		return
	}
	b.setState(userID, stateRegister, nil)
	_ = b.send(chatID, "📝 Send your full name, Gmail address and password on three lines:\n\nJane Doe\njane@gmail.com\nMyPass#2024\n\nI'll delete the message right after reading it.", nil)
}

func (b *Bot) handleRegistration(ctx context.Context, chatID, userID int64, text string) {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) != 3 {
		_ = b.send(chatID, "⚠️ Please send exactly three lines: name, e-mail and password.", nil)
		return
	}
	name, email, password := lines[0], lines[1], lines[2]
	if err := b.backend.Register(ctx, name, email, password); err != nil {
		if apperr.Is(err, apperr.Validation) {
			_ = b.send(chatID, errorText(err), nil)
			return
		}
		b.clearState(userID)
		b.reportError(chatID, err, "")
		return
	}
	b.log.Info("user registered", "user_id", userID)
	b.completeLogin(ctx, chatID, userID, email, password)
}

func (b *Bot) handleLogout(ctx context.Context, chatID, userID int64) {
	if b.backend == nil {
		_ = b.send(chatID, "You are not logged in.", MainMenuButtons())
		return
	}
	if err := b.progress.ClearSession(ctx, userKey(userID)); err != nil {
		b.reportError(chatID, err, "")
		return
	}
	b.dropQuiz(userID)
	_ = b.send(chatID, "👋 Logged out.", MainMenuButtons())
}

// handleCallbackQuery handles callback queries from buttons
func (b *Bot) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if callback.Message == nil || callback.Message.Chat == nil || callback.From == nil {
		return
	}
	notice := b.dispatchCallback(ctx, callback)
	// Always answer to remove the loading state
	b.request(tgbotapi.NewCallback(callback.ID, notice))
}

// dispatchCallback runs a button action and returns the notice to show
func (b *Bot) dispatchCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) string {
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID
	act := parseAction(callback.Data)

	switch act.Name {
	case actionMenu:
		b.showMainMenu(chatID)
	case actionMap:
		b.showMap(ctx, chatID, userID)
	case actionProfile:
		b.showProfile(ctx, chatID, callback.From)
	case actionLeaderboard:
		b.showLeaderboard(ctx, chatID)
	case actionQuests:
		b.showQuests(ctx, chatID, userID)
	case actionHelp:
		_ = b.send(chatID, helpText, [][]MenuButton{menuRow()})
	case actionFeedback:
		b.askFeedback(chatID, userID)
	case actionSettings:
		b.showSettings(ctx, chatID, userID)
	case actionReminder:
		return b.setReminder(ctx, chatID, userID, act.arg(0) == "on")
	case actionLesson:
		id, ok := act.intArg(0)
		if !ok {
			return "⚠️ Unknown lesson"
		}
		b.openLesson(ctx, chatID, callback.From, id)
	case actionCard:
		id, okID := act.intArg(0)
		n, okN := act.intArg(1)
		if !okID || !okN {
			return "⚠️ Unknown lesson"
		}
		return b.showCard(ctx, chatID, userID, id, int(n))
	case actionQuiz:
		id, ok := act.intArg(0)
		if !ok {
			return "⚠️ Unknown lesson"
		}
		b.startQuiz(ctx, chatID, callback.From, id)
	case actionAnswer:
		return b.handleAnswer(callback, act)
	case actionNext, actionSettle:
		return b.handleNext(ctx, chatID, userID, act)
	case actionRetry:
		return b.handleRetry(ctx, chatID, userID, act)
	case actionQuest:
		return b.completeQuest(ctx, chatID, userID, act.arg(0))
	default:
		return "⚠️ Unknown action"
	}
	return ""
}
