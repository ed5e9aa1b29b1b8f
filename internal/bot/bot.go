// Package bot is the Telegram front end of the tracker: the lesson map,
// flashcards, quizzes, profile, quests and leaderboard.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/signlingo/internal/api"
	"github.com/example/signlingo/internal/apperr"
	"github.com/example/signlingo/internal/database"
	"github.com/example/signlingo/internal/kvstore"
	"github.com/example/signlingo/internal/logger"
	"github.com/example/signlingo/internal/progression"
	"github.com/example/signlingo/internal/quiz"
)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// messenger is the part of the Telegram API the bot talks to
type messenger interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Conversation states waiting for a text reply
const (
	stateLoginEmail    = "waiting_for_email"
	stateLoginPassword = "waiting_for_password"
	stateRegister      = "waiting_for_registration"
	stateFeedback      = "waiting_for_feedback"
	stateImport        = "waiting_for_curriculum_file"
)

// UserState represents the current state of a user in conversation with the bot
type UserState struct {
	State     string
	Timestamp time.Time
	Data      map[string]string
}

// quizState is a user's running quiz. settled is set once FinishQuiz
// succeeded so the same attempt is never rewarded twice.
type quizState struct {
	mu      sync.Mutex
	session *quiz.Session
	settled bool
}

// Deps are the services the bot drives
type Deps struct {
	Tracker    *progression.Tracker
	Progress   *kvstore.ProgressRepository
	Users      *database.UserRepository
	Curriculum *database.CurriculumRepository
	// Backend is nil when content and completions stay local
	Backend      *api.Client
	AdminUserIDs []int64
	Config       *BotConfig
	Log          *logger.Logger
}

// Bot represents the Telegram bot application
type Bot struct {
	token      string
	tracker    *progression.Tracker
	progress   *kvstore.ProgressRepository
	users      *database.UserRepository
	results    *database.QuizResultRepository
	curriculum *database.CurriculumRepository
	backend    *api.Client
	config     *BotConfig
	log        *logger.Logger
	now        func() time.Time

	apiMu sync.RWMutex
	api   messenger

	mu           sync.Mutex
	userStates   map[int64]UserState
	sessions     map[int64]*quizState
	adminUserIDs map[int64]bool
}

// New creates a new bot instance
func New(token string, deps Deps) (*Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is not set")
	}
	b, err := newBot(deps)
	if err != nil {
		return nil, err
	}
	b.token = token
	return b, nil
}

func newBot(deps Deps) (*Bot, error) {
	if deps.Tracker == nil || deps.Progress == nil || deps.Users == nil {
		return nil, fmt.Errorf("bot needs a tracker, a progress repository and a user repository")
	}
	if deps.Config == nil {
		deps.Config = DefaultConfig()
	}
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	b := &Bot{
		tracker:      deps.Tracker,
		progress:     deps.Progress,
		users:        deps.Users,
		results:      database.NewQuizResultRepository(),
		curriculum:   deps.Curriculum,
		backend:      deps.Backend,
		config:       deps.Config,
		log:          deps.Log,
		now:          time.Now,
		userStates:   make(map[int64]UserState),
		sessions:     make(map[int64]*quizState),
		adminUserIDs: make(map[int64]bool),
	}
	for _, id := range deps.AdminUserIDs {
		b.adminUserIDs[id] = true
	}
	return b, nil
}

// Start authorizes against Telegram and handles updates until ctx is done
func (b *Bot) Start(ctx context.Context) error {
	botAPI, err := tgbotapi.NewBotAPI(b.token)
	if err != nil {
		return fmt.Errorf("unable to create bot: %w", err)
	}
	b.setAPI(botAPI)
	b.log.Info("authorized on account", "username", botAPI.Self.UserName)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.config.PollTimeout
	updates := botAPI.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			botAPI.StopReceivingUpdates()
			b.log.Info("bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) setAPI(m messenger) {
	b.apiMu.Lock()
	defer b.apiMu.Unlock()
	b.api = m
}

func (b *Bot) client() messenger {
	b.apiMu.RLock()
	defer b.apiMu.RUnlock()
	return b.api
}

// SendStreakReminder implements the scheduler.Notifier interface
func (b *Bot) SendStreakReminder(telegramID int64, streak int) error {
	if b.client() == nil {
		return fmt.Errorf("bot is not connected yet")
	}
	days := "days"
	if streak == 1 {
		days = "day"
	}
	text := fmt.Sprintf("🔥 Your %d %s streak ends tonight! Finish a lesson today to keep it going.", streak, days)
	return b.send(telegramID, text, [][]MenuButton{{{Text: "🗺 Continue learning", CallbackData: actionMap}}})
}

// isAdmin checks if a user is an admin
func (b *Bot) isAdmin(userID int64) bool {
	return b.adminUserIDs[userID]
}

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	ctx, cancel := context.WithTimeout(ctx, b.config.UpdateTimeout)
	defer cancel()

	switch {
	case update.Message != nil && update.Message.From != nil:
		b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallbackQuery(ctx, update.CallbackQuery)
	}
}

func (b *Bot) send(chatID int64, text string, buttons [][]MenuButton) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if len(buttons) > 0 {
		msg.ReplyMarkup = createKeyboard(buttons)
	}
	return b.sendMessage(msg)
}

func (b *Bot) sendMessage(c tgbotapi.Chattable) error {
	if _, err := b.client().Send(c); err != nil {
		b.log.Warn("failed to send message", "error", err)
		return err
	}
	return nil
}

func (b *Bot) request(c tgbotapi.Chattable) {
	if _, err := b.client().Request(c); err != nil {
		b.log.Warn("telegram request failed", "error", err)
	}
}

// reportError tells the user what went wrong, offering retry where it helps
func (b *Bot) reportError(chatID int64, err error, retry string) {
	buttons := [][]MenuButton{{{Text: "🏠 Menu", CallbackData: actionMenu}}}
	if retry != "" && (apperr.Is(err, apperr.Network) || apperr.Is(err, apperr.Unauthorized)) {
		buttons = [][]MenuButton{{{Text: "🔄 Try again", CallbackData: retry}, {Text: "🏠 Menu", CallbackData: actionMenu}}}
	}
	if apperr.KindOf(err) == apperr.Internal && !errors.Is(err, progression.ErrQuizNotFinished) {
		b.log.Error("request failed", "chat_id", chatID, "error", err)
	}
	_ = b.send(chatID, errorText(err), buttons)
}

func (b *Bot) getState(userID int64) (UserState, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	state, ok := b.userStates[userID]
	if !ok {
		return UserState{}, false
	}
	if b.now().Sub(state.Timestamp) > b.config.StateTTL {
		delete(b.userStates, userID)
		return UserState{}, false
	}
	return state, true
}

func (b *Bot) setState(userID int64, state string, data map[string]string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.userStates[userID] = UserState{State: state, Timestamp: b.now(), Data: data}
}

func (b *Bot) clearState(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.userStates, userID)
}

func (b *Bot) quiz(userID int64) (*quizState, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	qs, ok := b.sessions[userID]
	return qs, ok
}

func (b *Bot) setQuiz(userID int64, s *quiz.Session) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions[userID] = &quizState{session: s}
}

func (b *Bot) dropQuiz(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.sessions, userID)
}

// userKey is the tracker's user id for a Telegram user
func userKey(telegramID int64) string {
	return strconv.FormatInt(telegramID, 10)
}
