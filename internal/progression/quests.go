package progression

import (
	"time"

	"github.com/example/signlingo/pkg/models"
)

// Quest types
const (
	QuestPractice   = "practice"
	QuestVocabulary = "vocabulary"
	QuestQuiz       = "quiz"
)

// Quest is a daily task worth a fixed xp reward
type Quest struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	XPReward    int    `json:"xpReward"`
	Completed   bool   `json:"completed"`
	Type        string `json:"type"`
}

// QuestBoard is the set of quests for one calendar day
type QuestBoard struct {
	Date   string  `json:"date"` // YYYY-MM-DD
	Quests []Quest `json:"quests"`
}

// DefaultQuests is the board every day starts with
func DefaultQuests() []Quest {
	return []Quest{
		{ID: "1", Title: "Morning Practice", Description: "5 min daily practice", Icon: "🤟", XPReward: 10, Type: QuestPractice},
		{ID: "2", Title: "Vocabulary Builder", Description: "Learn 5 new signs", Icon: "📖", XPReward: 20, Type: QuestVocabulary},
		{ID: "3", Title: "Quiz Master", Description: "Weekly review session", Icon: "❓", XPReward: 15, Type: QuestQuiz},
	}
}

// Day formats t as the calendar day key used by quest boards and streaks
func Day(t time.Time) string {
	return t.Format("2006-01-02")
}

// FreshBoard returns the board for day, reusing stored when it is from the
// same day.
func FreshBoard(stored QuestBoard, found bool, day string) QuestBoard {
	if found && stored.Date == day && len(stored.Quests) > 0 {
		return stored
	}
	return QuestBoard{Date: day, Quests: DefaultQuests()}
}

// CompleteQuest marks a quest done and credits its xp once. ok is false for
// unknown or already completed quests.
func CompleteQuest(board QuestBoard, profile models.UserProfile, questID string) (QuestBoard, models.UserProfile, bool) {
	quests := append([]Quest(nil), board.Quests...)
	for i, q := range quests {
		if q.ID != questID {
			continue
		}
		if q.Completed {
			return board, profile, false
		}
		quests[i].Completed = true
		profile.XP += q.XPReward
		board.Quests = quests
		return board, profile, true
	}
	return board, profile, false
}

// AllQuestsDone reports whether the whole board is completed
func (b QuestBoard) AllQuestsDone() bool {
	for _, q := range b.Quests {
		if !q.Completed {
			return false
		}
	}
	return len(b.Quests) > 0
}

// CompletedQuests counts completed quests
func (b QuestBoard) CompletedQuests() int {
	n := 0
	for _, q := range b.Quests {
		if q.Completed {
			n++
		}
	}
	return n
}
