package progression

import "github.com/example/signlingo/pkg/models"

// Achievement is a badge with progress towards a target
type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Target      int    `json:"max_progress"`
	Progress    int    `json:"progress"`
	Unlocked    bool   `json:"unlocked"`
}

type achievementDef struct {
	Achievement
	measure func(models.UserProfile, []models.Unit) int
}

var achievementDefs = []achievementDef{
	{Achievement{ID: "first_lesson", Title: "First Steps", Description: "Complete your first lesson", Icon: "🎯", Target: 1}, lessonsDone},
	{Achievement{ID: "streak_3", Title: "Getting Started", Description: "Maintain a 3-day streak", Icon: "🔥", Target: 3}, streak},
	{Achievement{ID: "streak_7", Title: "Week Warrior", Description: "Maintain a 7-day streak", Icon: "⚡", Target: 7}, streak},
	{Achievement{ID: "streak_30", Title: "Monthly Master", Description: "Maintain a 30-day streak", Icon: "🌟", Target: 30}, streak},
	{Achievement{ID: "xp_100", Title: "XP Hunter", Description: "Earn 100 XP", Icon: "⭐", Target: 100}, xp},
	{Achievement{ID: "xp_500", Title: "XP Champion", Description: "Earn 500 XP", Icon: "🏅", Target: 500}, xp},
	{Achievement{ID: "xp_1000", Title: "XP Legend", Description: "Earn 1000 XP", Icon: "🏆", Target: 1000}, xp},
	{Achievement{ID: "quiz_perfect", Title: "Perfect Score", Description: "Get 100% on a quiz", Icon: "💯", Target: 1}, func(p models.UserProfile, _ []models.Unit) int { return p.PerfectQuizzes }},
	{Achievement{ID: "lessons_5", Title: "Eager Learner", Description: "Complete 5 lessons", Icon: "📚", Target: 5}, lessonsDone},
	{Achievement{ID: "lessons_10", Title: "Dedicated Student", Description: "Complete 10 lessons", Icon: "🎓", Target: 10}, lessonsDone},
	{Achievement{ID: "alphabet_master", Title: "Alphabet Master", Description: "Learn all 26 ASL letters", Icon: "🔤", Target: 26}, lettersLearned},
	{Achievement{ID: "feedback_given", Title: "Voice Heard", Description: "Submit your first feedback", Icon: "💬", Target: 1}, func(p models.UserProfile, _ []models.Unit) int {
		if p.FeedbackGiven {
			return 1
		}
		return 0
	}},
}

func xp(p models.UserProfile, _ []models.Unit) int     { return p.XP }
func streak(p models.UserProfile, _ []models.Unit) int { return p.Streak }

func lessonsDone(p models.UserProfile, units []models.Unit) int {
	if n := CompletedCount(units); n > p.LessonsCompleted {
		return n
	}
	return p.LessonsCompleted
}

// lettersLearned counts distinct A-Z signs taught by completed lessons
func lettersLearned(_ models.UserProfile, units []models.Unit) int {
	seen := make(map[string]bool)
	for _, u := range units {
		for _, l := range u.Lessons {
			if !l.Completed {
				continue
			}
			for _, w := range l.Words {
				if len(w) == 1 && w[0] >= 'A' && w[0] <= 'Z' {
					seen[w] = true
				}
			}
		}
	}
	return len(seen)
}

// Achievements evaluates every badge for a profile and its curriculum state
func Achievements(profile models.UserProfile, units []models.Unit) []Achievement {
	out := make([]Achievement, len(achievementDefs))
	for i, def := range achievementDefs {
		a := def.Achievement
		a.Progress = def.measure(profile, units)
		if a.Progress > a.Target {
			a.Progress = a.Target
		}
		a.Unlocked = a.Progress >= a.Target
		out[i] = a
	}
	return out
}

// NewlyUnlocked returns badges unlocked in after but not in before
func NewlyUnlocked(before, after []Achievement) []Achievement {
	had := make(map[string]bool, len(before))
	for _, a := range before {
		if a.Unlocked {
			had[a.ID] = true
		}
	}
	var out []Achievement
	for _, a := range after {
		if a.Unlocked && !had[a.ID] {
			out = append(out, a)
		}
	}
	return out
}
