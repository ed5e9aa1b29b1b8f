package progression

import (
	"github.com/example/signlingo/internal/quiz"
	"github.com/example/signlingo/pkg/models"
)

// ApplyReward credits a passed quiz: the lesson's xp goes to the profile and
// the lesson is marked completed. For any other result profile and lesson
// come back unchanged with applied == false. Deduplication is the caller's job.
func ApplyReward(profile models.UserProfile, lesson models.Lesson, result quiz.Result) (models.UserProfile, models.Lesson, bool) {
	if !result.Finished || !result.Passed {
		return profile, lesson, false
	}
	if lesson.XPReward > 0 {
		profile.XP += lesson.XPReward
	}
	if !lesson.Completed {
		profile.LessonsCompleted++
	}
	lesson.Completed = true
	return profile, lesson, true
}
