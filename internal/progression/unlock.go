// Package progression decides which lessons a learner may open, applies
// quiz rewards and coordinates a learner's quiz attempts.
package progression

import "github.com/example/signlingo/pkg/models"

// IsUnitLocked: unit i is locked iff i > 0 and some lesson of unit i-1 is
// not completed. Out-of-range units are locked.
func IsUnitLocked(units []models.Unit, unitIndex int) bool {
	if unitIndex < 0 || unitIndex >= len(units) {
		return true
	}
	if unitIndex == 0 {
		return false
	}
	for _, l := range units[unitIndex-1].Lessons {
		if !l.Completed {
			return true
		}
	}
	return false
}

// IsLessonLocked applies the sequential rule. A completed lesson is never
// locked; the first lesson overall never is either.
func IsLessonLocked(units []models.Unit, unitIndex, lessonIndex int) bool {
	if unitIndex < 0 || unitIndex >= len(units) {
		return true
	}
	lessons := units[unitIndex].Lessons
	if lessonIndex < 0 || lessonIndex >= len(lessons) {
		return true
	}
	if lessons[lessonIndex].Completed {
		return false
	}
	if unitIndex == 0 && lessonIndex == 0 {
		return false
	}
	if IsUnitLocked(units, unitIndex) {
		return true
	}
	if lessonIndex > 0 {
		return !lessons[lessonIndex-1].Completed
	}
	prev, ok := previousUnitLastLesson(units, unitIndex)
	if !ok {
		// only empty units before this one
		return false
	}
	return !prev.Completed
}

func previousUnitLastLesson(units []models.Unit, unitIndex int) (models.Lesson, bool) {
	for i := unitIndex - 1; i >= 0; i-- {
		if n := len(units[i].Lessons); n > 0 {
			return units[i].Lessons[n-1], true
		}
	}
	return models.Lesson{}, false
}

// FindLesson returns the unit and lesson index of a lesson id
func FindLesson(units []models.Unit, lessonID int64) (unitIndex, lessonIndex int, ok bool) {
	for i, u := range units {
		for j, l := range u.Lessons {
			if l.ID == lessonID {
				return i, j, true
			}
		}
	}
	return -1, -1, false
}

// IsSelectable reports whether the lesson can be opened right now. Unknown
// lessons, including any lesson of an empty curriculum, are not selectable.
func IsSelectable(units []models.Unit, lessonID int64) bool {
	i, j, ok := FindLesson(units, lessonID)
	if !ok {
		return false
	}
	return !IsLessonLocked(units, i, j)
}

// LockMap snapshots the lock state of every lesson, unit by unit
func LockMap(units []models.Unit) [][]bool {
	out := make([][]bool, len(units))
	for i, u := range units {
		out[i] = make([]bool, len(u.Lessons))
		for j := range u.Lessons {
			out[i][j] = IsLessonLocked(units, i, j)
		}
	}
	return out
}

// UnitProgress is the percentage of completed lessons in a unit
func UnitProgress(unit models.Unit) float64 {
	if len(unit.Lessons) == 0 {
		return 0
	}
	done := 0
	for _, l := range unit.Lessons {
		if l.Completed {
			done++
		}
	}
	return float64(done) / float64(len(unit.Lessons)) * 100
}

// CompletedCount counts completed lessons across the curriculum
func CompletedCount(units []models.Unit) int {
	n := 0
	for _, u := range units {
		for _, l := range u.Lessons {
			if l.Completed {
				n++
			}
		}
	}
	return n
}

// NextLesson returns the first selectable, not yet completed lesson
func NextLesson(units []models.Unit) (models.Lesson, bool) {
	for i, u := range units {
		for j, l := range u.Lessons {
			if !l.Completed && !IsLessonLocked(units, i, j) {
				return l, true
			}
		}
	}
	return models.Lesson{}, false
}
