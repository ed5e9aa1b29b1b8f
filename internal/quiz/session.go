package quiz

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/example/signlingo/pkg/models"
)

const (
	// DefaultHearts is the number of wrong answers a session tolerates
	DefaultHearts = 3
	// PassPercentage is the minimum accuracy to pass
	PassPercentage = 60
)

// ErrMalformedQuiz marks quiz content that cannot start a session
var ErrMalformedQuiz = errors.New("malformed quiz content")

// State of a session
type State int

const (
	InProgress State = iota
	Answered
	Finished
)

func (s State) String() string {
	switch s {
	case InProgress:
		return "in_progress"
	case Answered:
		return "answered"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// Feedback is what the player sees after submitting an answer
type Feedback struct {
	Correct       bool
	CorrectAnswer string
	Hearts        int
	Score         int
	// OutOfHearts is set when this answer used the last heart
	OutOfHearts bool
}

// Result summarizes a session
type Result struct {
	Score      int
	Total      int
	Hearts     int
	Percentage int // rounded, as reported to the backend
	Passed     bool
	Finished   bool
}

// Perfect reports a finished quiz with every answer correct
func (r Result) Perfect() bool {
	return r.Finished && r.Total > 0 && r.Score == r.Total
}

// Session is one attempt at a lesson quiz
type Session struct {
	ID       uuid.UUID
	LessonID int64

	questions   []models.Question
	index       int
	hearts      int
	score       int
	state       State
	lastCorrect bool
}

// Validate rejects content a session cannot be built from
func Validate(content models.QuizContent) error {
	if len(content.Questions) == 0 {
		return fmt.Errorf("%w: lesson %d has no questions", ErrMalformedQuiz, content.LessonID)
	}
	for i, q := range content.Questions {
		if strings.TrimSpace(q.CorrectAnswer) == "" {
			return fmt.Errorf("%w: question %d has no correct answer", ErrMalformedQuiz, i)
		}
		if len(q.Options) == 0 {
			return fmt.Errorf("%w: question %d has no options", ErrMalformedQuiz, i)
		}
		found := false
		for _, o := range q.Options {
			if o.Word == q.CorrectAnswer {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: question %d: correct answer %q is not an option", ErrMalformedQuiz, i, q.CorrectAnswer)
		}
	}
	return nil
}

// NewSession validates content and starts at question zero with full hearts
func NewSession(content models.QuizContent) (*Session, error) {
	if err := Validate(content); err != nil {
		return nil, err
	}
	s := &Session{ID: uuid.New()}
	s.reset(content)
	return s, nil
}

func (s *Session) reset(content models.QuizContent) {
	s.LessonID = content.LessonID
	s.questions = append([]models.Question(nil), content.Questions...)
	s.index = 0
	s.hearts = DefaultHearts
	s.score = 0
	s.state = InProgress
	s.lastCorrect = false
}

// Restart begins the quiz again from question zero with fresh content.
// On invalid content the session is left untouched.
func (s *Session) Restart(content models.QuizContent) error {
	if err := Validate(content); err != nil {
		return err
	}
	s.ID = uuid.New()
	s.reset(content)
	return nil
}

// State returns the current state
func (s *Session) State() State { return s.state }

// Index is the zero-based index of the current question
func (s *Session) Index() int { return s.index }

// Hearts left
func (s *Session) Hearts() int { return s.hearts }

// Score is the number of correct answers so far
func (s *Session) Score() int { return s.score }

// Total number of questions
func (s *Session) Total() int { return len(s.questions) }

// Current returns the question being answered; false once finished
func (s *Session) Current() (models.Question, bool) {
	if s.state == Finished || s.index >= len(s.questions) {
		return models.Question{}, false
	}
	return s.questions[s.index], true
}

// Progress is the percentage of the quiz reached, counting the current question
func (s *Session) Progress() int {
	if len(s.questions) == 0 {
		return 0
	}
	return (s.index + 1) * 100 / len(s.questions)
}

// Submit scores an answer to the current question. It is accepted only
// while InProgress; otherwise ok is false and nothing changes.
func (s *Session) Submit(selected string) (fb Feedback, ok bool) {
	if s.state != InProgress {
		return Feedback{}, false
	}
	q := s.questions[s.index]
	correct := selected == q.CorrectAnswer
	if correct {
		s.score++
	} else if s.hearts > 0 {
		s.hearts--
	}
	s.lastCorrect = correct
	s.state = Answered

	return Feedback{
		Correct:       correct,
		CorrectAnswer: q.CorrectAnswer,
		Hearts:        s.hearts,
		Score:         s.score,
		OutOfHearts:   !correct && s.hearts == 0,
	}, true
}

// Advance dismisses the feedback of the last answer. With no hearts left
// the session finishes immediately, failed, whatever questions remain.
func (s *Session) Advance() State {
	if s.state != Answered {
		return s.state
	}
	switch {
	case s.hearts == 0:
		s.state = Finished
	case s.index < len(s.questions)-1:
		s.index++
		s.state = InProgress
	default:
		s.state = Finished
	}
	return s.state
}

// Result reports score and outcome. Passed is only ever true once finished.
func (s *Session) Result() Result {
	total := len(s.questions)
	r := Result{
		Score:    s.score,
		Total:    total,
		Hearts:   s.hearts,
		Finished: s.state == Finished,
	}
	if total > 0 {
		r.Percentage = (s.score*200 + total) / (2 * total)
	}
	r.Passed = r.Finished && Passed(s.score, total, s.hearts)
	return r
}

// Passed is the pass rule: hearts left and accuracy of at least 60%
func Passed(score, total, hearts int) bool {
	if total <= 0 || hearts <= 0 {
		return false
	}
	return score*100 >= PassPercentage*total
}
