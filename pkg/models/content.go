package models

// Media types used by sign items and questions
const (
	MediaImage = "image"
	MediaVideo = "video"
)

// Question types
const (
	QuestionPickSign = "pick_sign" // Prompt is a word, options are signs
	QuestionPickWord = "pick_word" // Prompt is a sign, options are words
	QuestionDescribe = "describe"  // Prompt describes how a sign is made, options are words
)

// SignItem is one flashcard of a lesson
type SignItem struct {
	Word        string `json:"word" db:"word"`
	Display     string `json:"display" db:"display"`
	Description string `json:"description" db:"description"`
	MediaType   string `json:"media_type" db:"media_type"`
	MediaURL    string `json:"media_url" db:"media_url"`
}

// LessonContent is what the flashcard screen shows for a lesson
type LessonContent struct {
	LessonID int64      `json:"lesson_id"`
	Title    string     `json:"title"`
	Signs    []SignItem `json:"signs"`
}

// QuizOption is a candidate answer
type QuizOption struct {
	Word     string `json:"word"`
	Display  string `json:"display,omitempty"`
	MediaURL string `json:"media_url,omitempty"`
}

// Question is a single quiz question
type Question struct {
	ID            int          `json:"id"`
	Type          string       `json:"type"`
	Prompt        string       `json:"question"`
	CorrectAnswer string       `json:"correct_answer"`
	Options       []QuizOption `json:"options"`
	MediaType     string       `json:"media_type"`
	SignMediaURL  string       `json:"sign_media_url,omitempty"`
}

// QuizContent is the ordered question list of a lesson quiz
type QuizContent struct {
	LessonID       int64      `json:"lesson_id"`
	TotalQuestions int        `json:"total_questions"`
	Questions      []Question `json:"questions"`
}
