package quiz

import (
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/example/signlingo/pkg/models"
)

// DefaultOptionCount is the number of options per question, correct one included
const DefaultOptionCount = 4

// Generator builds multiple-choice quizzes from lesson vocabulary
type Generator struct {
	rnd         *rand.Rand
	OptionCount int
}

// NewGenerator creates a generator seeded from the clock
func NewGenerator() *Generator {
	return NewSeededGenerator(time.Now().UnixNano())
}

// NewSeededGenerator creates a deterministic generator
func NewSeededGenerator(seed int64) *Generator {
	return &Generator{
		rnd:         rand.New(rand.NewSource(seed)),
		OptionCount: DefaultOptionCount,
	}
}

// Build creates one question per lesson word, in shuffled order. Signs with
// media alternate between picking the sign for a word and naming a shown
// sign; a sign without media is asked from its description. Distractors
// come from the same unit first and from the rest of the curriculum after.
func (g *Generator) Build(lesson models.Lesson, unitSigns, allSigns []models.SignItem) models.QuizContent {
	byWord := make(map[string]models.SignItem, len(allSigns))
	for _, s := range allSigns {
		byWord[s.Word] = s
	}
	for _, s := range unitSigns {
		if _, ok := byWord[s.Word]; !ok {
			byWord[s.Word] = s
		}
	}

	words := append([]string(nil), lesson.Words...)
	g.rnd.Shuffle(len(words), func(i, j int) {
		words[i], words[j] = words[j], words[i]
	})

	questions := make([]models.Question, 0, len(words))
	for i, w := range words {
		sign, ok := byWord[w]
		if !ok {
			sign = models.SignItem{Word: w, Display: w, MediaType: models.MediaImage}
		}

		distractors := g.incorrectOptions(w, unitSigns, allSigns, g.OptionCount-1)
		options := make([]models.QuizOption, 0, len(distractors)+1)
		options = append(options, option(sign))
		for _, d := range distractors {
			options = append(options, option(d))
		}
		g.rnd.Shuffle(len(options), func(a, b int) {
			options[a], options[b] = options[b], options[a]
		})

		q := models.Question{
			ID:            i + 1,
			CorrectAnswer: w,
			Options:       options,
			MediaType:     mediaType(sign),
		}
		switch {
		case sign.MediaURL == "":
			q.Type = models.QuestionDescribe
			q.Prompt = "Which sign is made this way?\n" + clue(sign)
		case i%2 == 0 && allHaveMedia(options):
			q.Type = models.QuestionPickSign
			q.Prompt = "Which sign means \"" + displayOf(sign) + "\"?"
		default:
			q.Type = models.QuestionPickWord
			q.Prompt = "What does this sign mean?"
			q.SignMediaURL = sign.MediaURL
		}
		questions = append(questions, q)
	}

	return models.QuizContent{
		LessonID:       lesson.ID,
		TotalQuestions: len(questions),
		Questions:      questions,
	}
}

// incorrectOptions picks up to count distinct signs other than word
func (g *Generator) incorrectOptions(word string, unitSigns, allSigns []models.SignItem, count int) []models.SignItem {
	options := make([]models.SignItem, 0, count)
	seen := map[string]bool{word: true}

	pick := func(pool []models.SignItem) {
		shuffled := append([]models.SignItem(nil), pool...)
		g.rnd.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		for _, s := range shuffled {
			if len(options) >= count {
				return
			}
			if seen[s.Word] {
				continue
			}
			seen[s.Word] = true
			options = append(options, s)
		}
	}

	pick(unitSigns)
	if len(options) < count {
		pick(allSigns)
	}
	return options
}

func allHaveMedia(options []models.QuizOption) bool {
	for _, o := range options {
		if o.MediaURL == "" {
			return false
		}
	}
	return true
}

// clue is the sign's description with its own name blanked out
func clue(s models.SignItem) string {
	text := s.Description
	for _, name := range []string{displayOf(s), strings.ReplaceAll(s.Word, "_", " ")} {
		if len([]rune(name)) < 2 {
			continue
		}
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(name) + `\b`)
		text = re.ReplaceAllString(text, "…")
	}
	if strings.TrimSpace(text) == "" {
		return "(no description)"
	}
	return text
}

func option(s models.SignItem) models.QuizOption {
	return models.QuizOption{Word: s.Word, Display: displayOf(s), MediaURL: s.MediaURL}
}

func displayOf(s models.SignItem) string {
	if s.Display != "" {
		return s.Display
	}
	return s.Word
}

func mediaType(s models.SignItem) string {
	if s.MediaType != "" {
		return s.MediaType
	}
	return models.MediaImage
}
