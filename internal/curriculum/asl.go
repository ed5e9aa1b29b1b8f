// Package curriculum holds the built-in ASL course used when no curriculum
// file or backend is configured.
package curriculum

import (
	"strings"

	"github.com/example/signlingo/pkg/models"
)

type lessonDef struct {
	id    int64
	title string
	words []string
	xp    int
}

type unitDef struct {
	id          int64
	title       string
	description string
	icon        string
	lessons     []lessonDef
}

var aslUnits = []unitDef{
	{1, "Greetings & Basics", "Essential first signs", "hand-left", []lessonDef{
		{1, "Hello & Welcome", []string{"HELLO", "WELCOME"}, 10},
		{2, "Yes & No", []string{"YES", "NO"}, 10},
		{3, "Please & Thank You", []string{"PLEASE", "THANK_YOU"}, 10},
		{4, "Sorry & Fine", []string{"SORRY", "FINE"}, 10},
		{5, "OK & Good Bye", []string{"OK", "GOOD_BYE"}, 10},
		{6, "Practice Greetings", []string{"HELLO", "GOOD_BYE", "YES", "NO", "PLEASE", "THANK_YOU", "SORRY", "FINE", "OK", "WELCOME"}, 20},
	}},
	{2, "Alphabet A-M", "First 13 letters", "text", []lessonDef{
		{7, "Letters A, B, C", []string{"A", "B", "C"}, 10},
		{8, "Letters D, E, F", []string{"D", "E", "F"}, 10},
		{9, "Letters G, H, I", []string{"G", "H", "I"}, 10},
		{10, "Letters J, K, L, M", []string{"J", "K", "L", "M"}, 10},
		{11, "Practice A-M", []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L", "M"}, 20},
	}},
	{3, "Alphabet N-Z", "Last 13 letters", "text", []lessonDef{
		{12, "Letters N, O, P", []string{"N", "O", "P"}, 10},
		{13, "Letters Q, R, S", []string{"Q", "R", "S"}, 10},
		{14, "Letters T, U, V", []string{"T", "U", "V"}, 10},
		{15, "Letters W, X, Y, Z", []string{"W", "X", "Y", "Z"}, 10},
		{16, "Practice N-Z", []string{"N", "O", "P", "Q", "R", "S", "T", "U", "V", "W", "X", "Y", "Z"}, 20},
	}},
	{4, "Numbers 0-10", "Count with signs", "calculator", []lessonDef{
		{17, "Numbers 0-3", []string{"0", "1", "2", "3"}, 10},
		{18, "Numbers 4-6", []string{"4", "5", "6"}, 10},
		{19, "Numbers 7-10", []string{"7", "8", "9", "10"}, 10},
		{20, "Practice Numbers", []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}, 20},
	}},
	{5, "Personal & Pronouns", "Me, You, Family", "people", []lessonDef{
		{21, "Me & You", []string{"ME", "YOU"}, 10},
		{22, "He/She & My/Your", []string{"HE/SHE", "MY", "YOUR"}, 10},
		{23, "Mother & Father", []string{"MOTHER", "FATHER"}, 10},
		{24, "Child & Family", []string{"CHILD", "UNCLE", "AUNT"}, 10},
		{25, "Practice Personal", []string{"ME", "YOU", "HE/SHE", "MY", "YOUR", "MOTHER", "FATHER", "CHILD", "UNCLE", "AUNT"}, 20},
	}},
	{6, "Emotions & States", "Express feelings", "heart", []lessonDef{
		{26, "Good & Bad", []string{"GOOD", "BAD"}, 10},
		{27, "Like & Proud", []string{"LIKE", "PROUD"}, 10},
		{28, "Mad & Funny", []string{"MAD", "FUNNY"}, 10},
		{29, "Hungry & Thirsty", []string{"HUNGRY", "THIRSTY"}, 10},
		{30, "Lonely & Hot", []string{"LONELY", "HOT"}, 10},
		{31, "Practice Emotions", []string{"GOOD", "BAD", "LIKE", "PROUD", "MAD", "FUNNY", "HUNGRY", "THIRSTY", "LONELY", "HOT"}, 20},
	}},
	{7, "Questions & Directions", "Ask and navigate", "help-circle", []lessonDef{
		{32, "Who & Where", []string{"WHO", "WHERE"}, 10},
		{33, "Why & Later", []string{"WHY", "LATER"}, 10},
		{34, "Soon & Same", []string{"SOON", "SAME"}, 10},
		{35, "Left & Right", []string{"LEFT", "RIGHT"}, 10},
		{36, "Yesterday & Tomorrow", []string{"YESTERDAY", "TOMORROW"}, 10},
		{37, "Practice Questions", []string{"WHO", "WHERE", "WHY", "LATER", "SOON", "SAME", "LEFT", "RIGHT", "YESTERDAY", "TOMORROW"}, 20},
	}},
	{8, "Daily Essentials", "Important everyday words", "home", []lessonDef{
		{38, "True & False", []string{"TRUE", "FALSE"}, 10},
		{39, "Water & Food", []string{"WATER", "FOOD"}, 10},
		{40, "Home & Phone", []string{"HOME", "PHONE"}, 10},
		{41, "Need & Bathroom", []string{"NEED", "BATHROOM"}, 10},
		{42, "Finish & Understand", []string{"FINISH", "UNDERSTAND"}, 10},
		{43, "Practice Daily Words", []string{"TRUE", "FALSE", "WATER", "FOOD", "HOME", "PHONE", "NEED", "BATHROOM", "FINISH", "UNDERSTAND"}, 20},
	}},
}

// Default returns a fresh copy of the built-in ASL course
func Default() []models.Unit {
	units := make([]models.Unit, len(aslUnits))
	for i, u := range aslUnits {
		units[i] = models.Unit{
			ID:          u.id,
			Title:       u.title,
			Description: u.description,
			Icon:        u.icon,
			Position:    i + 1,
		}
		for j, l := range u.lessons {
			units[i].Lessons = append(units[i].Lessons, models.Lesson{
				ID:       l.id,
				UnitID:   u.id,
				Title:    l.title,
				Words:    append([]string(nil), l.words...),
				XPReward: l.xp,
				Position: j + 1,
			})
		}
	}
	return units
}

// Signs returns one sign item per distinct word of units, in curriculum order
func Signs(units []models.Unit) []models.SignItem {
	seen := make(map[string]bool)
	var out []models.SignItem
	for _, u := range units {
		for _, l := range u.Lessons {
			for _, w := range l.Words {
				if seen[w] {
					continue
				}
				seen[w] = true
				out = append(out, NewSign(w, u.Title))
			}
		}
	}
	return out
}

// howTo describes how each built-in sign is formed. The texts never name
// the sign, so they double as quiz clues when a sign has no picture.
var howTo = map[string]string{
	"HELLO":     "Flat hand starts at the side of the forehead and moves outward, like a salute.",
	"WELCOME":   "Flat hand, palm up, sweeps in toward the body as if inviting someone in.",
	"YES":       "A fist bobs up and down at the wrist, like a nodding head.",
	"NO":        "Index and middle fingers snap shut onto the thumb.",
	"PLEASE":    "Flat hand rubs a circle on the chest.",
	"THANK_YOU": "Fingertips of a flat hand touch the chin, then move forward and down.",
	"SORRY":     "A fist rubs a circle on the chest.",
	"FINE":      "Open hand with spread fingers, the thumb tapping the chest.",
	"OK":        "Thumb and index finger touch in a circle, then index and middle fingers go up with the thumb between them.",
	"GOOD_BYE":  "Open hand faces out while the fingers fold down and up, a wave.",

	"A": "Fist with the thumb resting against the side of the index finger.",
	"B": "Flat hand, fingers together and pointing up, thumb folded across the palm.",
	"C": "Fingers and thumb curve into a half circle.",
	"D": "Index finger points up while the other fingers touch the thumb in a circle.",
	"E": "Fingertips curl down to rest on the thumb tucked across the palm.",
	"F": "Thumb and index finger touch in a circle, the other three fingers spread up.",
	"G": "Index finger and thumb point sideways, parallel, the rest of the hand closed.",
	"H": "Index and middle fingers together point sideways, palm facing in.",
	"I": "Fist with only the little finger pointing up.",
	"J": "Little finger up, then trace a hook down and curving toward you.",
	"K": "Index and middle fingers up in a V, the thumb touching the middle finger's base.",
	"L": "Thumb and index finger form a right angle, palm facing out.",
	"M": "Thumb tucked under the first three fingers, which fold over it.",
	"N": "Thumb tucked under the first two fingers, which fold over it.",
	"O": "All fingertips touch the thumb to form a round shape.",
	"P": "Index finger forward and middle finger down, thumb touching the middle finger, hand tipped downward.",
	"Q": "Index finger and thumb point down, parallel, the rest of the hand closed.",
	"R": "Index and middle fingers crossed, pointing up.",
	"S": "Closed fist with the thumb across the front of the fingers.",
	"T": "Thumb tucked between the index and middle fingers of a fist.",
	"U": "Index and middle fingers up and together, palm out.",
	"V": "Index and middle fingers up and apart, palm out.",
	"W": "Index, middle and ring fingers up and spread, the thumb holding the little finger down.",
	"X": "Index finger bent into a hook, the rest of the hand closed.",
	"Y": "Thumb and little finger stretched out, the middle fingers folded.",
	"Z": "Index finger traces a zigzag in the air.",

	"0":  "All fingertips touch the thumb in a round shape, palm facing sideways.",
	"1":  "Index finger points up, palm facing you.",
	"2":  "Index and middle fingers up and spread, palm facing you.",
	"3":  "Thumb, index and middle fingers up and spread.",
	"4":  "Four fingers up and spread, thumb folded across the palm.",
	"5":  "Open hand, every finger and the thumb spread wide.",
	"6":  "Thumb touches the little finger, the other fingers up and spread.",
	"7":  "Thumb touches the ring finger, the other fingers up.",
	"8":  "Thumb touches the middle finger, the other fingers up.",
	"9":  "Thumb touches the index finger, the other fingers up.",
	"10": "Thumbs-up fist shaken side to side.",

	"ME":     "Index finger points to your own chest.",
	"YOU":    "Index finger points forward at the other person.",
	"HE/SHE": "Index finger points to the side, at someone outside the conversation.",
	"MY":     "Flat palm placed against the chest, without moving.",
	"YOUR":   "Flat palm pushes forward toward the other person.",
	"MOTHER": "Thumb of an open, spread hand taps the chin.",
	"FATHER": "Thumb of an open, spread hand taps the forehead.",
	"CHILD":  "Flat palm facing down pats the air at the height of a small kid.",
	"UNCLE":  "Index and middle fingers together, shaken near the temple.",
	"AUNT":   "Fist with the thumb at its side, shaken near the cheek.",

	"GOOD":    "Fingertips of a flat hand touch the chin, then drop onto the other palm.",
	"BAD":     "Fingertips touch the chin, then the hand flips down, palm facing the floor.",
	"LIKE":    "Thumb and middle finger pinch together as the hand pulls away from the chest.",
	"PROUD":   "Thumb tip draws a line up the middle of the chest.",
	"MAD":     "Clawed hand in front of the face pulls slightly toward it, tense.",
	"FUNNY":   "Index and middle fingers brush down the tip of the nose twice.",
	"HUNGRY":  "Curved hand slides down the middle of the chest.",
	"THIRSTY": "Index finger traces a line down the throat.",
	"LONELY":  "Index finger, palm in, moves slowly down in front of the lips.",
	"HOT":     "Clawed hand at the mouth twists and flings away, as if removing something burning.",

	"WHO":       "Thumb on the chin while the index finger wiggles, eyebrows down.",
	"WHERE":     "Index finger points up and wags side to side.",
	"WHY":       "Fingertips touch the forehead, then pull away as thumb and little finger stretch out.",
	"LATER":     "Thumb and index finger form a right angle on the other palm, the index tipping forward.",
	"SOON":      "Fingertips of a circle handshape brush the chin a couple of times.",
	"SAME":      "Thumb and little finger out, the hand moving back and forth between two people.",
	"LEFT":      "Thumb and index finger form a right angle, palm out, moving toward the heart side.",
	"RIGHT":     "Crossed index and middle fingers move away from the heart side.",
	"YESTERDAY": "Thumb of a thumb-and-little-finger hand touches the cheek and moves back toward the ear.",
	"TOMORROW":  "Thumb of a fist on the cheek moves forward in an arc.",

	"TRUE":       "Index finger moves forward from the lips in a straight line.",
	"FALSE":      "Index finger brushes past the nose, sweeping to the side.",
	"WATER":      "Three spread fingers tap the chin twice.",
	"FOOD":       "Fingertips pinched together tap the lips.",
	"HOME":       "Pinched fingertips touch the corner of the mouth, then the cheek.",
	"PHONE":      "Thumb and little finger held at the ear like a receiver.",
	"NEED":       "Hooked index finger bends down firmly, twice.",
	"BATHROOM":   "Fist with the thumb between the first two fingers, shaken side to side.",
	"FINISH":     "Open hands, palms in, flip outward quickly.",
	"UNDERSTAND": "Fist by the temple, the index finger flicking up.",
}

// NewSign builds the sign item of a word with the default description
func NewSign(word, unitTitle string) models.SignItem {
	return models.SignItem{
		Word:        word,
		Display:     Display(word),
		Description: describe(word, unitTitle),
		MediaType:   models.MediaImage,
	}
}

// Display turns a sign word into its label: THANK_YOU -> Thank You,
// A -> Letter A, 7 -> Number 7.
func Display(word string) string {
	switch {
	case len(word) == 1 && word[0] >= 'A' && word[0] <= 'Z':
		return "Letter " + word
	case isNumber(word):
		return "Number " + word
	case len(word) <= 2:
		return word
	}
	parts := strings.FieldsFunc(strings.ToLower(word), func(r rune) bool { return r == '_' || r == ' ' })
	for i, p := range parts {
		parts[i] = capitalize(p)
	}
	return strings.Join(parts, " ")
}

// capitalize upper-cases the first letter and any letter after a slash
func capitalize(s string) string {
	b := []byte(s)
	upper := true
	for i, c := range b {
		if upper && c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
		upper = c == '/'
	}
	return string(b)
}

func isNumber(word string) bool {
	if word == "" {
		return false
	}
	for _, c := range word {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func describe(word, unitTitle string) string {
	if d, ok := howTo[word]; ok {
		return d
	}
	switch {
	case len(word) == 1 && word[0] >= 'A' && word[0] <= 'Z':
		return "The letter " + word + " in the ASL manual alphabet"
	case word[0] >= '0' && word[0] <= '9':
		return "The number " + word + " in ASL"
	case unitTitle != "":
		return "ASL sign for \"" + Display(word) + "\" (" + unitTitle + ")"
	default:
		return "ASL sign for \"" + Display(word) + "\""
	}
}
