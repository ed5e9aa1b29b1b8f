package models

// Unit is an ordered group of lessons sharing a theme
type Unit struct {
	ID          int64    `json:"id" db:"id"`
	Title       string   `json:"title" db:"title"`
	Description string   `json:"description" db:"description"`
	Icon        string   `json:"icon" db:"icon"` // Icon or category tag shown on the map
	Position    int      `json:"position" db:"position"`
	Lessons     []Lesson `json:"lessons" db:"-"`
}

// Lesson presents a few signs followed by a quiz
type Lesson struct {
	ID        int64    `json:"id" db:"id"`
	UnitID    int64    `json:"unit_id" db:"unit_id"`
	Title     string   `json:"title" db:"title"`
	Words     []string `json:"words" db:"-"` // Target vocabulary, in teaching order
	XPReward  int      `json:"xp" db:"xp_reward"`
	Position  int      `json:"position" db:"position"`
	Completed bool     `json:"completed" db:"-"`
}

// CloneUnits deep-copies a curriculum so completion flags can be overlaid
// without touching the static definition.
func CloneUnits(units []Unit) []Unit {
	out := make([]Unit, len(units))
	for i, u := range units {
		out[i] = u
		out[i].Lessons = make([]Lesson, len(u.Lessons))
		for j, l := range u.Lessons {
			out[i].Lessons[j] = l
			out[i].Lessons[j].Words = append([]string(nil), l.Words...)
		}
	}
	return out
}
