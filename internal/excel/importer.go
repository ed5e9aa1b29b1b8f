package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/signlingo/internal/curriculum"
	"github.com/example/signlingo/internal/database"
	"github.com/example/signlingo/pkg/models"
)

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath          string // Path to the Excel or CSV file
	UnitColumn        string // Column with the unit title; empty cells continue the previous unit
	IconColumn        string // Column with the unit icon
	LessonIDColumn    string // Column with the lesson id
	LessonTitleColumn string // Column with the lesson title
	WordsColumn       string // Column with the lesson words, separated by ";" or ","
	XPColumn          string // Column with the xp reward
	SheetName         string // Name of the sheet to import
	StartRow          int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		UnitColumn:        "A",
		IconColumn:        "B",
		LessonIDColumn:    "C",
		LessonTitleColumn: "D",
		WordsColumn:       "E",
		XPColumn:          "F",
		SheetName:         "Sheet1",
		StartRow:          2, // By default, start from the second row (skip header)
	}
}

// DefaultLessonXP is used when a row has no valid xp
const DefaultLessonXP = 10

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	UnitsCreated   int
	LessonsCreated int
	Skipped        int
	Errors         []string
	Units          []models.Unit
}

// Import parses the file and replaces the stored curriculum with it. Nothing
// is written when no lesson could be read.
func Import(ctx context.Context, config ImportConfig, repo *database.CurriculumRepository) (*ImportResult, error) {
	result, err := Parse(config)
	if err != nil {
		return nil, err
	}
	if result.LessonsCreated == 0 {
		return result, fmt.Errorf("no lessons found in %s", config.FilePath)
	}
	if err := repo.Replace(ctx, result.Units, curriculum.Signs(result.Units)); err != nil {
		return result, fmt.Errorf("failed to store curriculum: %w", err)
	}
	return result, nil
}

// Parse reads a curriculum from an Excel or CSV file
func Parse(config ImportConfig) (*ImportResult, error) {
	ext := strings.ToLower(filepath.Ext(config.FilePath))

	var (
		rows [][]string
		err  error
	)
	if ext == ".csv" {
		rows, err = readCSV(config.FilePath)
	} else {
		rows, err = readExcel(config.FilePath, config.SheetName)
	}
	if err != nil {
		return nil, err
	}

	b := newBuilder()
	for i, row := range rows {
		// Skip header rows
		if i < config.StartRow-1 {
			continue
		}
		if isBlank(row) {
			continue
		}
		b.result.TotalProcessed++
		if err := b.add(row, config); err != nil {
			b.result.Skipped++
			b.result.Errors = append(b.result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
		}
	}
	return b.finish(), nil
}

// readExcel returns all rows of a sheet
func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

// readCSV returns all records of a CSV file
func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

type builder struct {
	result      *ImportResult
	unitIndex   map[string]int
	lessonIDs   map[int64]bool
	currentUnit int
}

func newBuilder() *builder {
	return &builder{
		result:      &ImportResult{Errors: make([]string, 0)},
		unitIndex:   make(map[string]int),
		lessonIDs:   make(map[int64]bool),
		currentUnit: -1,
	}
}

// add turns one row into a lesson of its unit
func (b *builder) add(row []string, config ImportConfig) error {
	unitTitle := strings.TrimSpace(cell(row, config.UnitColumn))
	if unitTitle != "" {
		b.currentUnit = b.unit(unitTitle, strings.TrimSpace(cell(row, config.IconColumn)))
	}
	if b.currentUnit < 0 {
		return fmt.Errorf("no unit given")
	}

	id, err := strconv.ParseInt(strings.TrimSpace(cell(row, config.LessonIDColumn)), 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid lesson id %q", cell(row, config.LessonIDColumn))
	}
	if b.lessonIDs[id] {
		return fmt.Errorf("duplicate lesson id %d", id)
	}

	title := strings.TrimSpace(cell(row, config.LessonTitleColumn))
	if title == "" {
		return fmt.Errorf("lesson title cannot be empty")
	}

	words := splitWords(cell(row, config.WordsColumn))
	if len(words) == 0 {
		return fmt.Errorf("lesson %d has no words", id)
	}

	unit := &b.result.Units[b.currentUnit]
	b.lessonIDs[id] = true
	unit.Lessons = append(unit.Lessons, models.Lesson{
		ID:       id,
		UnitID:   unit.ID,
		Title:    title,
		Words:    words,
		XPReward: parseIntOrDefault(cell(row, config.XPColumn), 1, 100, DefaultLessonXP),
		Position: len(unit.Lessons) + 1,
	})
	b.result.LessonsCreated++
	return nil
}

// unit returns the index of the unit with title, creating it on first use
func (b *builder) unit(title, icon string) int {
	key := strings.ToLower(title)
	if i, ok := b.unitIndex[key]; ok {
		return i
	}
	b.result.Units = append(b.result.Units, models.Unit{
		ID:       int64(len(b.result.Units) + 1),
		Title:    title,
		Icon:     icon,
		Position: len(b.result.Units) + 1,
	})
	b.result.UnitsCreated++
	b.unitIndex[key] = len(b.result.Units) - 1
	return len(b.result.Units) - 1
}

// finish drops units that ended up without lessons
func (b *builder) finish() *ImportResult {
	units := b.result.Units[:0]
	for _, u := range b.result.Units {
		if len(u.Lessons) > 0 {
			units = append(units, u)
		}
	}
	b.result.Units = units
	b.result.UnitsCreated = len(units)
	return b.result
}

// splitWords normalises a word list cell: upper case, underscores for spaces
func splitWords(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == ',' || r == '\n' })
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.Join(strings.Fields(strings.ToUpper(f)), "_")
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}

func cell(row []string, column string) string {
	if column == "" {
		return ""
	}
	if idx := columnToIndex(column); idx >= 0 && idx < len(row) {
		return row[idx]
	}
	return ""
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Helper function to convert Excel column letter to index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}

// Helper function to parse integer within a range
func parseIntInRange(s string, min, max int) (int, error) {
	var val int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &val); err != nil {
		return min, err
	}
	if val < min {
		return min, nil
	}
	if val > max {
		return max, nil
	}
	return val, nil
}

// Helper function to parse integer with default value
func parseIntOrDefault(s string, min, max, defaultVal int) int {
	if val, err := parseIntInRange(s, min, max); err == nil {
		return val
	}
	return defaultVal
}
