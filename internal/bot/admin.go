package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/signlingo/internal/apperr"
	"github.com/example/signlingo/internal/excel"
	"github.com/example/signlingo/pkg/models"
)

// maxReportedErrors caps the row errors listed after an import
const maxReportedErrors = 5

func (b *Bot) askImport(chatID, userID int64) {
	if b.curriculum == nil {
		_ = b.send(chatID, "Curriculum import is not available.", MainMenuButtons())
		return
	}
	b.setState(userID, stateImport, nil)
	_ = b.send(chatID, "📥 Send the curriculum as an .xlsx or .csv document.\n\n"+
		"Columns: unit, icon, lesson id, lesson title, words (separated by ;), xp\n"+
		"The first row is a header. The current curriculum is replaced.", nil)
}

// handleImportFile downloads an uploaded curriculum and replaces the stored one
func (b *Bot) handleImportFile(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	doc := message.Document
	if doc == nil {
		_ = b.send(chatID, "Please send the curriculum as a document, or /cancel.", nil)
		return
	}
	ext := strings.ToLower(filepath.Ext(doc.FileName))
	if ext != ".xlsx" && ext != ".csv" {
		_ = b.send(chatID, "Only .xlsx and .csv files are supported.", nil)
		return
	}
	if doc.FileSize > b.config.MaxImportSize {
		_ = b.send(chatID, fmt.Sprintf("The file is too large (max %d KB).", b.config.MaxImportSize>>10), nil)
		return
	}
	b.clearState(message.From.ID)

	fileURL, err := b.client().GetFileDirectURL(doc.FileID)
	if err != nil {
		b.log.Error("failed to get file URL", "file_id", doc.FileID, "error", err)
		_ = b.send(chatID, "❌ Could not fetch the file from Telegram.", MainMenuButtons())
		return
	}

	tmp, err := os.CreateTemp("", "curriculum-*"+ext)
	if err != nil {
		b.reportError(chatID, err, "")
		return
	}
	defer os.Remove(tmp.Name())

	err = download(ctx, fileURL, tmp, int64(b.config.MaxImportSize))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		b.log.Error("failed to download curriculum", "error", err)
		_ = b.send(chatID, "❌ Could not download the file.", MainMenuButtons())
		return
	}

	cfg := excel.DefaultImportConfig()
	cfg.FilePath = tmp.Name()
	cfg.SheetName = "" // first sheet, whatever its name
	result, err := excel.Import(ctx, cfg, b.curriculum)
	if err != nil {
		b.log.Warn("curriculum import failed", "file", doc.FileName, "error", err)
		_ = b.send(chatID, "❌ Import failed: "+err.Error()+importErrors(result), MainMenuButtons())
		return
	}

	units, err := b.curriculum.Units(ctx)
	if err != nil {
		b.reportError(chatID, err, "")
		return
	}
	b.tracker.SetCurriculum(units)
	b.log.Info("curriculum imported", "file", doc.FileName, "units", result.UnitsCreated, "lessons", result.LessonsCreated, "skipped", result.Skipped)

	text := fmt.Sprintf("✅ Curriculum imported\n\nUnits: %d\nLessons: %d\nRows skipped: %d",
		result.UnitsCreated, result.LessonsCreated, result.Skipped)
	_ = b.send(chatID, text+importErrors(result), MainMenuButtons())
}

func importErrors(result *excel.ImportResult) string {
	if result == nil || len(result.Errors) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\n\nErrors:\n")
	for i, e := range result.Errors {
		if i == maxReportedErrors {
			fmt.Fprintf(&sb, "... and %d more\n", len(result.Errors)-maxReportedErrors)
			break
		}
		sb.WriteString("• " + e + "\n")
	}
	return sb.String()
}

// download copies at most limit bytes of url into dst
func download(ctx context.Context, url string, dst io.Writer, limit int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: %s", resp.Status)
	}
	n, err := io.Copy(dst, io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return err
	}
	if n > limit {
		return fmt.Errorf("file is larger than %d bytes", limit)
	}
	return nil
}

// showStats shows how many learners use the bot
func (b *Bot) showStats(ctx context.Context, chatID int64) {
	users, err := b.users.GetAll(ctx)
	if err != nil {
		b.reportError(chatID, err, "")
		return
	}
	today := b.now().Format("2006-01-02")
	_ = b.send(chatID, renderStats(users, today), [][]MenuButton{menuRow()})
}

// handleSetMedia handles "/setmedia WORD URL [video]"
func (b *Bot) handleSetMedia(ctx context.Context, chatID int64, args string) {
	if b.curriculum == nil {
		_ = b.send(chatID, "Sign media cannot be changed on this bot.", MainMenuButtons())
		return
	}
	word, mediaType, mediaURL, err := parseSetMedia(args)
	if err != nil {
		_ = b.send(chatID, "Usage: /setmedia WORD URL [image|video]\n"+err.Error(), nil)
		return
	}
	if err := b.curriculum.SetSignMedia(ctx, word, mediaType, mediaURL); err != nil {
		if apperr.Is(err, apperr.NotFound) {
			_ = b.send(chatID, fmt.Sprintf("🤷 No sign %q in the curriculum.", word), nil)
			return
		}
		b.reportError(chatID, err, "")
		return
	}
	_ = b.send(chatID, fmt.Sprintf("✅ %s now uses %s %s", word, mediaType, mediaURL), nil)
}

// parseSetMedia parses the arguments of /setmedia
func parseSetMedia(args string) (word, mediaType, mediaURL string, err error) {
	fields := strings.Fields(args)
	if len(fields) < 2 || len(fields) > 3 {
		return "", "", "", fmt.Errorf("expected a word and a URL")
	}
	word = strings.ToUpper(fields[0])
	u, err := url.Parse(fields[1])
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", "", "", fmt.Errorf("invalid URL %q", fields[1])
	}
	mediaType = models.MediaImage
	if len(fields) == 3 {
		switch strings.ToLower(fields[2]) {
		case models.MediaImage:
		case models.MediaVideo:
			mediaType = models.MediaVideo
		default:
			return "", "", "", fmt.Errorf("media type must be image or video")
		}
	}
	return word, mediaType, fields[1], nil
}
