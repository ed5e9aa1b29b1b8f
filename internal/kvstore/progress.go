package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/example/signlingo/pkg/models"
)

// Keys inside a user's scope
const (
	KeyProfile     = "userData"
	KeyToken       = "userToken"
	KeyOnboarding  = "onboardingCompleted"
	KeyDailyQuests = "dailyQuests"
	KeySettings    = "userSettings"
)

var flagTrue = []byte("true")

// LessonKey is the key of a lesson's completion flag
func LessonKey(lessonID int64) string {
	return "lesson:" + strconv.FormatInt(lessonID, 10) + ":completed"
}

// ProgressRepository stores profile and progress per user on top of a Store
type ProgressRepository struct {
	store Store
}

// NewProgressRepository creates a repository over store
func NewProgressRepository(store Store) *ProgressRepository {
	return &ProgressRepository{store: store}
}

func (r *ProgressRepository) scope(userID string) Store {
	return Scope(r.store, "user:"+userID)
}

// LoadProfile returns the cached profile and whether one exists
func (r *ProgressRepository) LoadProfile(ctx context.Context, userID string) (models.UserProfile, bool, error) {
	var p models.UserProfile
	ok, err := r.GetJSON(ctx, userID, KeyProfile, &p)
	if err != nil {
		return models.UserProfile{}, false, err
	}
	return p, ok, nil
}

// SaveProfile overwrites the cached profile
func (r *ProgressRepository) SaveProfile(ctx context.Context, userID string, p models.UserProfile) error {
	return r.SetJSON(ctx, userID, KeyProfile, p)
}

// IsCompleted reports the persisted completion flag of a lesson
func (r *ProgressRepository) IsCompleted(ctx context.Context, userID string, lessonID int64) (bool, error) {
	v, ok, err := r.scope(userID).Get(ctx, LessonKey(lessonID))
	if err != nil {
		return false, fmt.Errorf("failed to read completion of lesson %d: %w", lessonID, err)
	}
	return ok && string(v) == string(flagTrue), nil
}

// Overlay returns a copy of units with completion flags read from the store
func (r *ProgressRepository) Overlay(ctx context.Context, userID string, units []models.Unit) ([]models.Unit, error) {
	out := models.CloneUnits(units)
	for i := range out {
		for j := range out[i].Lessons {
			done, err := r.IsCompleted(ctx, userID, out[i].Lessons[j].ID)
			if err != nil {
				return nil, err
			}
			out[i].Lessons[j].Completed = done
		}
	}
	return out, nil
}

// SaveCompletion writes the updated profile and the lesson's completion
// flag in a single SetMany so neither is persisted without the other.
func (r *ProgressRepository) SaveCompletion(ctx context.Context, userID string, p models.UserProfile, lessonID int64) error {
	blob, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	err = r.scope(userID).SetMany(ctx, map[string][]byte{
		KeyProfile:          blob,
		LessonKey(lessonID): flagTrue,
	})
	if err != nil {
		return fmt.Errorf("failed to save completion of lesson %d: %w", lessonID, err)
	}
	return nil
}

// OnboardingDone reports whether the user finished onboarding
func (r *ProgressRepository) OnboardingDone(ctx context.Context, userID string) (bool, error) {
	v, ok, err := r.scope(userID).Get(ctx, KeyOnboarding)
	if err != nil {
		return false, err
	}
	return ok && string(v) == string(flagTrue), nil
}

// MarkOnboardingDone sets the per-user onboarding flag
func (r *ProgressRepository) MarkOnboardingDone(ctx context.Context, userID string) error {
	return r.scope(userID).Set(ctx, KeyOnboarding, flagTrue)
}

// Settings returns the user's settings; fields never saved keep their defaults
func (r *ProgressRepository) Settings(ctx context.Context, userID string) (models.UserSettings, error) {
	s := models.DefaultSettings()
	if _, err := r.GetJSON(ctx, userID, KeySettings, &s); err != nil {
		return models.UserSettings{}, err
	}
	return s, nil
}

// SaveSettings stores the user's settings
func (r *ProgressRepository) SaveSettings(ctx context.Context, userID string, s models.UserSettings) error {
	return r.SetJSON(ctx, userID, KeySettings, s)
}

// Token returns the stored session token, empty when logged out
func (r *ProgressRepository) Token(ctx context.Context, userID string) (string, error) {
	v, ok, err := r.scope(userID).Get(ctx, KeyToken)
	if err != nil || !ok {
		return "", err
	}
	return string(v), nil
}

// SaveSession stores the token and profile returned by a login
func (r *ProgressRepository) SaveSession(ctx context.Context, userID, token string, p models.UserProfile) error {
	blob, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	return r.scope(userID).SetMany(ctx, map[string][]byte{
		KeyToken:   []byte(token),
		KeyProfile: blob,
	})
}

// ClearSession removes the token and the cached profile (logout)
func (r *ProgressRepository) ClearSession(ctx context.Context, userID string) error {
	s := r.scope(userID)
	if err := s.Remove(ctx, KeyToken); err != nil {
		return err
	}
	return s.Remove(ctx, KeyProfile)
}

// GetJSON decodes the value under key into v
func (r *ProgressRepository) GetJSON(ctx context.Context, userID, key string, v interface{}) (bool, error) {
	blob, ok, err := r.scope(userID).Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(blob, v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v under key
func (r *ProgressRepository) SetJSON(ctx context.Context, userID, key string, v interface{}) error {
	blob, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := r.scope(userID).Set(ctx, key, blob); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// SetJSONMany encodes every value and writes them together with SetMany
func (r *ProgressRepository) SetJSONMany(ctx context.Context, userID string, values map[string]interface{}) error {
	entries := make(map[string][]byte, len(values))
	for k, v := range values {
		blob, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", k, err)
		}
		entries[k] = blob
	}
	if err := r.scope(userID).SetMany(ctx, entries); err != nil {
		return fmt.Errorf("failed to write %d keys: %w", len(entries), err)
	}
	return nil
}
