package model

import (
	"fmt"
	"strings"
)

// AppMode identifies the active screen. Exactly one is active at a time.
type AppMode string

const (
	ModeOnboarding AppMode = "ONBOARDING"
	ModeAuth       AppMode = "AUTH"
	ModeSelector   AppMode = "SELECTOR"
	ModeDeaf       AppMode = "DEAF"
	ModeMute       AppMode = "MUTE"
	ModeLearning   AppMode = "LEARNING"
	ModeVault      AppMode = "VAULT"
)

// Language is a locale tag from a fixed set.
type Language string

const (
	English   Language = "en-US"
	EnglishUK Language = "en-GB"
	Hindi     Language = "hi-IN"
	Marathi   Language = "mr-IN"
)

var languageNames = map[Language]string{
	English:   "English (US)",
	EnglishUK: "English (UK)",
	Hindi:     "हिंदी (Hindi)",
	Marathi:   "मराठी (Marathi)",
}

// Languages lists the supported languages in display order.
func Languages() []Language {
	return []Language{English, EnglishUK, Hindi, Marathi}
}

// Name is the display name sent to the backend as languageName.
func (l Language) Name() string {
	if n, ok := languageNames[l]; ok {
		return n
	}
	return languageNames[English]
}

func (l Language) Valid() bool {
	_, ok := languageNames[l]
	return ok
}

// ParseLanguage accepts a locale tag, case-insensitively.
func ParseLanguage(s string) (Language, error) {
	for _, l := range Languages() {
		if strings.EqualFold(string(l), strings.TrimSpace(s)) {
			return l, nil
		}
	}
	return "", fmt.Errorf("unsupported language %q", s)
}

type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
}

type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

type HistoryEntry struct {
	ID        string    `json:"id"`
	Timestamp int64     `json:"timestamp"`
	Mode      AppMode   `json:"mode"`
	Input     string    `json:"input"`
	Output    string    `json:"output"`
	MediaURL  string    `json:"mediaUrl,omitempty"`
	MediaType MediaType `json:"mediaType,omitempty"`
}

type CustomSign struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	ImageURL  string `json:"imageUrl"`
	Timestamp int64  `json:"timestamp"`
}

type Lesson struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Category      string `json:"category"`
	Description   string `json:"description"`
	TargetGesture string `json:"targetGesture"`
}

type Gender string

const (
	Female Gender = "female"
	Male   Gender = "male"
)

// NoGestureDetected is what recognition yields when no sign is visible. It is
// a result, not an error, and suppresses speaking and logging.
const NoGestureDetected = "No gesture detected."
