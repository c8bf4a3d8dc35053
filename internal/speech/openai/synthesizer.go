// Package openai speaks through the OpenAI text-to-speech API, saving each
// utterance as an audio file.
package openai

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/steveyiyo/signspeak/internal/logging"
	"github.com/steveyiyo/signspeak/internal/model"
	"github.com/steveyiyo/signspeak/internal/speech"
)

var catalog = []struct {
	id     goopenai.SpeechVoice
	gender model.Gender
}{
	{goopenai.VoiceNova, model.Female},
	{goopenai.VoiceShimmer, model.Female},
	{goopenai.VoiceAlloy, model.Female},
	{goopenai.VoiceOnyx, model.Male},
	{goopenai.VoiceEcho, model.Male},
	{goopenai.VoiceFable, model.Male},
}

type speechAPI interface {
	CreateSpeech(ctx context.Context, req goopenai.CreateSpeechRequest) (goopenai.RawResponse, error)
}

type Synthesizer struct {
	api   speechAPI
	model goopenai.SpeechModel
	dir   string
	log   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

func New(apiKey, outDir string, log *slog.Logger) *Synthesizer {
	return &Synthesizer{
		api:   goopenai.NewClient(apiKey),
		model: goopenai.TTSModel1,
		dir:   outDir,
		log:   logging.OrDiscard(log).With("component", "openai-tts"),
	}
}

// Voices lists every catalog voice once per supported language; the models
// are multilingual. Names carry the gender so keyword selection can work.
func (s *Synthesizer) Voices() []speech.Voice {
	var out []speech.Voice
	for _, lang := range model.Languages() {
		for _, v := range catalog {
			out = append(out, speech.Voice{Name: fmt.Sprintf("openai %s %s", v.id, v.gender), Lang: string(lang)})
		}
	}
	return out
}

func (s *Synthesizer) Speak(ctx context.Context, u speech.Utterance) error {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	voice := goopenai.VoiceNova
	if u.Voice != nil {
		if f := strings.Fields(u.Voice.Name); len(f) >= 2 {
			voice = goopenai.SpeechVoice(f[1])
		}
	}
	resp, err := s.api.CreateSpeech(ctx, goopenai.CreateSpeechRequest{
		Model:          s.model,
		Input:          u.Text,
		Voice:          voice,
		ResponseFormat: goopenai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return fmt.Errorf("openai speech: %w", err)
	}
	defer resp.Close()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(s.dir, fmt.Sprintf("utterance-%d.mp3", time.Now().UnixNano()))
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(f, resp); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	s.log.Info("utterance saved", "path", path, "voice", voice)
	return nil
}

func (s *Synthesizer) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
