package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/steveyiyo/signspeak/internal/aiclient"
	"github.com/steveyiyo/signspeak/internal/logging"
	"github.com/steveyiyo/signspeak/internal/media"
	"github.com/steveyiyo/signspeak/internal/model"
	"github.com/steveyiyo/signspeak/internal/session"
	"github.com/steveyiyo/signspeak/internal/speech"
)

// Sentence capture window.
const (
	BurstDuration = 3 * time.Second
	BurstFPS      = 5
)

// ErrBusy is returned when a capture or analysis is already running.
var ErrBusy = errors.New("capture already in progress")

const msgNoCamera = "Camera unavailable. Check permissions and try again."

// GestureRecognizer turns frames into text. It never fails; sentinel strings
// stand in for empty and failed recognition.
type GestureRecognizer interface {
	RecognizeGesture(ctx context.Context, images []media.EncodedImage, languageName string) string
}

type MutePhase string

const (
	MuteIdle      MutePhase = "idle"
	MuteRecording MutePhase = "recording"
	MuteAnalyzing MutePhase = "analyzing"
	MuteResult    MutePhase = "result"
	MuteError     MutePhase = "error"
)

type Analysis string

const (
	AnalysisWord     Analysis = "word"
	AnalysisSentence Analysis = "sentence"
)

func (a Analysis) logLabel() string {
	if a == AnalysisSentence {
		return "Sign Sequence"
	}
	return "Single Sign"
}

type MuteState struct {
	Phase       MutePhase
	Analysis    Analysis
	CameraReady bool
	// Progress is the sentence capture progress in percent.
	Progress   float64
	Prediction string
	Gender     model.Gender
	Err        string
}

type MuteController struct {
	session *session.State
	camera  *media.Controller
	rec     GestureRecognizer
	speech  *speech.Bridge
	log     *slog.Logger

	live liveness
	pub  publisher[MuteState]

	mu     sync.Mutex
	st     MuteState
	stream *media.Stream
	busy   bool
}

func NewMute(s *session.State, camera *media.Controller, rec GestureRecognizer, bridge *speech.Bridge, log *slog.Logger) *MuteController {
	if bridge == nil {
		bridge = speech.NewBridge(nil, nil, log)
	}
	return &MuteController{
		session: s,
		camera:  camera,
		rec:     rec,
		speech:  bridge,
		log:     logging.OrDiscard(log).With("component", "mute"),
		st:      MuteState{Phase: MuteIdle, Gender: model.Female},
	}
}

func (m *MuteController) Mode() model.AppMode { return model.ModeMute }

func (m *MuteController) OnChange(fn func(MuteState)) { m.pub.set(fn) }

func (m *MuteController) State() MuteState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st
}

func (m *MuteController) update(epoch uint64, fn func(*MuteState)) bool {
	m.mu.Lock()
	if !m.live.alive(epoch) {
		m.mu.Unlock()
		return false
	}
	fn(&m.st)
	st := m.st
	m.mu.Unlock()
	m.pub.publish(st)
	return true
}

// Enter acquires the camera.
func (m *MuteController) Enter(ctx context.Context) error {
	epoch := m.live.current()
	stream, err := m.camera.Acquire(ctx)
	if err != nil {
		m.update(epoch, func(s *MuteState) {
			*s = MuteState{Phase: MuteError, Gender: s.Gender, Err: msgNoCamera}
		})
		return err
	}
	m.mu.Lock()
	m.stream = stream
	m.busy = false
	m.mu.Unlock()
	m.update(epoch, func(s *MuteState) {
		*s = MuteState{Phase: MuteIdle, Gender: s.Gender, CameraReady: true}
	})
	return nil
}

// Exit releases the camera and abandons any analysis in flight.
func (m *MuteController) Exit() {
	m.live.bump()
	m.mu.Lock()
	stream := m.stream
	m.stream = nil
	m.busy = false
	m.st.CameraReady = false
	m.mu.Unlock()
	m.camera.Release(stream)
}

func (m *MuteController) SetVoiceGender(g model.Gender) {
	m.update(m.live.current(), func(s *MuteState) { s.Gender = g })
}

// begin claims the capture pipeline.
func (m *MuteController) begin() (*media.Stream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.busy {
		return nil, ErrBusy
	}
	if m.stream == nil {
		return nil, media.ErrDevice
	}
	m.busy = true
	return m.stream, nil
}

func (m *MuteController) end(epoch uint64) {
	m.mu.Lock()
	if m.live.alive(epoch) {
		m.busy = false
	}
	m.mu.Unlock()
}

// CaptureWord recognizes a single snapshot.
func (m *MuteController) CaptureWord(ctx context.Context) (string, error) {
	epoch := m.live.current()
	stream, err := m.begin()
	if err != nil {
		return "", err
	}
	defer m.end(epoch)

	img, err := m.camera.Snapshot(stream)
	if err != nil {
		m.update(epoch, func(s *MuteState) {
			s.Phase = MuteError
			s.Err = msgNoCamera
		})
		return "", err
	}
	return m.analyze(ctx, epoch, AnalysisWord, []media.EncodedImage{img}), nil
}

// CaptureSentence records a burst with live progress and recognizes it as one
// ordered sequence.
func (m *MuteController) CaptureSentence(ctx context.Context) (string, error) {
	epoch := m.live.current()
	stream, err := m.begin()
	if err != nil {
		return "", err
	}
	defer m.end(epoch)

	m.update(epoch, func(s *MuteState) {
		s.Phase = MuteRecording
		s.Analysis = AnalysisSentence
		s.Progress = 0
		s.Prediction = ""
		s.Err = ""
	})
	frames, err := m.camera.RecordBurst(ctx, stream, BurstDuration, BurstFPS, func(pct float64) {
		m.update(epoch, func(s *MuteState) { s.Progress = pct })
	})
	if err != nil {
		m.update(epoch, func(s *MuteState) {
			s.Phase = MuteError
			s.Err = msgNoCamera
		})
		return "", err
	}
	return m.analyze(ctx, epoch, AnalysisSentence, frames), nil
}

func (m *MuteController) analyze(ctx context.Context, epoch uint64, kind Analysis, frames []media.EncodedImage) string {
	m.update(epoch, func(s *MuteState) {
		s.Phase = MuteAnalyzing
		s.Analysis = kind
		s.Prediction = ""
		s.Err = ""
	})
	lang := m.session.Language()
	result := m.rec.RecognizeGesture(ctx, frames, lang.Name())

	var gender model.Gender
	if !m.update(epoch, func(s *MuteState) {
		s.Phase = MuteResult
		s.Prediction = result
		gender = s.Gender
	}) {
		return result
	}
	if result == "" || result == aiclient.NoGestureDetected || result == aiclient.RecognitionFailed {
		return result
	}
	if err := m.speech.Speak(ctx, result, string(lang), gender); err != nil {
		m.log.Warn("speak failed", "err", err)
	}
	if _, err := m.session.AddLog(ctx, model.HistoryEntry{
		Mode:   model.ModeMute,
		Input:  kind.logLabel(),
		Output: result,
	}); err != nil {
		m.log.Warn("history not saved", "err", err)
	}
	return result
}
