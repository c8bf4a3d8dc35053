package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/steveyiyo/signspeak/internal/aiclient"
	"github.com/steveyiyo/signspeak/internal/core/lessons"
	"github.com/steveyiyo/signspeak/internal/logging"
	"github.com/steveyiyo/signspeak/internal/media"
	"github.com/steveyiyo/signspeak/internal/model"
	"github.com/steveyiyo/signspeak/internal/session"
)

// PracticeCoach illustrates lessons and grades attempts.
type PracticeCoach interface {
	GenerateImage(ctx context.Context, text, languageName string) (*media.EncodedImage, error)
	EvaluatePractice(ctx context.Context, img media.EncodedImage, target string) aiclient.Evaluation
}

type LearningPhase string

const (
	LearningBrowsing   LearningPhase = "browsing"
	LearningLesson     LearningPhase = "lesson"
	LearningPracticing LearningPhase = "practicing"
	LearningEvaluating LearningPhase = "evaluating"
	LearningFeedback   LearningPhase = "feedback"
)

type LearningState struct {
	Phase   LearningPhase
	Lessons []model.Lesson
	Text    lessons.UIText
	Lesson  *model.Lesson
	// Image is the lesson illustration as a data URI once loaded.
	Image        string
	ImageLoading bool
	CameraReady  bool
	Feedback     *aiclient.Evaluation
	Err          string
}

type LearningController struct {
	session *session.State
	camera  *media.Controller
	coach   PracticeCoach
	log     *slog.Logger

	live liveness
	pub  publisher[LearningState]
	bg   sync.WaitGroup

	mu        sync.Mutex
	st        LearningState
	stream    *media.Stream
	selection uint64
	checking  bool
}

func NewLearning(s *session.State, camera *media.Controller, coach PracticeCoach, log *slog.Logger) *LearningController {
	return &LearningController{
		session: s,
		camera:  camera,
		coach:   coach,
		log:     logging.OrDiscard(log).With("component", "learning"),
		st:      LearningState{Phase: LearningBrowsing},
	}
}

func (l *LearningController) Mode() model.AppMode { return model.ModeLearning }

func (l *LearningController) OnChange(fn func(LearningState)) { l.pub.set(fn) }

func (l *LearningController) State() LearningState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st
}

func (l *LearningController) update(epoch uint64, fn func(*LearningState)) bool {
	l.mu.Lock()
	if !l.live.alive(epoch) {
		l.mu.Unlock()
		return false
	}
	fn(&l.st)
	st := l.st
	l.mu.Unlock()
	l.pub.publish(st)
	return true
}

// Enter shows the curriculum for the session language.
func (l *LearningController) Enter(context.Context) error {
	lang := l.session.Language()
	l.update(l.live.current(), func(s *LearningState) {
		*s = LearningState{Phase: LearningBrowsing, Lessons: lessons.For(lang), Text: lessons.Text(lang)}
	})
	return nil
}

func (l *LearningController) Exit() {
	l.live.bump()
	l.releaseCamera()
}

// Wait blocks until background illustration fetches have finished.
func (l *LearningController) Wait() { l.bg.Wait() }

// SelectLesson opens a lesson and fetches its illustration in the
// background.
func (l *LearningController) SelectLesson(ctx context.Context, id string) error {
	lang := l.session.Language()
	lesson, ok := lessons.Find(lang, id)
	if !ok {
		return fmt.Errorf("lesson %q not found", id)
	}
	epoch := l.live.current()
	l.mu.Lock()
	l.selection++
	sel := l.selection
	l.mu.Unlock()
	l.update(epoch, func(s *LearningState) {
		s.Phase = LearningLesson
		s.Lesson = &lesson
		s.Image = ""
		s.ImageLoading = true
		s.Feedback = nil
		s.Err = ""
	})

	l.bg.Add(1)
	go func() {
		defer l.bg.Done()
		img, err := l.coach.GenerateImage(ctx, lesson.TargetGesture, lang.Name())
		if err != nil {
			l.log.Warn("lesson illustration failed", "lesson", lesson.ID, "err", err)
		}
		l.update(epoch, func(s *LearningState) {
			if l.selection != sel {
				return
			}
			s.ImageLoading = false
			if img != nil {
				s.Image = img.DataURI()
			}
		})
	}()
	return nil
}

// StartPractice acquires the camera for the selected lesson.
func (l *LearningController) StartPractice(ctx context.Context) error {
	epoch := l.live.current()
	l.mu.Lock()
	if l.st.Lesson == nil {
		l.mu.Unlock()
		return fmt.Errorf("no lesson selected")
	}
	has := l.stream != nil
	l.mu.Unlock()
	if !has {
		stream, err := l.camera.Acquire(ctx)
		if err != nil {
			l.update(epoch, func(s *LearningState) {
				s.Phase = LearningPracticing
				s.CameraReady = false
				s.Err = msgNoCamera
			})
			return err
		}
		l.mu.Lock()
		l.stream = stream
		l.mu.Unlock()
	}
	l.update(epoch, func(s *LearningState) {
		s.Phase = LearningPracticing
		s.CameraReady = true
		s.Feedback = nil
		s.Err = ""
	})
	return nil
}

// Check grades one attempt. Attempts are unlimited.
func (l *LearningController) Check(ctx context.Context) (aiclient.Evaluation, error) {
	epoch := l.live.current()
	l.mu.Lock()
	if l.checking {
		l.mu.Unlock()
		return aiclient.Evaluation{}, ErrBusy
	}
	stream, lesson := l.stream, l.st.Lesson
	if stream == nil || lesson == nil {
		l.mu.Unlock()
		return aiclient.Evaluation{}, media.ErrDevice
	}
	l.checking = true
	l.mu.Unlock()
	defer func() {
		l.mu.Lock()
		l.checking = false
		l.mu.Unlock()
	}()

	img, err := l.camera.Snapshot(stream)
	if err != nil {
		l.update(epoch, func(s *LearningState) { s.Err = msgNoCamera })
		return aiclient.Evaluation{}, err
	}
	l.update(epoch, func(s *LearningState) {
		s.Phase = LearningEvaluating
		s.Feedback = nil
		s.Err = ""
	})
	ev := l.coach.EvaluatePractice(ctx, img, lesson.TargetGesture)
	l.update(epoch, func(s *LearningState) {
		s.Phase = LearningFeedback
		s.Feedback = &ev
	})
	return ev, nil
}

// StopPractice releases the camera and returns to the lesson.
func (l *LearningController) StopPractice() {
	l.releaseCamera()
	l.update(l.live.current(), func(s *LearningState) {
		if s.Lesson != nil {
			s.Phase = LearningLesson
		}
		s.CameraReady = false
		s.Feedback = nil
	})
}

// Back leaves the lesson for the curriculum.
func (l *LearningController) Back() {
	l.releaseCamera()
	l.mu.Lock()
	l.selection++
	l.mu.Unlock()
	l.update(l.live.current(), func(s *LearningState) {
		s.Phase = LearningBrowsing
		s.Lesson = nil
		s.Image = ""
		s.ImageLoading = false
		s.CameraReady = false
		s.Feedback = nil
		s.Err = ""
	})
}

func (l *LearningController) releaseCamera() {
	l.mu.Lock()
	stream := l.stream
	l.stream = nil
	l.st.CameraReady = false
	l.mu.Unlock()
	l.camera.Release(stream)
}
