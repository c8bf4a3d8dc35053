package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/steveyiyo/signspeak/internal/logging"
	"github.com/steveyiyo/signspeak/internal/media"
	"github.com/steveyiyo/signspeak/internal/model"
	"github.com/steveyiyo/signspeak/internal/repo"
	"github.com/steveyiyo/signspeak/internal/session"
)

var (
	// ErrIncomplete is returned by Save without both a label and a capture.
	ErrIncomplete = errors.New("a label and a captured sign are required")
	// ErrUnreadable marks a stored collection that cannot be decoded. It is
	// never overwritten.
	ErrUnreadable = errors.New("stored signs unreadable")
)

const msgUnreadable = "Your saved signs could not be read. Nothing will be overwritten."

type VaultPhase string

const (
	VaultBrowsing  VaultPhase = "browsing"
	VaultAdding    VaultPhase = "adding"
	VaultCapturing VaultPhase = "capturing"
	VaultCaptured  VaultPhase = "captured"
	VaultSaving    VaultPhase = "saving"
)

type VaultState struct {
	Phase     VaultPhase
	Namespace string
	Signs     []model.CustomSign
	Label     string
	// Captured is the still as a JPEG data URI.
	Captured string
	Err      string
}

// VaultController manages the custom sign collection of the current user.
// The namespace is re-read from the session for every operation.
type VaultController struct {
	session *session.State
	store   repo.Store
	camera  *media.Controller
	log     *slog.Logger
	now     func() time.Time
	newID   func() string

	live liveness
	pub  publisher[VaultState]

	mu     sync.Mutex
	st     VaultState
	stream *media.Stream
}

func NewVault(s *session.State, store repo.Store, camera *media.Controller, log *slog.Logger) *VaultController {
	return &VaultController{
		session: s,
		store:   store,
		camera:  camera,
		log:     logging.OrDiscard(log).With("component", "vault"),
		now:     time.Now,
		newID:   uuid.NewString,
		st:      VaultState{Phase: VaultBrowsing},
	}
}

func (v *VaultController) Mode() model.AppMode { return model.ModeVault }

func (v *VaultController) OnChange(fn func(VaultState)) { v.pub.set(fn) }

func (v *VaultController) State() VaultState {
	v.mu.Lock()
	defer v.mu.Unlock()
	st := v.st
	st.Signs = append([]model.CustomSign(nil), v.st.Signs...)
	return st
}

func (v *VaultController) update(epoch uint64, fn func(*VaultState)) bool {
	v.mu.Lock()
	if !v.live.alive(epoch) {
		v.mu.Unlock()
		return false
	}
	fn(&v.st)
	st := v.st
	st.Signs = append([]model.CustomSign(nil), v.st.Signs...)
	v.mu.Unlock()
	v.pub.publish(st)
	return true
}

func (v *VaultController) Enter(ctx context.Context) error {
	epoch := v.live.current()
	ns := v.session.VaultNamespace()
	signs, err := v.load(ctx, ns)
	v.update(epoch, func(s *VaultState) {
		*s = VaultState{Phase: VaultBrowsing, Namespace: ns, Signs: signs}
		switch {
		case errors.Is(err, ErrUnreadable):
			s.Err = msgUnreadable
		case err != nil:
			s.Err = "Could not load your saved signs."
		}
	})
	if errors.Is(err, ErrUnreadable) {
		return nil
	}
	return err
}

func (v *VaultController) Exit() {
	v.live.bump()
	v.releaseCamera()
}

// Signs returns the collection of the current namespace, newest first.
func (v *VaultController) Signs(ctx context.Context) ([]model.CustomSign, error) {
	if err := v.refresh(ctx); err != nil {
		return nil, err
	}
	return v.State().Signs, nil
}

// refresh reloads the collection when the session user changed.
func (v *VaultController) refresh(ctx context.Context) error {
	ns := v.session.VaultNamespace()
	v.mu.Lock()
	same := v.st.Namespace == ns
	v.mu.Unlock()
	if same {
		return nil
	}
	signs, err := v.load(ctx, ns)
	if err != nil && !errors.Is(err, ErrUnreadable) {
		return err
	}
	v.update(v.live.current(), func(s *VaultState) {
		s.Namespace = ns
		s.Signs = signs
		if err != nil {
			s.Err = msgUnreadable
		}
	})
	return err
}

func (v *VaultController) load(ctx context.Context, ns string) ([]model.CustomSign, error) {
	raw, ok, err := v.store.Get(ctx, repo.VaultKey(ns))
	if err != nil {
		return nil, fmt.Errorf("load vault: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var signs []model.CustomSign
	if err := json.Unmarshal([]byte(raw), &signs); err != nil {
		v.log.Error("stored vault unreadable", "namespace", ns, "err", err)
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return signs, nil
}

func (v *VaultController) write(ctx context.Context, ns string, signs []model.CustomSign) error {
	b, err := json.Marshal(signs)
	if err != nil {
		return err
	}
	if err := v.store.Set(ctx, repo.VaultKey(ns), string(b)); err != nil {
		return fmt.Errorf("save vault: %w", err)
	}
	return nil
}

// StartAdding opens an empty draft with the camera off.
func (v *VaultController) StartAdding() {
	v.releaseCamera()
	v.update(v.live.current(), func(s *VaultState) {
		s.Phase = VaultAdding
		s.Label = ""
		s.Captured = ""
		s.Err = ""
	})
}

func (v *VaultController) StartCamera(ctx context.Context) error {
	epoch := v.live.current()
	v.releaseCamera()
	stream, err := v.camera.Acquire(ctx)
	if err != nil {
		v.update(epoch, func(s *VaultState) {
			s.Phase = VaultAdding
			s.Err = msgNoCamera
		})
		return err
	}
	v.mu.Lock()
	v.stream = stream
	v.mu.Unlock()
	v.update(epoch, func(s *VaultState) {
		s.Phase = VaultCapturing
		s.Err = ""
	})
	return nil
}

// Capture takes the still for the draft and turns the camera off.
func (v *VaultController) Capture() error {
	epoch := v.live.current()
	v.mu.Lock()
	stream := v.stream
	v.mu.Unlock()
	if stream == nil {
		return media.ErrDevice
	}
	img, err := v.camera.Snapshot(stream)
	if err != nil {
		v.update(epoch, func(s *VaultState) { s.Err = msgNoCamera })
		return err
	}
	v.releaseCamera()
	v.update(epoch, func(s *VaultState) {
		s.Phase = VaultCaptured
		s.Captured = img.DataURI()
		s.Err = ""
	})
	return nil
}

func (v *VaultController) SetLabel(label string) {
	v.update(v.live.current(), func(s *VaultState) { s.Label = label })
}

func (v *VaultController) CanSave() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return strings.TrimSpace(v.st.Label) != "" && v.st.Captured != ""
}

// Save stores the draft at the front of the current namespace's collection
// in a single write.
func (v *VaultController) Save(ctx context.Context) (model.CustomSign, error) {
	epoch := v.live.current()
	if !v.CanSave() {
		return model.CustomSign{}, ErrIncomplete
	}
	var label, captured string
	v.update(epoch, func(s *VaultState) {
		label, captured = strings.TrimSpace(s.Label), s.Captured
		s.Phase = VaultSaving
	})

	ns := v.session.VaultNamespace()
	current, err := v.load(ctx, ns)
	if err != nil {
		v.update(epoch, func(s *VaultState) { s.Phase = VaultCaptured; s.Err = "Could not save the sign." })
		return model.CustomSign{}, err
	}
	sign := model.CustomSign{ID: v.newID(), Label: label, ImageURL: captured, Timestamp: v.now().UnixMilli()}
	next := append([]model.CustomSign{sign}, current...)
	if err := v.write(ctx, ns, next); err != nil {
		v.update(epoch, func(s *VaultState) { s.Phase = VaultCaptured; s.Err = "Could not save the sign." })
		return model.CustomSign{}, err
	}
	v.update(epoch, func(s *VaultState) {
		*s = VaultState{Phase: VaultBrowsing, Namespace: ns, Signs: next}
	})
	return sign, nil
}

// Delete removes a sign from the current namespace.
func (v *VaultController) Delete(ctx context.Context, id string) error {
	ns := v.session.VaultNamespace()
	current, err := v.load(ctx, ns)
	if err != nil {
		return err
	}
	next := make([]model.CustomSign, 0, len(current))
	for _, s := range current {
		if s.ID != id {
			next = append(next, s)
		}
	}
	if err := v.write(ctx, ns, next); err != nil {
		return err
	}
	v.update(v.live.current(), func(s *VaultState) {
		s.Namespace = ns
		s.Signs = next
	})
	return nil
}

// Cancel drops the draft.
func (v *VaultController) Cancel() {
	v.releaseCamera()
	v.update(v.live.current(), func(s *VaultState) {
		s.Phase = VaultBrowsing
		s.Label = ""
		s.Captured = ""
		s.Err = ""
	})
}

func (v *VaultController) releaseCamera() {
	v.mu.Lock()
	stream := v.stream
	v.stream = nil
	v.mu.Unlock()
	v.camera.Release(stream)
}
