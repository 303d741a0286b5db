package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "focusd/internal/errors"
	"focusd/internal/model"
	"focusd/internal/repository"
)

// ModeService owns the focus-mode catalog and the active-mode signal. Every
// write to the active flag funnels through SetActive, so the flag has a single
// serialized writer regardless of whether the toggle came from the UI or the
// timer engine lifecycle.
type ModeService struct {
	repo *repository.ModeRepository

	mu          sync.Mutex
	subscribers []chan bool
}

type ModeInput struct {
	Name                 string
	WorkDurationSeconds  int
	BreakDurationSeconds int
	Description          *string
	BlockedApps          []string
}

type ModeView struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	WorkDurationSeconds  int       `json:"workDurationSeconds"`
	BreakDurationSeconds int       `json:"breakDurationSeconds"`
	Description          *string   `json:"description,omitempty"`
	BlockedApps          []string  `json:"blockedApps"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

func NewModeService(repo *repository.ModeRepository) *ModeService {
	return &ModeService{repo: repo}
}

func (s *ModeService) Create(ctx context.Context, input ModeInput) (*ModeView, *apperrors.APIError) {
	if apiErr := validateModeInput(input); apiErr != nil {
		return nil, apiErr
	}

	now := time.Now().UTC()
	mode := model.FocusMode{
		ID:            uuid.NewString(),
		Name:          input.Name,
		WorkDuration:  time.Duration(input.WorkDurationSeconds) * time.Second,
		BreakDuration: time.Duration(input.BreakDurationSeconds) * time.Second,
		Description:   input.Description,
		BlockedApps:   input.BlockedApps,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Insert(ctx, &mode); err != nil {
		return nil, apperrors.Internal("failed to create mode")
	}

	view := toModeView(&mode)
	return &view, nil
}

func (s *ModeService) Update(ctx context.Context, id string, input ModeInput) (*ModeView, *apperrors.APIError) {
	if apiErr := validateModeInput(input); apiErr != nil {
		return nil, apiErr
	}

	mode, err := s.repo.GetByID(ctx, id)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("mode_not_found", "focus mode not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to get mode")
	}

	mode.Name = input.Name
	mode.WorkDuration = time.Duration(input.WorkDurationSeconds) * time.Second
	mode.BreakDuration = time.Duration(input.BreakDurationSeconds) * time.Second
	mode.Description = input.Description
	mode.BlockedApps = input.BlockedApps
	mode.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, mode); err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("mode_not_found", "focus mode not found")
		}
		return nil, apperrors.Internal("failed to update mode")
	}

	view := toModeView(mode)
	return &view, nil
}

func (s *ModeService) Get(ctx context.Context, id string) (*ModeView, *apperrors.APIError) {
	mode, err := s.repo.GetByID(ctx, id)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("mode_not_found", "focus mode not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to get mode")
	}
	view := toModeView(mode)
	return &view, nil
}

func (s *ModeService) List(ctx context.Context) ([]ModeView, *apperrors.APIError) {
	modes, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to list modes")
	}

	views := make([]ModeView, 0, len(modes))
	for i := range modes {
		views = append(views, toModeView(&modes[i]))
	}
	return views, nil
}

// Activate marks the given mode as the active one after checking it resolves.
func (s *ModeService) Activate(ctx context.Context, id string) *apperrors.APIError {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if err == repository.ErrNotFound {
			return apperrors.NotFound("mode_not_found", "focus mode not found")
		}
		return apperrors.Internal("failed to get mode")
	}

	if err := s.SetActive(ctx, true, &id); err != nil {
		return apperrors.Internal("failed to activate mode")
	}
	return nil
}

func (s *ModeService) Deactivate(ctx context.Context) *apperrors.APIError {
	if err := s.SetActive(ctx, false, nil); err != nil {
		return apperrors.Internal("failed to deactivate mode")
	}
	return nil
}

// SetActive persists the active-mode flag and notifies subscribers. It is the
// single write path for the flag.
func (s *ModeService) SetActive(ctx context.Context, active bool, modeID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.SetActive(ctx, active, modeID); err != nil {
		return err
	}
	s.notifyLocked(active)
	return nil
}

// ActiveState reads the persisted flag. A flag that references a mode which no
// longer resolves is reported as inactive.
func (s *ModeService) ActiveState(ctx context.Context) (model.ActiveModeState, error) {
	state, err := s.repo.GetActive(ctx)
	if err != nil {
		return model.ActiveModeState{}, err
	}
	if !state.Active || state.ModeID == nil {
		return model.ActiveModeState{}, nil
	}

	if _, err := s.repo.GetByID(ctx, *state.ModeID); err != nil {
		if err == repository.ErrNotFound {
			log.Printf("active mode %s no longer exists, treating as inactive", *state.ModeID)
			return model.ActiveModeState{}, nil
		}
		return model.ActiveModeState{}, err
	}
	return state, nil
}

// ActiveMode resolves the currently active mode, or nil when none is active.
func (s *ModeService) ActiveMode(ctx context.Context) (*model.FocusMode, error) {
	state, err := s.ActiveState(ctx)
	if err != nil {
		return nil, err
	}
	if !state.Active || state.ModeID == nil {
		return nil, nil
	}
	mode, err := s.repo.GetByID(ctx, *state.ModeID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return mode, nil
}

// Subscribe registers an observer of the active flag. Each flip delivers the
// new value; observers are expected to re-resolve the mode themselves.
func (s *ModeService) Subscribe(buffer int) <-chan bool {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan bool, buffer)
	s.mu.Lock()
	s.subscribers = append(s.subscribers, ch)
	s.mu.Unlock()
	return ch
}

func (s *ModeService) notifyLocked(active bool) {
	for _, ch := range s.subscribers {
		select {
		case ch <- active:
		default:
			// Slow observer: drop the oldest value so the latest flip wins.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- active:
			default:
			}
		}
	}
}

func validateModeInput(input ModeInput) *apperrors.APIError {
	if input.Name == "" {
		return apperrors.BadRequest("invalid_name", "name is required")
	}
	if input.WorkDurationSeconds <= 0 || input.BreakDurationSeconds <= 0 {
		return apperrors.BadRequest("invalid_duration", "work and break durations must be positive seconds")
	}
	return nil
}

func toModeView(mode *model.FocusMode) ModeView {
	blockedApps := mode.BlockedApps
	if blockedApps == nil {
		blockedApps = []string{}
	}
	return ModeView{
		ID:                   mode.ID,
		Name:                 mode.Name,
		WorkDurationSeconds:  int(mode.WorkDuration.Seconds()),
		BreakDurationSeconds: int(mode.BreakDuration.Seconds()),
		Description:          mode.Description,
		BlockedApps:          blockedApps,
		CreatedAt:            mode.CreatedAt,
		UpdatedAt:            mode.UpdatedAt,
	}
}
