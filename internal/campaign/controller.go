package campaign

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	"campaign-studio-bot/internal/gemini"
)

// Progress labels shown while the corresponding operation is in flight.
const (
	ProgressAngles    = "Generating marketing angles…"
	ProgressCampaign  = "Generating campaign assets…"
	ProgressVariation = "Remixing the banner…"
)

// Controller owns the wizard state machine. All state lives in one State
// aggregate mutated only through the transition methods; a busy flag
// rejects overlapping operations, and an epoch counter discards results
// that complete after the wizard was reset.
type Controller struct {
	mu     sync.Mutex
	orch   *Orchestrator
	gen    Generator
	logger *slog.Logger

	state State
	epoch uint64
}

type ControllerOptions struct {
	Generator Generator
	Logger    *slog.Logger
}

func NewController(opts ControllerOptions) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Controller{
		gen:    opts.Generator,
		orch:   NewOrchestrator(OrchestratorOptions{Generator: opts.Generator, Logger: logger}),
		logger: logger,
	}
}

// Snapshot returns a copy of the current state for rendering.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.state
	s.Angles = append([]Angle(nil), c.state.Angles...)
	s.Assets = append([]Asset(nil), c.state.Assets...)
	if c.state.Selected != nil {
		sel := *c.state.Selected
		s.Selected = &sel
	}
	if c.state.EditedBanner != nil {
		banner := *c.state.EditedBanner
		s.EditedBanner = &banner
	}
	return s
}

// Reset returns the wizard to AwaitingInputs and invalidates any result
// still in flight.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.epoch++
	c.state = State{}
	c.logger.Info("campaign reset")
}

// RequestAngles generates a fresh batch of three angles from the brief.
// It invalidates all downstream state: selection, assets, edited banner.
func (c *Controller) RequestAngles(ctx context.Context, in Inputs) ([]Angle, error) {
	epoch, err := c.begin(ProgressAngles, func(*State) error {
		if !in.Complete() {
			return ErrInputIncomplete
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var angles []Angle
	genErr := c.gen.GenerateStructured(ctx, AnglesPrompt(in), gemini.Schema{
		Kind:       gemini.SchemaObjects,
		Properties: []string{"title", "description"},
	}, &angles)
	if genErr == nil {
		angles, genErr = normalizeAngles(angles)
	}
	if genErr != nil {
		c.fail(epoch, "angle generation", genErr)
		return nil, genErr
	}

	c.commit(epoch, func(s *State) {
		s.Stage = StageAnglesReady
		s.Inputs = in
		s.Angles = angles
		s.Selected = nil
		s.Assets = nil
		s.EditedBanner = nil
	})
	return angles, nil
}

// SelectAngle marks one angle of the current batch as selected, by title.
// It performs no service call. Changing the selection invalidates any
// assets derived from the previous one.
func (c *Controller) SelectAngle(title string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Busy {
		return ErrBusy
	}
	if len(c.state.Angles) == 0 {
		return ErrWrongStage
	}

	for _, a := range c.state.Angles {
		if a.Title != title {
			continue
		}
		if c.state.Selected != nil && c.state.Selected.Title == a.Title {
			return nil
		}
		sel := a
		c.state.Selected = &sel
		c.state.Stage = StageAngleSelected
		c.state.Assets = nil
		c.state.EditedBanner = nil
		c.state.LastError = ""
		return nil
	}

	c.state.LastError = UserMessage(ErrUnknownAngle)
	return ErrUnknownAngle
}

// GenerateCampaign produces the three channel assets for the selected
// angle. All-or-nothing: on failure the existing collection (if any) is
// untouched and the stage does not move. Any stale edited banner is
// cleared when the operation starts.
func (c *Controller) GenerateCampaign(ctx context.Context) ([]Asset, error) {
	var in Inputs
	var angle Angle

	epoch, err := c.begin(ProgressCampaign, func(s *State) error {
		if s.Selected == nil {
			return ErrNoSelection
		}
		if s.Inputs.Photo.Empty() {
			return ErrPhotoMissing
		}
		in = s.Inputs
		angle = *s.Selected
		s.EditedBanner = nil
		return nil
	})
	if err != nil {
		return nil, err
	}

	assets, genErr := c.orch.GenerateAssets(ctx, in, angle)
	if genErr != nil {
		c.fail(epoch, "campaign generation", genErr)
		return nil, genErr
	}

	c.commit(epoch, func(s *State) {
		s.Stage = StageAssetsReady
		s.Assets = assets
	})
	return assets, nil
}

// GenerateVariation edits the current web banner per the instruction,
// using the product photo and the banner as ordered references. Success
// replaces the previous edited banner; failure leaves it untouched.
func (c *Controller) GenerateVariation(ctx context.Context, instruction string) (gemini.Image, error) {
	instruction = strings.TrimSpace(instruction)

	var refs []gemini.Image
	epoch, err := c.begin(ProgressVariation, func(s *State) error {
		if instruction == "" {
			return ErrEmptyInstruction
		}
		if s.Stage != StageAssetsReady {
			return ErrWrongStage
		}
		banner, ok := s.BannerAsset()
		if !ok {
			return ErrWrongStage
		}
		if s.Inputs.Photo.Empty() {
			return ErrPhotoMissing
		}
		refs = []gemini.Image{s.Inputs.Photo, banner.Image}
		return nil
	})
	if err != nil {
		return gemini.Image{}, err
	}

	img, genErr := c.gen.GenerateImage(ctx, VariationPrompt(instruction), refs, gemini.ImageConfig{})
	if genErr != nil {
		c.fail(epoch, "banner variation", genErr)
		return gemini.Image{}, genErr
	}

	c.commit(epoch, func(s *State) {
		s.EditedBanner = &img
	})
	return img, nil
}

// begin validates preconditions and marks the controller busy under one
// lock acquisition. The returned epoch must be passed to commit or fail
// so a result arriving after Reset is discarded.
func (c *Controller) begin(label string, check func(*State) error) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Busy {
		return 0, ErrBusy
	}
	if check != nil {
		if err := check(&c.state); err != nil {
			c.state.LastError = UserMessage(err)
			return 0, err
		}
	}

	c.state.Busy = true
	c.state.Progress = label
	c.state.LastError = ""
	return c.epoch, nil
}

func (c *Controller) commit(epoch uint64, apply func(*State)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.epoch {
		c.logger.Info("stale result discarded")
		return
	}

	c.state.Busy = false
	c.state.Progress = ""
	apply(&c.state)
}

func (c *Controller) fail(epoch uint64, op string, err error) {
	c.logger.Error(op+" failed", "err", err)

	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.epoch {
		return
	}

	c.state.Busy = false
	c.state.Progress = ""
	c.state.LastError = UserMessage(err)
}

// normalizeAngles enforces the batch contract: at least three angles with
// non-empty titles and descriptions, truncated to exactly three.
func normalizeAngles(angles []Angle) ([]Angle, error) {
	out := make([]Angle, 0, anglesPerBatch)
	for _, a := range angles {
		a.Title = strings.TrimSpace(a.Title)
		a.Description = strings.TrimSpace(a.Description)
		if a.Title == "" || a.Description == "" {
			return nil, ErrBadAngleBatch
		}
		out = append(out, a)
		if len(out) == anglesPerBatch {
			return out, nil
		}
	}
	return nil, ErrBadAngleBatch
}
