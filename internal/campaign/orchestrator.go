package campaign

import (
	"context"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"campaign-studio-bot/internal/gemini"
)

// Generator is the slice of the generation client the campaign engine
// depends on.
type Generator interface {
	GenerateText(ctx context.Context, prompt string, cfg gemini.TextConfig) (string, error)
	GenerateStructured(ctx context.Context, prompt string, schema gemini.Schema, out any) error
	GenerateImage(ctx context.Context, prompt string, refs []gemini.Image, cfg gemini.ImageConfig) (gemini.Image, error)
}

// Orchestrator produces the full three-asset campaign from one brief and
// one selected angle: six generation calls dispatched concurrently and
// joined all-or-nothing.
type Orchestrator struct {
	gen    Generator
	logger *slog.Logger
}

type OrchestratorOptions struct {
	Generator Generator
	Logger    *slog.Logger
}

func NewOrchestrator(opts OrchestratorOptions) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Orchestrator{gen: opts.Generator, logger: logger}
}

// GenerateAssets runs the six calls (three images, two copy texts, one
// headline list) concurrently. If any call fails the whole operation
// fails and no partial asset is returned; completion order is irrelevant
// since results land in role-indexed slots.
func (o *Orchestrator) GenerateAssets(ctx context.Context, in Inputs, angle Angle) ([]Asset, error) {
	if in.Photo.Empty() {
		return nil, ErrPhotoMissing
	}

	var (
		images    [3]gemini.Image
		copies    [2]string
		headlines []string
	)

	start := time.Now()
	eg, egCtx := errgroup.WithContext(ctx)

	for i, role := range assetRoles {
		i := i
		role := role
		eg.Go(func() error {
			img, err := o.gen.GenerateImage(egCtx, AssetImagePrompt(in, angle, role), []gemini.Image{in.Photo}, gemini.ImageConfig{})
			if err != nil {
				o.logger.Warn("asset image failed", "role", string(role), "err", err)
				return err
			}
			images[i] = img
			return nil
		})
	}

	for i, role := range []AssetRole{RoleInstagramPost, RoleFacebookAd} {
		i := i
		role := role
		eg.Go(func() error {
			text, err := o.gen.GenerateText(egCtx, AssetCopyPrompt(in, angle, role), gemini.TextConfig{})
			if err != nil {
				o.logger.Warn("asset copy failed", "role", string(role), "err", err)
				return err
			}
			copies[i] = text
			return nil
		})
	}

	eg.Go(func() error {
		var lines []string
		err := o.gen.GenerateStructured(egCtx, AssetCopyPrompt(in, angle, RoleWebBanner),
			gemini.Schema{Kind: gemini.SchemaStrings}, &lines)
		if err != nil {
			o.logger.Warn("banner headlines failed", "err", err)
			return err
		}
		if len(lines) == 0 {
			return &gemini.SchemaParseError{Err: errEmptyHeadlines}
		}
		if len(lines) > bannerHeadlineCount {
			lines = lines[:bannerHeadlineCount]
		}
		headlines = lines
		return nil
	})

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	o.logger.Info("campaign assets generated", "angle", angle.Title, "dur_ms", time.Since(start).Milliseconds())

	return []Asset{
		{Role: RoleInstagramPost, Image: images[0], Copy: copies[0]},
		{Role: RoleFacebookAd, Image: images[1], Copy: copies[1]},
		{Role: RoleWebBanner, Image: images[2], Headlines: headlines},
	}, nil
}
