package campaign

import (
	"errors"

	"campaign-studio-bot/internal/gemini"
)

var (
	// ErrBusy rejects an action while another generation is in flight.
	ErrBusy = errors.New("campaign: another generation is in progress")

	// ErrInputIncomplete rejects angle generation before all four brief
	// fields are usable.
	ErrInputIncomplete = errors.New("campaign: campaign inputs are incomplete")

	// ErrPhotoMissing rejects an image operation whose product photo is
	// gone at call time.
	ErrPhotoMissing = errors.New("campaign: product photo is missing")

	// ErrUnknownAngle rejects selecting an angle outside the current batch.
	ErrUnknownAngle = errors.New("campaign: angle is not part of the current batch")

	// ErrNoSelection rejects campaign generation before an angle is selected.
	ErrNoSelection = errors.New("campaign: no angle selected")

	// ErrWrongStage rejects an operation that is not permitted at the
	// current wizard stage.
	ErrWrongStage = errors.New("campaign: operation not allowed at this stage")

	// ErrEmptyInstruction rejects a banner variation without an instruction.
	ErrEmptyInstruction = errors.New("campaign: edit instruction is empty")

	// ErrBadAngleBatch reports a structured response that did not contain
	// three usable angles.
	ErrBadAngleBatch = errors.New("campaign: angle batch did not contain three usable angles")
)

var errEmptyHeadlines = errors.New("campaign: headline list is empty")

// UserMessage maps any failure into the single user-visible line shown
// for the active stage.
func UserMessage(err error) string {
	var serviceErr *gemini.ServiceError
	var schemaErr *gemini.SchemaParseError

	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrBusy):
		return "⏳ Hold on, a generation is still running."
	case errors.Is(err, ErrInputIncomplete):
		return "❌ Fill in the product name, audience, vibe and photo first."
	case errors.Is(err, ErrPhotoMissing):
		return "❌ The product photo is missing. Send it again to continue."
	case errors.Is(err, ErrUnknownAngle):
		return "❌ That angle is no longer available. Pick one from the latest batch."
	case errors.Is(err, ErrNoSelection):
		return "❌ Pick a marketing angle before generating the campaign."
	case errors.Is(err, ErrEmptyInstruction):
		return "❌ Tell me what to change about the banner."
	case errors.Is(err, ErrWrongStage):
		return "❌ That step isn't available right now."
	case errors.Is(err, gemini.ErrNoImage):
		return "❌ The model returned no image. Try again."
	case errors.Is(err, ErrBadAngleBatch), errors.As(err, &schemaErr):
		return "❌ The model answered in an unexpected format. Try again."
	case errors.As(err, &serviceErr):
		return "❌ The generation service failed. Try again in a moment."
	default:
		return "❌ Something went wrong. Try again."
	}
}
