package campaign

import (
	"fmt"
	"strings"
)

// Prompt construction is pure string substitution: identical inputs
// always produce byte-identical prompts. There is one frame for the
// angle batch, one image and one copy frame per asset role, and one
// frame for banner variations.

const anglesPerBatch = 3

const bannerHeadlineCount = 3

// AnglesPrompt asks for the batch of three strategic angles as
// structured JSON.
func AnglesPrompt(in Inputs) string {
	var b strings.Builder
	b.Grow(512)

	b.WriteString("TASK: Propose strategic marketing angles for a product campaign.\n\n")
	b.WriteString("PRODUCT: " + strings.TrimSpace(in.ProductName) + "\n")
	b.WriteString("TARGET AUDIENCE: " + strings.TrimSpace(in.TargetAudience) + "\n")
	b.WriteString("DESIRED VIBE: " + strings.TrimSpace(in.DesiredVibe) + "\n\n")

	b.WriteString("RULES:\n")
	b.WriteString(fmt.Sprintf("- Propose exactly %d distinct angles.\n", anglesPerBatch))
	b.WriteString("- Each angle has a short punchy title and a one-sentence description.\n")
	b.WriteString("- Every angle must speak directly to the target audience in the desired vibe.\n")
	b.WriteString("- No two angles may share the same emotional hook.\n")

	return b.String()
}

var imageFrames = map[AssetRole]struct {
	scene string
	specs []string
}{
	RoleInstagramPost: {
		scene: "A square lifestyle shot for an Instagram feed post",
		specs: []string{
			"Square 1:1 composition, scroll-stopping at thumbnail size",
			"Warm, social, aspirational setting the audience recognises as their own",
			"Product in a candid-but-styled everyday moment, hero of the frame",
		},
	},
	RoleFacebookAd: {
		scene: "A landscape advertisement visual for a Facebook ad placement",
		specs: []string{
			"Landscape composition with clear space on one side for ad copy overlay",
			"High-contrast, benefit-forward staging that reads in a busy feed",
			"Commercial studio polish, conversion-oriented",
		},
	},
	RoleWebBanner: {
		scene: "A wide panoramic hero image for a website banner",
		specs: []string{
			"Wide panoramic composition, product off-centre with generous negative space",
			"Clean backdrop that headline text can sit on without clutter",
			"Premium landing-page hero aesthetic",
		},
	},
}

// AssetImagePrompt builds the image generation prompt for one role. The
// attached reference photo is the real product; every frame carries the
// same identity lock.
func AssetImagePrompt(in Inputs, angle Angle, role AssetRole) string {
	frame := imageFrames[role]

	var b strings.Builder
	b.Grow(1024)

	b.WriteString("TASK: " + frame.scene + ".\n\n")

	b.WriteString("REFERENCE IMAGE (IDENTITY LOCK): The attached photo contains the real product.\n")
	b.WriteString("- The product in the output MUST be the exact same object from the reference photo.\n")
	b.WriteString("- Preserve shape, proportions, materials, colors, and all physical details exactly.\n")
	b.WriteString("- If the reference has a label or logo, keep it exactly; if it has none, add no text.\n")
	b.WriteString("- You may replace the background and re-light; never redesign the product.\n")
	b.WriteString("- No captions, watermarks, or text overlays.\n\n")

	b.WriteString("CAMPAIGN:\n")
	b.WriteString("- Product: " + strings.TrimSpace(in.ProductName) + "\n")
	b.WriteString("- Audience: " + strings.TrimSpace(in.TargetAudience) + "\n")
	b.WriteString("- Vibe: " + strings.TrimSpace(in.DesiredVibe) + "\n")
	b.WriteString("- Marketing angle: " + strings.TrimSpace(angle.Title) + "\n\n")

	b.WriteString("EXECUTION:\n")
	for _, line := range frame.specs {
		b.WriteString("- " + line + "\n")
	}
	b.WriteString("- Studio-grade lighting, tack-sharp product, editorial polish.\n")

	return b.String()
}

// AssetCopyPrompt builds the text prompt for one role. Instagram and
// Facebook produce free text; the banner prompt is paired with a
// list-of-strings schema and asks for exactly three headlines.
func AssetCopyPrompt(in Inputs, angle Angle, role AssetRole) string {
	product := strings.TrimSpace(in.ProductName)
	audience := strings.TrimSpace(in.TargetAudience)
	vibe := strings.TrimSpace(in.DesiredVibe)
	title := strings.TrimSpace(angle.Title)

	switch role {
	case RoleFacebookAd:
		return fmt.Sprintf(
			"Write Facebook ad copy for %q aimed at %s.\n"+
				"Marketing angle: %s. Tone: %s.\n"+
				"Structure: a hook line, one or two benefit sentences, and a call to action.\n"+
				"Keep it under 80 words. Output the copy only, no preamble.",
			product, audience, title, vibe)
	case RoleWebBanner:
		return fmt.Sprintf(
			"Write website banner headlines for %q aimed at %s.\n"+
				"Marketing angle: %s. Tone: %s.\n"+
				"Produce exactly %d alternative headlines, each under 8 words, no punctuation at the end.",
			product, audience, title, vibe, bannerHeadlineCount)
	default:
		return fmt.Sprintf(
			"Write an Instagram caption for %q aimed at %s.\n"+
				"Marketing angle: %s. Tone: %s.\n"+
				"One or two sentences plus 3 fitting hashtags. Output the caption only, no preamble.",
			product, audience, title, vibe)
	}
}

// VariationPrompt builds the banner edit instruction. The request carries
// two reference images: the original product photo first, then the
// current banner being edited.
func VariationPrompt(instruction string) string {
	var b strings.Builder
	b.Grow(512)

	b.WriteString("TASK: Edit the attached banner image.\n\n")
	b.WriteString("REFERENCE ORDER:\n")
	b.WriteString("- Image 1 is the original product photo (identity lock: the product must stay this exact object).\n")
	b.WriteString("- Image 2 is the current banner to edit.\n\n")
	b.WriteString("INSTRUCTION:\n")
	b.WriteString("- " + strings.TrimSpace(instruction) + "\n\n")
	b.WriteString("RULES:\n")
	b.WriteString("- Apply the instruction to the banner; change nothing else.\n")
	b.WriteString("- Never alter the product's shape, materials, or branding.\n")
	b.WriteString("- Return the edited image only.\n")

	return b.String()
}
