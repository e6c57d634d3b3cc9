package campaign

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnglesPromptSubstitution(t *testing.T) {
	in := testInputs()
	prompt := AnglesPrompt(in)

	assert.Contains(t, prompt, in.ProductName)
	assert.Contains(t, prompt, in.TargetAudience)
	assert.Contains(t, prompt, in.DesiredVibe)
	assert.Contains(t, prompt, "exactly 3 distinct angles")
}

func TestPromptsAreDeterministic(t *testing.T) {
	in := testInputs()
	angle := Angle{Title: "Everyday Luxury", Description: "Small rituals."}

	assert.Equal(t, AnglesPrompt(in), AnglesPrompt(in))
	assert.Equal(t, VariationPrompt("lime green"), VariationPrompt("lime green"))
	for _, role := range assetRoles {
		assert.Equal(t, AssetImagePrompt(in, angle, role), AssetImagePrompt(in, angle, role))
		assert.Equal(t, AssetCopyPrompt(in, angle, role), AssetCopyPrompt(in, angle, role))
	}
}

func TestPromptTemplatesAreDistinct(t *testing.T) {
	in := testInputs()
	angle := Angle{Title: "Everyday Luxury", Description: "Small rituals."}

	prompts := []string{
		AnglesPrompt(in),
		VariationPrompt("lime green"),
	}
	for _, role := range assetRoles {
		prompts = append(prompts, AssetImagePrompt(in, angle, role), AssetCopyPrompt(in, angle, role))
	}

	seen := make(map[string]bool, len(prompts))
	for _, p := range prompts {
		assert.False(t, seen[p], "template collision:\n%s", p)
		seen[p] = true
	}
	assert.Len(t, seen, 8)
}

func TestAssetImagePromptCarriesIdentityLock(t *testing.T) {
	in := testInputs()
	angle := Angle{Title: "Everyday Luxury"}

	for _, role := range assetRoles {
		prompt := AssetImagePrompt(in, angle, role)
		assert.Contains(t, prompt, "IDENTITY LOCK")
		assert.Contains(t, prompt, angle.Title)
	}
}

func TestAssetCopyPromptShapes(t *testing.T) {
	in := testInputs()
	angle := Angle{Title: "Everyday Luxury"}

	insta := AssetCopyPrompt(in, angle, RoleInstagramPost)
	assert.Contains(t, insta, "Instagram caption")
	assert.Contains(t, insta, "hashtags")

	fb := AssetCopyPrompt(in, angle, RoleFacebookAd)
	assert.Contains(t, fb, "Facebook ad copy")
	assert.Contains(t, fb, "call to action")

	banner := AssetCopyPrompt(in, angle, RoleWebBanner)
	assert.Contains(t, banner, "exactly 3 alternative headlines")
}

func TestVariationPromptReferenceOrder(t *testing.T) {
	prompt := VariationPrompt("  make the background lime green  ")

	assert.Contains(t, prompt, "make the background lime green")
	assert.NotContains(t, prompt, "  make the background")

	img1 := strings.Index(prompt, "Image 1")
	img2 := strings.Index(prompt, "Image 2")
	assert.True(t, img1 >= 0 && img2 > img1, "reference order must name the product photo first")
}
