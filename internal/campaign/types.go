package campaign

import (
	"strings"

	"campaign-studio-bot/internal/gemini"
)

// Inputs is the campaign brief: a product photo plus three short text
// fields. Immutable once an angle batch has been generated from it.
type Inputs struct {
	Photo          gemini.Image
	ProductName    string
	TargetAudience string
	DesiredVibe    string
}

// Complete reports whether every field is usable: non-empty text fields
// and a non-empty photo payload.
func (in Inputs) Complete() bool {
	return !in.Photo.Empty() &&
		strings.TrimSpace(in.ProductName) != "" &&
		strings.TrimSpace(in.TargetAudience) != "" &&
		strings.TrimSpace(in.DesiredVibe) != ""
}

// Angle is one proposed strategic marketing theme. Angles are compared by
// title for selection identity.
type Angle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// AssetRole tags a generated asset with its channel.
type AssetRole string

const (
	RoleInstagramPost AssetRole = "instagram_post"
	RoleFacebookAd    AssetRole = "facebook_ad"
	RoleWebBanner     AssetRole = "web_banner"
)

// assetRoles is the fixed assembly order of a full campaign.
var assetRoles = [3]AssetRole{RoleInstagramPost, RoleFacebookAd, RoleWebBanner}

func (r AssetRole) String() string {
	switch r {
	case RoleInstagramPost:
		return "Instagram Post"
	case RoleFacebookAd:
		return "Facebook Ad"
	case RoleWebBanner:
		return "Web Banner"
	}
	return string(r)
}

// Asset is one channel deliverable: an image paired with either a single
// copy string (Instagram, Facebook) or an ordered headline list (banner).
type Asset struct {
	Role      AssetRole
	Image     gemini.Image
	Copy      string
	Headlines []string
}

// Stage is the wizard's position. It advances monotonically; a failed
// operation leaves it where it was.
type Stage int

const (
	StageAwaitingInputs Stage = iota
	StageAnglesReady
	StageAngleSelected
	StageAssetsReady
)

func (s Stage) String() string {
	switch s {
	case StageAwaitingInputs:
		return "awaiting_inputs"
	case StageAnglesReady:
		return "angles_ready"
	case StageAngleSelected:
		return "angle_selected"
	case StageAssetsReady:
		return "assets_ready"
	}
	return "unknown"
}

// State is the controller's full aggregate. It is only mutated through
// the controller's transition methods; callers get copies via Snapshot.
type State struct {
	Stage        Stage
	Inputs       Inputs
	Angles       []Angle
	Selected     *Angle
	Assets       []Asset
	EditedBanner *gemini.Image
	Busy         bool
	Progress     string
	LastError    string
}

// BannerAsset returns the web banner entry by role tag.
func (s State) BannerAsset() (Asset, bool) {
	for _, a := range s.Assets {
		if a.Role == RoleWebBanner {
			return a, true
		}
	}
	return Asset{}, false
}
