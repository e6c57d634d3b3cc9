package campaign

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaign-studio-bot/internal/gemini"
)

func newTestController(gen Generator) *Controller {
	return NewController(ControllerOptions{Generator: gen})
}

// readyController drives a controller to AssetsReady with the default fake.
func readyController(t *testing.T, gen *fakeGenerator) *Controller {
	t.Helper()

	c := newTestController(gen)

	angles, err := c.RequestAngles(context.Background(), testInputs())
	require.NoError(t, err)
	require.Len(t, angles, 3)

	require.NoError(t, c.SelectAngle(angles[0].Title))

	_, err = c.GenerateCampaign(context.Background())
	require.NoError(t, err)

	return c
}

func TestRequestAnglesHappyPath(t *testing.T) {
	gen := &fakeGenerator{}
	c := newTestController(gen)

	angles, err := c.RequestAngles(context.Background(), testInputs())
	require.NoError(t, err)
	require.Len(t, angles, 3)
	assert.Equal(t, "Angle A", angles[0].Title)

	state := c.Snapshot()
	assert.Equal(t, StageAnglesReady, state.Stage)
	assert.False(t, state.Busy)
	assert.Empty(t, state.Progress)
	assert.Empty(t, state.LastError)
	assert.Nil(t, state.Selected)
}

func TestRequestAnglesIncompleteInputs(t *testing.T) {
	gen := &fakeGenerator{}
	c := newTestController(gen)

	in := testInputs()
	in.TargetAudience = "   "

	_, err := c.RequestAngles(context.Background(), in)
	assert.ErrorIs(t, err, ErrInputIncomplete)

	_, structured, _ := gen.calls()
	assert.Zero(t, structured, "no service call may happen with an incomplete brief")

	state := c.Snapshot()
	assert.Equal(t, StageAwaitingInputs, state.Stage)
	assert.NotEmpty(t, state.LastError)
}

func TestRequestAnglesBadBatch(t *testing.T) {
	gen := &fakeGenerator{
		structuredFn: func(_ string, _ gemini.Schema, out any) error {
			return json.Unmarshal([]byte(`[{"title":"Only","description":"One."}]`), out)
		},
	}
	c := newTestController(gen)

	_, err := c.RequestAngles(context.Background(), testInputs())
	assert.ErrorIs(t, err, ErrBadAngleBatch)

	state := c.Snapshot()
	assert.Equal(t, StageAwaitingInputs, state.Stage)
	assert.False(t, state.Busy)
	assert.NotEmpty(t, state.LastError)
}

func TestRequestAnglesTruncatesExtras(t *testing.T) {
	gen := &fakeGenerator{
		structuredFn: func(_ string, _ gemini.Schema, out any) error {
			return json.Unmarshal([]byte(`[
				{"title":"A","description":"1"},
				{"title":"B","description":"2"},
				{"title":"C","description":"3"},
				{"title":"D","description":"4"}
			]`), out)
		},
	}
	c := newTestController(gen)

	angles, err := c.RequestAngles(context.Background(), testInputs())
	require.NoError(t, err)
	assert.Len(t, angles, 3)
}

func TestRequestAnglesInvalidatesDownstreamState(t *testing.T) {
	gen := &fakeGenerator{}
	c := readyController(t, gen)

	_, err := c.GenerateVariation(context.Background(), "make it blue")
	require.NoError(t, err)
	require.NotNil(t, c.Snapshot().EditedBanner)

	_, err = c.RequestAngles(context.Background(), testInputs())
	require.NoError(t, err)

	state := c.Snapshot()
	assert.Equal(t, StageAnglesReady, state.Stage)
	assert.Nil(t, state.Selected)
	assert.Empty(t, state.Assets)
	assert.Nil(t, state.EditedBanner)
}

func TestSelectAngle(t *testing.T) {
	gen := &fakeGenerator{}
	c := newTestController(gen)

	assert.ErrorIs(t, c.SelectAngle("Angle A"), ErrWrongStage)

	angles, err := c.RequestAngles(context.Background(), testInputs())
	require.NoError(t, err)

	assert.ErrorIs(t, c.SelectAngle("Nope"), ErrUnknownAngle)

	require.NoError(t, c.SelectAngle(angles[1].Title))
	state := c.Snapshot()
	assert.Equal(t, StageAngleSelected, state.Stage)
	require.NotNil(t, state.Selected)
	assert.Equal(t, angles[1].Title, state.Selected.Title)
}

func TestReselectingAngleClearsAssets(t *testing.T) {
	gen := &fakeGenerator{}
	c := readyController(t, gen)

	state := c.Snapshot()
	require.Len(t, state.Assets, 3)

	// Same angle again is a no-op.
	require.NoError(t, c.SelectAngle(state.Selected.Title))
	assert.Len(t, c.Snapshot().Assets, 3)

	// A different angle invalidates the assets built for the previous one.
	require.NoError(t, c.SelectAngle(state.Angles[2].Title))
	after := c.Snapshot()
	assert.Equal(t, StageAngleSelected, after.Stage)
	assert.Empty(t, after.Assets)
	assert.Nil(t, after.EditedBanner)
}

func TestGenerateCampaignRequiresSelection(t *testing.T) {
	gen := &fakeGenerator{}
	c := newTestController(gen)

	_, err := c.RequestAngles(context.Background(), testInputs())
	require.NoError(t, err)

	_, err = c.GenerateCampaign(context.Background())
	assert.ErrorIs(t, err, ErrNoSelection)

	_, _, image := gen.calls()
	assert.Zero(t, image)
}

func TestGenerateCampaignFailureKeepsStage(t *testing.T) {
	gen := &fakeGenerator{}
	c := newTestController(gen)

	angles, err := c.RequestAngles(context.Background(), testInputs())
	require.NoError(t, err)
	require.NoError(t, c.SelectAngle(angles[0].Title))

	gen.mu.Lock()
	gen.imageFn = func(string, []gemini.Image) (gemini.Image, error) {
		return gemini.Image{}, gemini.ErrNoImage
	}
	gen.mu.Unlock()

	_, err = c.GenerateCampaign(context.Background())
	require.Error(t, err)

	state := c.Snapshot()
	assert.Equal(t, StageAngleSelected, state.Stage)
	assert.Empty(t, state.Assets)
	assert.False(t, state.Busy)
	assert.NotEmpty(t, state.LastError)
}

func TestGenerateCampaignHappyPath(t *testing.T) {
	gen := &fakeGenerator{}
	c := readyController(t, gen)

	state := c.Snapshot()
	assert.Equal(t, StageAssetsReady, state.Stage)
	require.Len(t, state.Assets, 3)

	banner, ok := state.BannerAsset()
	require.True(t, ok)
	assert.Len(t, banner.Headlines, 3)
}

func TestGenerateVariation(t *testing.T) {
	gen := &fakeGenerator{}
	c := newTestController(gen)

	_, err := c.GenerateVariation(context.Background(), "make it blue")
	assert.ErrorIs(t, err, ErrWrongStage)

	c = readyController(t, gen)

	_, err = c.GenerateVariation(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptyInstruction)

	var gotRefs []gemini.Image
	gen.mu.Lock()
	gen.imageFn = func(_ string, refs []gemini.Image) (gemini.Image, error) {
		gotRefs = refs
		return gemini.Image{Data: []byte("edited"), MimeType: "image/png"}, nil
	}
	gen.mu.Unlock()

	img, err := c.GenerateVariation(context.Background(), "make the background lime green")
	require.NoError(t, err)
	assert.Equal(t, "edited", string(img.Data))

	// Product photo first, current banner second.
	require.Len(t, gotRefs, 2)
	assert.Equal(t, "photo", string(gotRefs[0].Data))

	state := c.Snapshot()
	require.NotNil(t, state.EditedBanner)
	assert.Equal(t, "edited", string(state.EditedBanner.Data))
	assert.Equal(t, StageAssetsReady, state.Stage)
}

func TestVariationChainsOnOriginalBanner(t *testing.T) {
	gen := &fakeGenerator{}
	c := readyController(t, gen)

	bannerData := ""
	gen.mu.Lock()
	gen.imageFn = func(_ string, refs []gemini.Image) (gemini.Image, error) {
		bannerData = string(refs[1].Data)
		return gemini.Image{Data: []byte("edit-" + bannerData)}, nil
	}
	gen.mu.Unlock()

	_, err := c.GenerateVariation(context.Background(), "first edit")
	require.NoError(t, err)
	firstRef := bannerData

	_, err = c.GenerateVariation(context.Background(), "second edit")
	require.NoError(t, err)

	// Edits always start from the generated banner, not the prior edit.
	assert.Equal(t, firstRef, bannerData)
}

func TestBusyRejectsOverlap(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})

	gen := &fakeGenerator{
		structuredFn: func(_ string, _ gemini.Schema, out any) error {
			close(entered)
			<-release
			return json.Unmarshal([]byte(`[
				{"title":"A","description":"1"},
				{"title":"B","description":"2"},
				{"title":"C","description":"3"}
			]`), out)
		},
	}
	c := newTestController(gen)

	done := make(chan error, 1)
	go func() {
		_, err := c.RequestAngles(context.Background(), testInputs())
		done <- err
	}()

	<-entered

	state := c.Snapshot()
	assert.True(t, state.Busy)
	assert.Equal(t, ProgressAngles, state.Progress)

	_, err := c.RequestAngles(context.Background(), testInputs())
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, c.SelectAngle("A"), ErrBusy)

	close(release)
	require.NoError(t, <-done)

	state = c.Snapshot()
	assert.False(t, state.Busy)
	assert.Equal(t, StageAnglesReady, state.Stage)
}

func TestResetDiscardsInFlightResult(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})

	gen := &fakeGenerator{
		structuredFn: func(_ string, _ gemini.Schema, out any) error {
			close(entered)
			<-release
			return json.Unmarshal([]byte(`[
				{"title":"A","description":"1"},
				{"title":"B","description":"2"},
				{"title":"C","description":"3"}
			]`), out)
		},
	}
	c := newTestController(gen)

	done := make(chan error, 1)
	go func() {
		_, err := c.RequestAngles(context.Background(), testInputs())
		done <- err
	}()

	<-entered
	c.Reset()
	close(release)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("operation did not finish")
	}

	state := c.Snapshot()
	assert.Equal(t, StageAwaitingInputs, state.Stage)
	assert.Empty(t, state.Angles)
	assert.False(t, state.Busy)
}
