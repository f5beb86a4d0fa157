package fingerprint

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/high-horse/fingerprint/config"
)

func shifted(t *Template, dx, dy int) *Template {
	out := &Template{Width: t.Width, Height: t.Height, DPI: t.DPI}
	for _, m := range t.Minutiae {
		m.X += dx
		m.Y += dy
		out.Minutiae = append(out.Minutiae, m)
	}
	return out
}

func TestMatcher_Self(t *testing.T) {
	probe := sampleTemplate()
	m, err := NewMatcher(nil, nil, probe)
	require.NoError(t, err)

	res, err := m.Match(context.Background(), probe)

	require.NoError(t, err)
	assert.Equal(t, len(probe.Minutiae), res.Pairs)
	assert.Equal(t, float64(len(probe.Minutiae)), res.Score)
}

func TestMatcher_Empty(t *testing.T) {
	empty := &Template{Width: 100, Height: 100}
	m, err := NewMatcher(config.Default(), nil, empty)
	require.NoError(t, err)

	res, err := m.Match(context.Background(), empty)
	require.NoError(t, err)
	assert.Zero(t, res.Score)

	res, err = m.Match(context.Background(), sampleTemplate())
	require.NoError(t, err)
	assert.Zero(t, res.Score)
}

func TestMatcher_Invalid(t *testing.T) {
	_, err := NewMatcher(nil, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidTemplate)

	m, err := NewMatcher(nil, nil, sampleTemplate())
	require.NoError(t, err)
	_, err = m.Match(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidTemplate)

	_, err = NewMatcher(&config.Config{Matching: config.Matching{Seeds: -1}}, nil, sampleTemplate())
	assert.ErrorContains(t, err, "seeds")
}

func TestMatcher_PartialConfig(t *testing.T) {
	probe := sampleTemplate()
	m, err := NewMatcher(&config.Config{Workers: 2}, nil, probe)
	require.NoError(t, err)

	res, err := m.Match(context.Background(), shifted(probe, 5, 5))

	require.NoError(t, err)
	assert.Equal(t, len(probe.Minutiae), res.Pairs)
}

func TestMatcher_SingleMinutia(t *testing.T) {
	single := &Template{Width: 100, Height: 100, Minutiae: sampleTemplate().Minutiae[:1]}
	m, err := NewMatcher(nil, nil, single)
	require.NoError(t, err)

	res, err := m.Match(context.Background(), single)

	require.NoError(t, err)
	assert.Zero(t, res.Score)
}

func TestMatcher_Transparency(t *testing.T) {
	rec := &recorder{}
	m, err := NewMatcher(nil, NewTransparencyLogger(rec), sampleTemplate())
	require.NoError(t, err)

	_, err = m.Match(context.Background(), sampleTemplate())
	require.NoError(t, err)
	assert.Equal(t, []string{KeyMatch}, rec.keys)
	assert.Equal(t, MimeCBOR, rec.mimes[KeyMatch])
}

func TestMatcher_Identify(t *testing.T) {
	probe := sampleTemplate()
	part := &Template{Width: 200, Height: 200, Minutiae: probe.Minutiae[:6]}
	candidates := []*Template{
		{Width: 200, Height: 200},
		shifted(probe, 10, -12),
		part,
		probe,
	}
	cfg := config.Default()
	cfg.Workers = 3
	m, err := NewMatcher(cfg, nil, probe)
	require.NoError(t, err)

	ranked, err := m.Identify(context.Background(), candidates)

	require.NoError(t, err)
	require.Len(t, ranked, 4)
	order := []int{ranked[0].Index, ranked[1].Index, ranked[2].Index, ranked[3].Index}
	assert.Equal(t, []int{1, 3, 2, 0}, order)
	assert.Equal(t, 12.0, ranked[0].Score)
	assert.Equal(t, 6.0, ranked[2].Score)
	assert.Zero(t, ranked[3].Score)
}

func TestMatcher_IdentifyCancelled(t *testing.T) {
	m, err := NewMatcher(nil, nil, sampleTemplate())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = m.Identify(ctx, []*Template{sampleTemplate(), sampleTemplate()})

	assert.True(t, errors.Is(err, context.Canceled))
}

func TestMatcher_IdentifyMany(t *testing.T) {
	probe := sampleTemplate()
	candidates := make([]*Template, 25)
	for i := range candidates {
		candidates[i] = shifted(probe, i%5, -(i % 3))
	}
	cfg := config.Default()
	cfg.Workers = 4
	m, err := NewMatcher(cfg, nil, probe)
	require.NoError(t, err)

	ranked, err := m.Identify(context.Background(), candidates)

	require.NoError(t, err)
	require.Len(t, ranked, len(candidates))
	for i, c := range ranked {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, 12.0, c.Score)
	}
}

func TestMatcher_IdentifyError(t *testing.T) {
	m, err := NewMatcher(nil, nil, sampleTemplate())
	require.NoError(t, err)

	_, err = m.Identify(context.Background(), []*Template{sampleTemplate(), nil})

	assert.ErrorIs(t, err, ErrInvalidTemplate)
}
