package companion

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobil-koeln/stopsync/internal/catalog"
	"github.com/mobil-koeln/stopsync/internal/testutil"
)

func TestParseFixture(t *testing.T) {
	f, err := ParseFixture([]byte(testutil.SampleCatalogYAML))
	require.NoError(t, err)
	require.Len(t, f.Sections, 2)

	assert.Equal(t, "5278", f.Sections[0].StopTag)
	assert.Equal(t, "College St At Spadina Ave", f.Sections[0].StopTitle)
	require.Len(t, f.Sections[1].Stops, 2)
	assert.Equal(t, "501_1_501", f.Sections[1].Stops[0].DirectionTag)
	assert.Equal(t, []int{1}, f.Sections[1].Stops[0].Prediction)
	assert.Nil(t, f.Sections[1].Stops[1].Prediction)
}

func TestParseFixture_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown field",
			yaml:    "sections:\n  - stop_tag: \"1\"\n    colour: red\n",
			wantErr: "failed to parse fixture",
		},
		{
			name:    "missing stop tag",
			yaml:    "sections:\n  - stop_title: Nowhere\n",
			wantErr: "section 0: stop_tag is required",
		},
		{
			name:    "missing route tag",
			yaml:    "sections:\n  - stop_tag: \"1\"\n    stops:\n      - route_title: Somewhere\n",
			wantErr: "section 0 stop 0: route_tag is required",
		},
		{
			name:    "too many predictions",
			yaml:    "sections:\n  - stop_tag: \"1\"\n    stops:\n      - route_tag: \"5\"\n        prediction: [1, 2, 3]\n",
			wantErr: "3 predictions",
		},
		{
			name:    "not yaml",
			yaml:    "sections: [",
			wantErr: "failed to parse fixture",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFixture([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseFixture_Empty(t *testing.T) {
	f, err := ParseFixture(nil)
	require.NoError(t, err)

	list, err := f.Catalog()
	require.NoError(t, err)
	assert.Equal(t, 0, list.SectionCount())
	assert.True(t, list.IsComplete())
}

func TestLoadFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testutil.SampleCatalogYAML), 0o644))

	f, err := LoadFixture(path)
	require.NoError(t, err)
	assert.Len(t, f.Sections, 2)

	_, err = LoadFixture(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestFixture_Catalog(t *testing.T) {
	f, err := ParseFixture([]byte(testutil.SampleCatalogYAML))
	require.NoError(t, err)

	list, err := f.Catalog()
	require.NoError(t, err)
	require.True(t, list.IsComplete())
	assert.Equal(t, 3, list.StopTotal())

	carlton := list.FindStop("506", "5278")
	require.NotNil(t, carlton)
	assert.Equal(t, catalog.Prediction{3, 10}, carlton.Prediction)
	assert.Equal(t, "mins", carlton.MinutesLabel)

	queen := list.FindStop("501", "7306")
	require.NotNil(t, queen)
	assert.Equal(t, "min", queen.MinutesLabel)

	assert.False(t, list.FindStop("510", "7306").HasPrediction())
}

func TestFixture_Predictor(t *testing.T) {
	f, err := ParseFixture([]byte(testutil.SampleCatalogYAML))
	require.NoError(t, err)
	p := f.Predictor()
	ctx := context.Background()

	got, err := p.Predict(ctx, "506", "5278")
	require.NoError(t, err)
	assert.Equal(t, catalog.Prediction{3, 10}, got)

	got, err = p.Predict(ctx, "510", "7306")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)

	_, err = p.Predict(ctx, "506", "7306")
	require.ErrorIs(t, err, ErrNoPrediction)
}

func TestStaticPredictor_ReturnsCopies(t *testing.T) {
	p := NewStaticPredictor()
	p.Set("506", "5278", []int{4, 9})

	got, err := p.Predict(context.Background(), "506", "5278")
	require.NoError(t, err)
	got[0] = 99

	again, err := p.Predict(context.Background(), "506", "5278")
	require.NoError(t, err)
	assert.Equal(t, catalog.Prediction{4, 9}, again)
}
