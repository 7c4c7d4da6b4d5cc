package catalog

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestList(t *testing.T) *StopList {
	t.Helper()

	list, err := NewStopList(2)
	require.NoError(t, err)

	college, err := list.AddSection(0, "5278", "College St At Spadina Ave", 1)
	require.NoError(t, err)
	_, err = college.AddStop(0, "506", "506-Carlton", "506_0_506", "East - 506 Carlton towards Main Street Station")
	require.NoError(t, err)

	queen, err := list.AddSection(1, "7306", "Queen St West At Spadina Ave", 2)
	require.NoError(t, err)
	_, err = queen.AddStop(0, "501", "501-Queen", "501_1_501", "West - 501 Queen towards Long Branch")
	require.NoError(t, err)
	_, err = queen.AddStop(1, "510", "510-Spadina", "510_0_510", "South - 510 Spadina towards Queens Quay")
	require.NoError(t, err)

	return list
}

func TestNewStopList(t *testing.T) {
	tests := []struct {
		name    string
		count   int
		wantErr error
	}{
		{name: "zero sections", count: 0},
		{name: "some sections", count: 3},
		{name: "maximum", count: MaxCount},
		{name: "negative", count: -1, wantErr: ErrInvalidArgument},
		{name: "beyond uint16", count: MaxCount + 1, wantErr: ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := NewStopList(tt.count)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, list)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.count, list.SectionCount())
			for i := 0; i < tt.count && i < 3; i++ {
				assert.Nil(t, list.Section(i))
			}
		})
	}
}

func TestNewStopList_ZeroIsComplete(t *testing.T) {
	list, err := NewStopList(0)
	require.NoError(t, err)
	assert.True(t, list.IsComplete())
	assert.Empty(t, list.Sections())
}

func TestStopList_AddSection(t *testing.T) {
	list, err := NewStopList(2)
	require.NoError(t, err)

	section, err := list.AddSection(1, "5278", "College St", 3)
	require.NoError(t, err)
	assert.Equal(t, "5278", section.StopTag)
	assert.Equal(t, "College St", section.StopTitle)
	assert.Equal(t, 3, section.StopCount())
	assert.Same(t, section, list.Section(1))
	assert.Nil(t, list.Section(0))
	assert.False(t, list.IsComplete())
}

func TestStopList_AddSection_Errors(t *testing.T) {
	list, err := NewStopList(1)
	require.NoError(t, err)
	_, err = list.AddSection(0, "5278", "College St", 1)
	require.NoError(t, err)

	tests := []struct {
		name      string
		index     int
		stopCount int
		wantErr   error
	}{
		{name: "index equal to count", index: 1, stopCount: 1, wantErr: ErrIndexOutOfRange},
		{name: "negative index", index: -1, stopCount: 1, wantErr: ErrIndexOutOfRange},
		{name: "already populated", index: 0, stopCount: 1, wantErr: ErrAlreadyPopulated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := list.AddSection(tt.index, "x", "y", tt.stopCount)
			require.ErrorIs(t, err, tt.wantErr)

			var slotErr *SlotError
			require.True(t, errors.As(err, &slotErr))
			assert.Equal(t, tt.index, slotErr.Index)
			assert.Equal(t, 1, slotErr.Count)
		})
	}

	// The original section is untouched after a rejected re-add
	assert.Equal(t, "College St", list.Section(0).StopTitle)
}

func TestStopList_AddSection_InvalidStopCount(t *testing.T) {
	list, err := NewStopList(1)
	require.NoError(t, err)

	_, err = list.AddSection(0, "5278", "College St", MaxCount+1)
	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.Nil(t, list.Section(0))
}

func TestStopSection_AddStop(t *testing.T) {
	list := newTestList(t)

	queen := list.Section(1)
	require.NotNil(t, queen)
	assert.Equal(t, 2, queen.StopCount())

	stop := queen.Stop(1)
	require.NotNil(t, stop)
	assert.Equal(t, "510", stop.RouteTag)
	assert.Equal(t, "510-Spadina", stop.RouteTitle)
	assert.Equal(t, "510_0_510", stop.DirectionTag)
	assert.False(t, stop.HasPrediction())
	assert.True(t, list.IsComplete())
	assert.Equal(t, 3, list.StopTotal())
}

func TestStopSection_AddStop_Errors(t *testing.T) {
	list := newTestList(t)
	college := list.Section(0)

	_, err := college.AddStop(1, "506", "506-Carlton", "d", "D")
	require.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = college.AddStop(0, "505", "505-Dundas", "d", "D")
	require.ErrorIs(t, err, ErrAlreadyPopulated)
	assert.Equal(t, "506", college.Stop(0).RouteTag)
}

func TestStop_SetPrediction(t *testing.T) {
	list := newTestList(t)
	stop := list.Section(0).Stop(0)

	input := Prediction{3, 10}
	require.NoError(t, stop.SetPrediction(input, "mins"))
	assert.True(t, stop.HasPrediction())
	assert.Equal(t, Prediction{3, 10}, stop.Prediction)
	assert.Equal(t, "mins", stop.MinutesLabel)

	// The stop owns its copy
	input[0] = 99
	assert.Equal(t, 3, stop.Prediction[0])

	require.NoError(t, stop.SetPrediction(Prediction{}, ""))
	assert.True(t, stop.HasPrediction())
	assert.Empty(t, stop.Prediction)
}

func TestStop_SetPrediction_Errors(t *testing.T) {
	var placeholder *Stop
	require.ErrorIs(t, placeholder.SetPrediction(Prediction{1}, "min"), ErrNotFound)

	stop := &Stop{RouteTag: "506"}
	require.ErrorIs(t, stop.SetPrediction(Prediction{1, 2, 3}, "mins"), ErrInvalidArgument)
	assert.False(t, stop.HasPrediction())
}

func TestStopList_SetPrediction(t *testing.T) {
	list, err := NewStopList(2)
	require.NoError(t, err)
	section, err := list.AddSection(0, "5278", "College St", 2)
	require.NoError(t, err)
	_, err = section.AddStop(0, "506", "506-Carlton", "d", "D")
	require.NoError(t, err)

	require.NoError(t, list.SetPrediction(0, 0, Prediction{4}, "mins"))
	assert.Equal(t, Prediction{4}, list.Section(0).Stop(0).Prediction)

	require.ErrorIs(t, list.SetPrediction(0, 1, Prediction{4}, "mins"), ErrNotFound)
	require.ErrorIs(t, list.SetPrediction(1, 0, Prediction{4}, "mins"), ErrNotFound)
	require.ErrorIs(t, list.SetPrediction(2, 0, Prediction{4}, "mins"), ErrIndexOutOfRange)
	require.ErrorIs(t, list.SetPrediction(0, 2, Prediction{4}, "mins"), ErrIndexOutOfRange)
}

func TestStopList_FindStop(t *testing.T) {
	list := newTestList(t)

	stop := list.FindStop("510", "7306")
	require.NotNil(t, stop)
	assert.Equal(t, "510-Spadina", stop.RouteTitle)

	assert.Nil(t, list.FindStop("510", "5278"))
	assert.Nil(t, list.FindStop("999", "7306"))

	var empty *StopList
	assert.Nil(t, empty.FindStop("510", "7306"))
}

func TestStopList_SectionsReturnsCopy(t *testing.T) {
	list := newTestList(t)

	sections := list.Sections()
	sections[0] = nil
	assert.NotNil(t, list.Section(0))

	stops := list.Section(1).Stops()
	stops[1] = nil
	assert.NotNil(t, list.Section(1).Stop(1))
}

func TestStopList_Destroy(t *testing.T) {
	t.Run("complete list", func(t *testing.T) {
		list := newTestList(t)
		section := list.Section(1)

		list.Destroy()
		assert.Equal(t, 0, list.SectionCount())
		assert.Equal(t, 0, section.StopCount())
	})

	t.Run("partial list", func(t *testing.T) {
		list, err := NewStopList(3)
		require.NoError(t, err)
		_, err = list.AddSection(1, "5278", "College St", 4)
		require.NoError(t, err)

		assert.NotPanics(t, list.Destroy)
		assert.Equal(t, 0, list.SectionCount())
	})

	t.Run("nil list", func(t *testing.T) {
		var list *StopList
		assert.NotPanics(t, list.Destroy)
	})
}

func TestStopList_MarshalJSON(t *testing.T) {
	list := newTestList(t)
	require.NoError(t, list.Section(0).Stop(0).SetPrediction(Prediction{2, 9}, "mins"))

	data, err := json.Marshal(list)
	require.NoError(t, err)

	var decoded struct {
		Sections []struct {
			StopTag string `json:"stopTag"`
			Stops   []struct {
				RouteTag   string `json:"routeTag"`
				Prediction []int  `json:"prediction"`
			} `json:"stops"`
		} `json:"sections"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Sections, 2)
	assert.Equal(t, "5278", decoded.Sections[0].StopTag)
	assert.Equal(t, []int{2, 9}, decoded.Sections[0].Stops[0].Prediction)
	assert.Len(t, decoded.Sections[1].Stops, 2)
}
