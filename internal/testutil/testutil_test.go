package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobil-koeln/stopsync/internal/message"
)

func TestNewSampleCatalog(t *testing.T) {
	list := NewSampleCatalog(t)

	require.True(t, list.IsComplete())
	require.Equal(t, 2, list.SectionCount())
	assert.Equal(t, "College St At Spadina Ave", list.Section(0).StopTitle)
	assert.Equal(t, 2, list.Section(1).StopCount())
	assert.Equal(t, "510-Spadina", list.Section(1).Stop(1).RouteTitle)
}

func TestNewCatalog_Empty(t *testing.T) {
	list := NewCatalog(t, nil)
	assert.Equal(t, 0, list.SectionCount())
	assert.True(t, list.IsComplete())
}

func TestRecordingChannel(t *testing.T) {
	ch := NewRecordingChannel()
	assert.Nil(t, ch.Last())

	require.NoError(t, ch.Send(message.SectionsMetadataRequest{}.Dict()))
	require.NoError(t, ch.Send(message.SectionDataRequest{SectionIndex: 1}.Dict()))
	assert.Equal(t, 2, ch.SentCount())
	assert.Equal(t, message.SectionDataRequest{SectionIndex: 1}.Dict(), ch.Last())

	ch.Reset()
	assert.Zero(t, ch.SentCount())
}
