package cascade

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDate_DateOnlyIsLocalMidnight(t *testing.T) {
	got, err := ParseDate("2020-01-01")
	require.NoError(t, err)

	require.Equal(t, 2020, got.Year())
	require.Equal(t, time.January, got.Month())
	require.Equal(t, 1, got.Day())
	require.Equal(t, 0, got.Hour())
	require.Equal(t, 0, got.Minute())
	require.Equal(t, 0, got.Second())
	require.Equal(t, time.Local, got.Location())
}

func TestParseDate_SpaceSeparatedLocalTime(t *testing.T) {
	got, err := ParseDate("2021-01-01 03:10:10")
	require.NoError(t, err)

	want := time.Date(2021, 1, 1, 3, 10, 10, 0, time.Local)
	require.True(t, got.Equal(want))
}

func TestParseDate_CompactAndPunctuatedUTCAgree(t *testing.T) {
	punctuated, err := ParseDate("2021-01-01T03:10:10Z")
	require.NoError(t, err)

	compact, err := ParseDate("20210101T031010Z")
	require.NoError(t, err)

	require.True(t, punctuated.Equal(compact))
	require.True(t, punctuated.Equal(time.Date(2021, 1, 1, 3, 10, 10, 0, time.UTC)))
}

func TestParseDate_CompactDateOnly(t *testing.T) {
	got, err := ParseDate("20210101")
	require.NoError(t, err)
	require.True(t, got.Equal(time.Date(2021, 1, 1, 0, 0, 0, 0, time.Local)))
}

func TestParseDate_NumericOffsetWithoutColon(t *testing.T) {
	got, err := ParseDate("2021-01-01T03:10:10-0700")
	require.NoError(t, err)

	// Seven hours ahead of the same wall-clock literal in UTC.
	utc := time.Date(2021, 1, 1, 3, 10, 10, 0, time.UTC)
	require.Equal(t, 7*time.Hour, got.Sub(utc))
}

func TestParseDate_NumericOffsetWithColon(t *testing.T) {
	got, err := ParseDate("2021-01-01T03:10:10+02:00")
	require.NoError(t, err)

	utc := time.Date(2021, 1, 1, 3, 10, 10, 0, time.UTC)
	require.Equal(t, -2*time.Hour, got.Sub(utc))
}

func TestParseDate_GarbageFails(t *testing.T) {
	_, err := ParseDate("next tuesday")
	require.Error(t, err)

	_, err = ParseDate("2021-13-45")
	require.Error(t, err)
}
