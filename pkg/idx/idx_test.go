package idx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/taskboard/pkg/idx"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"
)

func TestNewIsCanonicalULID(t *testing.T) {
	id := idx.New()
	require.NotEmpty(t, id.String())

	_, err := ulid.ParseStrict(id.String())
	require.NoError(t, err)
}

func TestOrdering(t *testing.T) {
	a := idx.NewAt(time.Unix(1, 0).UTC())
	b := idx.NewAt(time.Unix(2, 0).UTC())

	require.Equal(t, -1, strings.Compare(a.String(), b.String()))
}

func TestMonotonicWithinMillisecond(t *testing.T) {
	at := time.Unix(1700000000, 0).UTC()
	prev := idx.NewAt(at)
	for range 50 {
		next := idx.NewAt(at)
		require.Equal(t, -1, strings.Compare(prev.String(), next.String()))
		prev = next
	}
}

func TestTimestampEmbedded(t *testing.T) {
	tm := time.Unix(1700000000, 0).UTC()
	u, err := ulid.ParseStrict(idx.NewAt(tm).String())
	require.NoError(t, err)
	require.WithinDuration(t, tm, ulid.Time(u.Time()), time.Millisecond)
}
