package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(minute int) time.Time {
	return time.Date(2025, 3, 1, 9, minute, 0, 0, time.UTC)
}

func TestMergeExposureEvents(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		a        []time.Time
		b        []time.Time
		expected []time.Time
	}{
		{
			name:     "both nil",
			expected: nil,
		},
		{
			name:     "empty and nil",
			a:        []time.Time{},
			expected: []time.Time{},
		},
		{
			name:     "union sorted",
			a:        []time.Time{ts(1), ts(2)},
			b:        []time.Time{ts(3)},
			expected: []time.Time{ts(1), ts(2), ts(3)},
		},
		{
			name:     "duplicates removed",
			a:        []time.Time{ts(2), ts(1)},
			b:        []time.Time{ts(1)},
			expected: []time.Time{ts(1), ts(2)},
		},
		{
			name:     "oldest three kept",
			a:        []time.Time{ts(1), ts(2), ts(3)},
			b:        []time.Time{ts(0)},
			expected: []time.Time{ts(0), ts(1), ts(2)},
		},
		{
			name:     "same instant in another zone is a duplicate",
			a:        []time.Time{ts(1)},
			b:        []time.Time{ts(1).In(time.FixedZone("X", 3600))},
			expected: []time.Time{ts(1)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MergeExposureEvents(tt.a, tt.b))
		})
	}
}

func TestRecordExposure_StopsAtCap(t *testing.T) {
	t.Parallel()

	item := &ItemState{ID: "banana"}
	assert.True(t, item.RecordExposure(ts(1)))
	assert.True(t, item.RecordExposure(ts(2)))
	assert.True(t, item.RecordExposure(ts(3)))
	assert.False(t, item.RecordExposure(ts(4)))

	assert.Equal(t, []time.Time{ts(1), ts(2), ts(3)}, item.ExposureEvents)
	assert.Equal(t, ts(3), item.UpdatedAt)
}

func TestClone_DoesNotShareState(t *testing.T) {
	t.Parallel()

	gen := ts(5)
	orig := NewSnapshot("profile1", "token-abcdef", ts(0))
	orig.Items["avocado"] = &ItemState{
		ID:                     "avocado",
		ExposureEvents:         []time.Time{ts(1)},
		Reactions:              []string{"smiles"},
		DescriptionGeneratedAt: &gen,
	}
	orig.Order = []string{"avocado"}
	orig.CategoryOrder = map[string][]string{"fruit": {"avocado"}}

	cp := orig.Clone()
	require.Equal(t, orig, cp)

	cp.Items["avocado"].ExposureEvents[0] = ts(9)
	cp.Items["avocado"].Reactions[0] = "frowns"
	*cp.Items["avocado"].DescriptionGeneratedAt = ts(9)
	cp.Order[0] = "pear"
	cp.CategoryOrder["fruit"][0] = "pear"

	assert.Equal(t, ts(1), orig.Items["avocado"].ExposureEvents[0])
	assert.Equal(t, "smiles", orig.Items["avocado"].Reactions[0])
	assert.Equal(t, ts(5), *orig.Items["avocado"].DescriptionGeneratedAt)
	assert.Equal(t, "avocado", orig.Order[0])
	assert.Equal(t, "avocado", orig.CategoryOrder["fruit"][0])
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	snap := &Snapshot{
		Settings: Settings{Theme: "neon", ShowImages: true},
		Items: map[string]*ItemState{
			"egg":  {Notes: "  rash  ", ExposureEvents: []time.Time{ts(3), ts(1), ts(1), ts(2), ts(0)}},
			"pear": nil,
		},
		Order:          []string{"egg", "", "egg", "pear"},
		CustomEntities: map[string]*CustomEntity{"c1": {Name: "Kale"}, "c2": nil},
	}

	snap.Normalize()

	assert.Equal(t, ThemeSystem, snap.Settings.Theme)
	assert.Equal(t, DefaultLanguage, snap.Settings.Language)
	require.Contains(t, snap.Items, "egg")
	assert.NotContains(t, snap.Items, "pear")
	assert.Equal(t, "egg", snap.Items["egg"].ID)
	assert.Equal(t, "rash", snap.Items["egg"].Notes)
	assert.Equal(t, []time.Time{ts(0), ts(1), ts(2)}, snap.Items["egg"].ExposureEvents)
	assert.Equal(t, []string{"egg", "pear"}, snap.Order)
	assert.Equal(t, "c1", snap.CustomEntities["c1"].ID)
	assert.NotContains(t, snap.CustomEntities, "c2")
}

func TestNormalize_ZeroSettingsGetDefaults(t *testing.T) {
	t.Parallel()

	snap := &Snapshot{}
	snap.Normalize()

	assert.Equal(t, DefaultSettings(), snap.Settings)
	assert.NotNil(t, snap.Items)
	assert.NotNil(t, snap.Order)
}

func TestEncodeDecodeSnapshot(t *testing.T) {
	t.Parallel()

	snap := NewSnapshot("profile1", "token-abcdef", ts(0))
	snap.Item("carrot").RecordExposure(ts(1))

	data, err := snap.Encode()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"profileId":"profile1"`)
	assert.Contains(t, string(data), `"exposureEvents":["2025-03-01T09:01:00Z"]`)

	decoded, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, snap, decoded)
}

func TestDecodeSnapshot_Malformed(t *testing.T) {
	t.Parallel()

	_, err := DecodeSnapshot([]byte(`{"items": [1, 2]}`))
	assert.Error(t, err)
}

func TestIdentifiers(t *testing.T) {
	t.Parallel()

	assert.True(t, IsValidShareToken("abcd_EF-12"))
	assert.False(t, IsValidShareToken("short"))
	assert.False(t, IsValidShareToken("has space in it"))
	assert.False(t, IsValidShareToken(string(make([]byte, 129))))

	assert.True(t, IsValidProfileID("p"))
	assert.False(t, IsValidProfileID(""))
	assert.False(t, IsValidProfileID("a/b"))
}
