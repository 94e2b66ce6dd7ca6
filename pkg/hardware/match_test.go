package hardware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatches(t *testing.T) {
	m := NewMatcher()

	cases := []struct {
		a, b string
		want bool
	}{
		// Vendor prefix variations of the same model.
		{"NVIDIA GeForce RTX 3090", "GeForce RTX 3090", true},
		{"NVIDIA GeForce RTX 3090", "RTX 3090", true},

		// Generic placeholder vs concrete model of the same family, in
		// both directions.
		{"AMD Radeon Graphics", "AMD Radeon 880M", true},
		{"AMD Radeon 880M", "AMD Radeon Graphics", true},
		{"Intel Iris Xe", "Intel Iris Xe Graphics G7", true},

		// Shared model code despite different surrounding text.
		{"Radeon 780M", "AMD Radeon 780M Graphics", true},

		// Different concrete models never match.
		{"NVIDIA GeForce RTX 3090", "NVIDIA GeForce RTX 3080", false},
		{"AMD Radeon RX 6800 XT", "AMD Radeon RX 7900 XTX", false},

		// Different families don't match through generic words alone.
		{"NVIDIA GeForce RTX 3090", "AMD Radeon Graphics", false},

		// Comma-joined composites match element-wise.
		{"AMD Radeon 780M, NVIDIA GeForce RTX 4070", "RTX 4070", true},
		{"AMD Radeon 780M, NVIDIA GeForce RTX 4070", "RTX 3090", false},

		{"", "RTX 3090", false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, m.Matches(tc.a, tc.b), "%q vs %q", tc.a, tc.b)
		assert.Equal(t, tc.want, m.Matches(tc.b, tc.a), "%q vs %q (reversed)", tc.b, tc.a)
	}
}

func TestMoreSpecific(t *testing.T) {
	// A concrete model always beats its generic placeholder.
	assert.True(t, MoreSpecific("AMD Radeon 880M", "AMD Radeon Graphics"))
	assert.False(t, MoreSpecific("AMD Radeon Graphics", "AMD Radeon 880M"))

	// Ties keep the incumbent.
	assert.False(t, MoreSpecific("RTX 3090", "RTX 3090"))

	// More detail wins.
	assert.True(t, MoreSpecific("NVIDIA GeForce RTX 3090 Ti", "RTX 3090"))
}

func TestConsolidate(t *testing.T) {
	m := NewMatcher()

	t.Run("merges generic into specific keeping the specific name", func(t *testing.T) {
		kept := m.Consolidate([]Candidate{
			{Name: "AMD Radeon Graphics", Manufacturer: "AMD", Framework: "VULKAN"},
			{Name: "AMD Radeon 880M", Manufacturer: "AMD"},
		})
		assert.Len(t, kept, 1)
		assert.Equal(t, "AMD Radeon 880M", kept[0].Name)
		assert.Equal(t, "VULKAN", kept[0].Framework)
	})

	t.Run("keeps distinct models apart", func(t *testing.T) {
		kept := m.Consolidate([]Candidate{
			{Name: "NVIDIA GeForce RTX 3090", Manufacturer: "NVIDIA"},
			{Name: "NVIDIA GeForce RTX 3080", Manufacturer: "NVIDIA"},
		})
		assert.Len(t, kept, 2)
	})

	t.Run("a composite-only list yields nothing", func(t *testing.T) {
		kept := m.Consolidate([]Candidate{
			{Name: "RTX 3060 Ti, RTX 3060", Manufacturer: "NVIDIA"},
		})
		assert.Empty(t, kept)
	})

	t.Run("never keeps a composite name", func(t *testing.T) {
		kept := m.Consolidate([]Candidate{
			{Name: "AMD Radeon 780M, NVIDIA GeForce RTX 4070", Manufacturer: "AMD"},
			{Name: "NVIDIA GeForce RTX 4070", Manufacturer: "NVIDIA"},
		})
		assert.Len(t, kept, 1)
		assert.Equal(t, "NVIDIA GeForce RTX 4070", kept[0].Name)
	})

	t.Run("manufacturer mismatch prevents merging", func(t *testing.T) {
		kept := m.Consolidate([]Candidate{
			{Name: "Radeon Graphics", Manufacturer: "AMD"},
			{Name: "Radeon Graphics", Manufacturer: "Unknown"},
		})
		assert.Len(t, kept, 2)
	})
}
