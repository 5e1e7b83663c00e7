package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestToggleAddsAndRemoves(t *testing.T) {
	var sel Selection

	sel.Toggle(DimensionCategory, "Beverages")
	sel.Toggle(DimensionCategory, "Snacks")
	require.Equal(t, []string{"Beverages", "Snacks"}, sel.Categories)

	sel.Toggle(DimensionCategory, "Beverages")
	require.Equal(t, []string{"Snacks"}, sel.Categories)

	sel.Toggle(Dimension("bogus"), "value")
	require.Equal(t, 1, sel.ActiveFilterCount())
}

func TestSetDateRangeSwapsOutOfOrderBounds(t *testing.T) {
	var sel Selection
	from := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	sel.SetDateRange(&from, &to)
	require.True(t, sel.From.Before(*sel.To))

	sel.SetDateRange(nil, &to)
	require.Nil(t, sel.From)
	require.NotNil(t, sel.To)
}

func TestActiveFilterCount(t *testing.T) {
	var sel Selection
	require.Equal(t, 0, sel.ActiveFilterCount())

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	sel.SetDateRange(&from, nil)
	require.Equal(t, 1, sel.ActiveFilterCount())

	to := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	sel.SetDateRange(&from, &to)
	require.Equal(t, 1, sel.ActiveFilterCount(), "both bounds still count once")

	sel.Toggle(DimensionBarangay, "Poblacion")
	sel.Toggle(DimensionStore, "Aling Nena Store")
	require.Equal(t, 3, sel.ActiveFilterCount())

	sel.Reset()
	require.Equal(t, 0, sel.ActiveFilterCount())
}

func TestFingerprintOrderIndependent(t *testing.T) {
	a := Selection{Categories: []string{"A", "B"}}
	b := Selection{Categories: []string{"B", "A"}}
	require.Equal(t, a.Fingerprint(), b.Fingerprint())

	c := Selection{Categories: []string{"A", "B", "C"}}
	require.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestFingerprintCoversAllDimensions(t *testing.T) {
	base := Selection{}
	seen := map[string]bool{base.Fingerprint(): true}

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	variants := []Selection{
		{From: &from},
		{To: &from},
		{Barangays: []string{"Poblacion"}},
		{Categories: []string{"Snacks"}},
		{Brands: []string{"Lucky Me"}},
		{Stores: []string{"Sari-Sari Uno"}},
	}
	for _, v := range variants {
		fp := v.Fingerprint()
		require.False(t, seen[fp], "fingerprint collision for %+v", v)
		seen[fp] = true
	}
}

func TestFingerprintDistinguishesTimeOfDay(t *testing.T) {
	midnight := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	noon := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	a := Selection{From: &midnight}
	b := Selection{From: &noon}
	require.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

func TestFingerprintDistinguishesSeparatorValues(t *testing.T) {
	a := Selection{Brands: []string{"a,b"}}
	b := Selection{Brands: []string{"a", "b"}}
	require.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

func TestCloneIsIndependent(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	sel := Selection{From: &from, Brands: []string{"Oishi"}}

	clone := sel.Clone()
	clone.Toggle(DimensionBrand, "Jack 'n Jill")
	*clone.From = clone.From.AddDate(0, 1, 0)

	require.Equal(t, []string{"Oishi"}, sel.Brands)
	require.Equal(t, time.January, sel.From.Month())
}
