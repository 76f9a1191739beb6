package schemamap

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carbon-assistant/server/internal/agent/model"
)

func TestMapColumnsAlwaysYieldsCanonicalLayout(t *testing.T) {
	cases := map[string]Table{
		"empty": {},
		"extra columns only": {
			Columns: []string{"carbon_emission_tons", "renewable_energy_pct"},
			Rows:    [][]Value{{Num(1), Num(2)}},
		},
		"aliases shuffled": {
			Columns: []string{"industrial_waste_kg", "company_id", "energy_consumption_kwh", "fuel_used_liters", "distance_travelled_km"},
			Rows:    [][]Value{{Num(5), Num(50), Num(1200), Num(600), Num(800)}},
		},
		"partial canonical": {
			Columns: []string{" fuel_consumption_liters ", "note"},
			Rows:    [][]Value{{Num(30), Str("x")}, {Null(), Str("y")}},
		},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			out := MapColumns(in)
			assert.Equal(t, model.FeatureNames, out.Columns)
			assert.Equal(t, in.Len(), out.Len())
			for _, row := range out.Rows {
				assert.Len(t, row, len(model.FeatureNames))
			}
		})
	}
}

func TestMapColumnsRenamesAndDefaults(t *testing.T) {
	in := Table{
		Columns: []string{"energy_consumption_kwh", "carbon_emission_tons"},
		Rows:    [][]Value{{Num(1500), Num(9)}},
	}
	out := MapColumns(in)

	fv, err := FeatureVector(out, 0)
	require.NoError(t, err)
	assert.Equal(t, model.FeatureVector{EnergyUsageKWh: 1500, CompanySize: 10}, fv)

	// input untouched
	assert.Equal(t, []string{"energy_consumption_kwh", "carbon_emission_tons"}, in.Columns)
}

func TestCleanImputesNumericMean(t *testing.T) {
	in := Table{
		Columns: []string{"energy_usage_kwh", "fuel_consumption_liters"},
		Rows: [][]Value{
			{Num(100), Null()},
			{Null(), Str("40")},
			{Num(300), Num(20)},
		},
	}
	out := Clean(in)

	energy := out.Column(model.FeatureEnergyUsage)
	assert.Equal(t, Num(200), energy[1])
	fuel := out.Column(model.FeatureFuel)
	assert.Equal(t, Num(30), fuel[0])
	assert.Equal(t, Num(40), fuel[1])

	for c, name := range out.Columns {
		for r := range out.Rows {
			assert.Falsef(t, out.Cell(r, c).IsMissing(), "missing cell in %s row %d", name, r)
		}
	}
}

func TestCleanTreatsNullTokensAndNonFiniteAsMissing(t *testing.T) {
	in := Table{
		Columns: []string{"energy_usage_kwh", "company_size", "fuel_consumption_liters"},
		Rows: [][]Value{
			{Num(math.NaN()), Str("NA"), Str("null")},
			{Num(2400), Num(40), Num(math.Inf(1))},
			{Str("N/A"), Str("None"), Num(600)},
			{Num(1600), Str("#N/A"), Str("-nan")},
		},
	}
	out := Clean(in)

	assert.Equal(t, []Value{Num(2000), Num(2400), Num(2000), Num(1600)}, out.Column(model.FeatureEnergyUsage))
	assert.Equal(t, []Value{Num(40), Num(40), Num(40), Num(40)}, out.Column(model.FeatureCompanySize))
	assert.Equal(t, []Value{Num(600), Num(600), Num(600), Num(600)}, out.Column(model.FeatureFuel))

	fv, err := FeatureVector(out, 0)
	require.NoError(t, err)
	assert.Equal(t, 2000.0, fv.EnergyUsageKWh)
	assert.Equal(t, 40, fv.CompanySize)
}

func TestValueMissingAndFloat(t *testing.T) {
	for _, v := range []Value{Null(), Num(math.NaN()), Num(math.Inf(-1)), Str(" NA "), Str("NULL"), Str("<NA>"), Str("")} {
		assert.Truef(t, v.IsMissing(), "%#v", v)
		_, ok := v.Float()
		assert.Falsef(t, ok, "%#v", v)
	}
	_, ok := Str("inf").Float()
	assert.False(t, ok)

	f, ok := Str(" 12.5 ").Float()
	assert.True(t, ok)
	assert.Equal(t, 12.5, f)
	assert.False(t, Str("north").IsMissing())
}

func TestCleanImputesModeForText(t *testing.T) {
	in := Table{
		Columns: []string{"company_size"},
		Rows:    [][]Value{{Str("large")}, {Null()}, {Str("small")}, {Str("large")}},
	}
	out := Clean(in)
	assert.Equal(t, Str("large"), out.Column(model.FeatureCompanySize)[1])
}

func TestCleanLeavesColumnWithoutValuesMissing(t *testing.T) {
	in := Table{
		Columns: []string{"waste_generated_kg"},
		Rows:    [][]Value{{Null()}, {Null()}},
	}
	out := Clean(in)
	for _, v := range out.Column(model.FeatureWaste) {
		assert.True(t, v.IsMissing())
	}

	fv, err := FeatureVector(out, 1)
	require.NoError(t, err)
	assert.Zero(t, fv.WasteGeneratedKG)
}

func TestNormalizeMinMax(t *testing.T) {
	in := Table{
		Columns: []string{"a", "b", "label"},
		Rows: [][]Value{
			{Num(10), Num(7), Str("x")},
			{Num(20), Num(7), Str("y")},
			{Num(30), Null(), Str("z")},
		},
	}
	out := Normalize(in)

	assert.Equal(t, []Value{Num(0), Num(0.5), Num(1)}, out.Column("a"))
	assert.Equal(t, []Value{Num(0), Num(0), Null()}, out.Column("b"), "constant column scales to zero")
	assert.Equal(t, in.Column("label"), out.Column("label"))
	assert.Equal(t, Num(10), in.Cell(0, 0), "input untouched")
}

func TestNormalizeIgnoresNonFinite(t *testing.T) {
	in := Table{
		Columns: []string{"a"},
		Rows:    [][]Value{{Num(0)}, {Num(math.Inf(1))}, {Num(10)}, {Num(5)}},
	}
	out := Normalize(in)

	col := out.Column("a")
	assert.Equal(t, Num(0), col[0])
	assert.Equal(t, Num(1), col[2])
	assert.Equal(t, Num(0.5), col[3])
	assert.True(t, col[1].IsMissing())
}

func TestFeatureVectorRoundsCompanySize(t *testing.T) {
	out := Clean(Table{
		Columns: []string{"company_size"},
		Rows:    [][]Value{{Num(49.6)}},
	})
	fv, err := FeatureVector(out, 0)
	require.NoError(t, err)
	assert.Equal(t, 50, fv.CompanySize)

	_, err = FeatureVector(out, 3)
	assert.Error(t, err)
}
