package schemamap

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/carbon-assistant/server/internal/agent/model"
)

// aliases maps known synonym columns onto the canonical schema.
var aliases = map[string]string{
	"company_id":             model.FeatureCompanySize,
	"energy_consumption_kwh": model.FeatureEnergyUsage,
	"fuel_used_liters":       model.FeatureFuel,
	"distance_travelled_km":  model.FeatureDistance,
	"industrial_waste_kg":    model.FeatureWaste,
}

func defaultFor(feature string) float64 {
	if feature == model.FeatureCompanySize {
		return model.DefaultCompanySize
	}
	return 0
}

// MapColumns renames synonym columns, drops everything outside the canonical
// schema, fills absent canonical columns with defaults and orders the result
// as model.FeatureNames. The input is not modified.
func MapColumns(in Table) Table {
	renamed := make([]string, len(in.Columns))
	for i, c := range in.Columns {
		name := strings.TrimSpace(c)
		if canonical, ok := aliases[name]; ok {
			name = canonical
		}
		renamed[i] = name
	}

	out := Table{
		Columns: append([]string(nil), model.FeatureNames...),
		Rows:    make([][]Value, len(in.Rows)),
	}
	for r := range out.Rows {
		out.Rows[r] = make([]Value, len(model.FeatureNames))
	}

	for c, feature := range model.FeatureNames {
		src := -1
		for i, name := range renamed {
			if name == feature {
				src = i
				break
			}
		}
		for r := range in.Rows {
			if src < 0 {
				out.Rows[r][c] = Num(defaultFor(feature))
				continue
			}
			out.Rows[r][c] = in.Cell(r, src)
		}
	}
	return out
}

// Clean maps the columns, then imputes missing cells: numeric columns get the
// batch mean, other columns the batch mode. A column with no value at all
// keeps its missing cells.
func Clean(in Table) Table {
	t := MapColumns(in)
	for c := range t.Columns {
		if isNumericColumn(t, c) {
			imputeMean(t, c)
		} else {
			imputeMode(t, c)
		}
	}
	return t
}

// Normalize min-max scales every numeric column into [0, 1]. When a column's
// max equals its min every present cell becomes 0. Returns a new table.
func Normalize(in Table) Table {
	t := in.Clone()
	for c := range t.Columns {
		if !isNumericColumn(t, c) {
			continue
		}
		lo, hi := math.Inf(1), math.Inf(-1)
		for r := range t.Rows {
			if f, ok := t.Cell(r, c).Float(); ok {
				lo = math.Min(lo, f)
				hi = math.Max(hi, f)
			}
		}
		span := hi - lo
		for r := range t.Rows {
			if c >= len(t.Rows[r]) {
				continue
			}
			f, ok := t.Rows[r][c].Float()
			if !ok {
				continue
			}
			if span == 0 {
				t.Rows[r][c] = Num(0)
			} else {
				t.Rows[r][c] = Num((f - lo) / span)
			}
		}
	}
	return t
}

// FeatureVector reads one row of a canonical table. Cells that are missing or
// not numeric take the field default; company_size is rounded.
func FeatureVector(t Table, row int) (model.FeatureVector, error) {
	if row < 0 || row >= t.Len() {
		return model.FeatureVector{}, fmt.Errorf("row %d out of range (%d rows)", row, t.Len())
	}
	read := func(feature string) float64 {
		if f, ok := t.Cell(row, t.Index(feature)).Float(); ok {
			return f
		}
		return defaultFor(feature)
	}
	return model.FeatureVector{
		EnergyUsageKWh:        read(model.FeatureEnergyUsage),
		FuelConsumptionLiters: read(model.FeatureFuel),
		DistanceTraveledKM:    read(model.FeatureDistance),
		WasteGeneratedKG:      read(model.FeatureWaste),
		CompanySize:           int(math.Round(read(model.FeatureCompanySize))),
	}, nil
}

// isNumericColumn reports whether every present cell of column c reads as a
// number. A column with no present cell counts as numeric.
func isNumericColumn(t Table, c int) bool {
	for r := range t.Rows {
		v := t.Cell(r, c)
		if v.IsMissing() {
			continue
		}
		if _, ok := v.Float(); !ok {
			return false
		}
	}
	return true
}

func imputeMean(t Table, c int) {
	var sum float64
	var n int
	for r := range t.Rows {
		if f, ok := t.Cell(r, c).Float(); ok {
			sum += f
			n++
		}
	}
	for r := range t.Rows {
		f, ok := t.Cell(r, c).Float()
		switch {
		case ok:
			t.Rows[r][c] = Num(f)
		case n > 0:
			t.Rows[r][c] = Num(sum / float64(n))
		default:
			t.Rows[r][c] = Null()
		}
	}
}

func imputeMode(t Table, c int) {
	counts := map[string]int{}
	for r := range t.Rows {
		if v := t.Cell(r, c); !v.IsMissing() {
			counts[v.String()]++
		}
	}
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	mode := keys[0]
	for _, k := range keys[1:] {
		if counts[k] > counts[mode] {
			mode = k
		}
	}
	for r := range t.Rows {
		if t.Cell(r, c).IsMissing() {
			t.Rows[r][c] = Str(mode)
		}
	}
}
