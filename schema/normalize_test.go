package schema

import (
	"reflect"
	"testing"

	"github.com/rushteam/airsat/core"
	"github.com/rushteam/airsat/dataset"
)

func mustDataset(t *testing.T, cols ...*dataset.Column) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.New(cols...)
	if err != nil {
		t.Fatalf("dataset.New() error = %v", err)
	}
	return ds
}

func TestMerge(t *testing.T) {
	features := mustDataset(t,
		dataset.NewNumeric("id", []float64{3, 1, 2}),
		dataset.NewCategorical("Class", []string{"Eco", "Business", "Eco"}),
	)
	labels := mustDataset(t,
		dataset.NewNumeric("id", []float64{1, 2, 4}),
		dataset.NewCategorical("satisfaction", []string{"satisfied", "neutral", "neutral"}),
	)

	merged, err := Merge(features, labels, "id")
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if merged.Rows() != 2 {
		t.Fatalf("Rows() = %d, want 2", merged.Rows())
	}
	if got, want := merged.Names(), []string{"id", "Class", "satisfaction"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	sat, _ := merged.Column("satisfaction")
	if got, want := sat.Strings, []string{"satisfied", "neutral"}; !reflect.DeepEqual(got, want) {
		t.Errorf("satisfaction = %v, want %v", got, want)
	}
}

func TestMerge_Errors(t *testing.T) {
	features := mustDataset(t,
		dataset.NewNumeric("id", []float64{1, 2}),
		dataset.NewCategorical("Class", []string{"Eco", "Business"}),
	)
	tests := []struct {
		name   string
		labels *dataset.Dataset
		key    string
	}{
		{
			name:   "key missing from features",
			labels: mustDataset(t, dataset.NewNumeric("uid", []float64{1, 2})),
			key:    "uid",
		},
		{
			name:   "key missing from labels",
			labels: mustDataset(t, dataset.NewNumeric("uid", []float64{1, 2})),
			key:    "id",
		},
		{
			name: "duplicated key multiplies rows",
			labels: mustDataset(t,
				dataset.NewNumeric("id", []float64{1, 1}),
				dataset.NewCategorical("satisfaction", []string{"neutral", "satisfied"}),
			),
			key: "id",
		},
		{
			name: "column collision",
			labels: mustDataset(t,
				dataset.NewNumeric("id", []float64{1, 2}),
				dataset.NewCategorical("Class", []string{"x", "y"}),
			),
			key: "id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Merge(features, tt.labels, tt.key)
			if !core.IsDataQuality(err) {
				t.Fatalf("Merge() error = %v, want DATA_QUALITY", err)
			}
		})
	}
}

func TestRenameColumns(t *testing.T) {
	ds := mustDataset(t,
		dataset.NewCategorical("Customer Type", []string{"Loyal"}),
		dataset.NewCategorical("Class", []string{"Eco"}),
		dataset.NewNumeric("Departure/Arrival time convenient", []float64{3}),
		dataset.NewNumeric("On-board service", []float64{4}),
	)

	renamed, mapping, err := RenameColumns(ds, nil)
	if err != nil {
		t.Fatalf("RenameColumns() error = %v", err)
	}
	want := []string{"customer_type", "flight_class", "departure_arrival_time_convenient", "on_board_service"}
	if got := renamed.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	if mapping["Class"] != "flight_class" {
		t.Errorf("mapping[Class] = %q, want flight_class", mapping["Class"])
	}
	if len(mapping) != 4 {
		t.Errorf("len(mapping) = %d, want 4", len(mapping))
	}
	// 输入不被修改
	if ds.Names()[0] != "Customer Type" {
		t.Errorf("input dataset was mutated: %v", ds.Names())
	}
}

func TestRenameColumns_Collision(t *testing.T) {
	ds := mustDataset(t,
		dataset.NewNumeric("Flight Distance", []float64{1}),
		dataset.NewNumeric("flight-distance", []float64{2}),
	)
	if _, _, err := RenameColumns(ds, nil); !core.IsDataQuality(err) {
		t.Fatalf("RenameColumns() error = %v, want DATA_QUALITY", err)
	}
}

func TestDeleteColumns(t *testing.T) {
	ds := mustDataset(t,
		dataset.NewNumeric("id", []float64{1}),
		dataset.NewNumeric("unnamed:_0", []float64{0}),
		dataset.NewNumeric("age", []float64{30}),
	)

	out, err := DeleteColumns(ds, []string{"id", "unnamed:_0"})
	if err != nil {
		t.Fatalf("DeleteColumns() error = %v", err)
	}
	if got := out.Names(); !reflect.DeepEqual(got, []string{"age"}) {
		t.Errorf("Names() = %v, want [age]", got)
	}

	if _, err := DeleteColumns(ds, []string{"nope"}); !core.IsDataQuality(err) {
		t.Fatalf("DeleteColumns() error = %v, want DATA_QUALITY", err)
	}
}

func TestCheckQuality(t *testing.T) {
	ds := mustDataset(t,
		dataset.NewNumeric("age", []float64{30, -2, 40, -5}),
		dataset.NewCategorical("gender", []string{"Male", "Female", "Male", "Female"}),
	)

	if err := CheckQuality(ds, []string{`row.gender in ["Male", "Female"]`}); err != nil {
		t.Fatalf("CheckQuality() error = %v", err)
	}
	err := CheckQuality(ds, []string{"row.age >= 0.0"})
	if !core.IsDataQuality(err) {
		t.Fatalf("CheckQuality() error = %v, want DATA_QUALITY", err)
	}
	if err := CheckQuality(ds, []string{"row.age >="}); !core.IsInvalidInput(err) {
		t.Fatalf("CheckQuality() error = %v, want INVALID_INPUT", err)
	}
}
