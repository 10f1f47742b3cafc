package dsl

import "testing"

func TestRule_Match(t *testing.T) {
	tests := []struct {
		name string
		expr string
		row  map[string]any
		want bool
	}{
		{
			name: "numeric comparison",
			expr: "row.age >= 0.0",
			row:  map[string]any{"age": 42.0},
			want: true,
		},
		{
			name: "numeric comparison fails",
			expr: "row.age >= 0.0",
			row:  map[string]any{"age": -1.0},
			want: false,
		},
		{
			name: "string membership",
			expr: `row.gender in ["Male", "Female"]`,
			row:  map[string]any{"gender": "Other"},
			want: false,
		},
		{
			name: "logical and",
			expr: `row.flight_class == "Eco" && row.age < 30.0`,
			row:  map[string]any{"flight_class": "Eco", "age": 25.0},
			want: true,
		},
		{
			name: "has macro",
			expr: "has(row.gender)",
			row:  map[string]any{"age": 1.0},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := Compile(tt.expr)
			if err != nil {
				t.Fatalf("Compile() error = %v", err)
			}
			got, err := rule.Match(tt.row)
			if err != nil {
				t.Fatalf("Match() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompile_Invalid(t *testing.T) {
	if _, err := Compile("row.age >="); err == nil {
		t.Fatal("expected compile error")
	}
}

func TestRule_NonBoolean(t *testing.T) {
	rule, err := Compile("row.age")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if _, err := rule.Match(map[string]any{"age": 1.0}); err == nil {
		t.Fatal("expected error for non-boolean result")
	}
}
