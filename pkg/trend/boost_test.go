package trend

import (
	"math"
	"testing"

	"github.com/elonfeng/nicheradar/pkg/source"
)

func TestBoost(t *testing.T) {
	spec := &source.BoostSpec{Terms: []source.BoostTerm{
		{Term: " Lederjacke ", Weight: 1.8},
		{Term: "jacke", Weight: 1.3},
		{Term: "", Weight: 1.8},
		{Term: "hose", Weight: 5},
		{Term: "iphone", Weight: math.NaN()},
		{Term: "16", Weight: math.Inf(-1)},
		{Term: "pro", Weight: math.Inf(1)},
	}}

	tests := []struct {
		name  string
		title string
		base  float64
		want  float64
	}{
		{"full weight", "Lederjacke braun", 10, 10 + 25 + 12.5},
		{"no match", "Sneaker", 10, 10},
		{"capped weight", "Hose", 10, 35},
		{"empty title", "", 10, 10},
		{"non-finite weights skipped", "iPhone 16 Pro", 60, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Boost(tt.base, tt.title, spec, 0.25)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Boost = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBoostWithoutSpec(t *testing.T) {
	if got := Boost(42, "Lederjacke", nil, 0.25); got != 42 {
		t.Errorf("nil spec: got %v", got)
	}
	if got := Boost(42, "Lederjacke", &source.BoostSpec{}, 0.25); got != 42 {
		t.Errorf("empty spec: got %v", got)
	}
}

func TestBoostSpecIsNotMutated(t *testing.T) {
	spec := &source.BoostSpec{Terms: []source.BoostTerm{{Term: " HELM ", Weight: 1.8}}}
	Boost(0, "helm", spec, 0.25)

	if spec.Terms[0].Term != " HELM " || spec.Terms[0].Weight != 1.8 {
		t.Errorf("spec mutated: %+v", spec.Terms[0])
	}
}
