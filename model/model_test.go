package model

import (
	"math"
	"math/rand"
	"testing"

	"github.com/goccy/go-json"

	"github.com/rushteam/airsat/core"
	"github.com/rushteam/airsat/dataset"
)

// synthetic 生成带信号的数据：business 类乘客与较高的服务评分更可能满意
func synthetic(t *testing.T, n int, seed int64) (*dataset.Dataset, []int) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	class := make([]float64, n)
	service := make([]float64, n)
	delay := make([]float64, n)
	y := make([]int, n)
	for i := 0; i < n; i++ {
		class[i] = float64(rng.Intn(2))
		service[i] = float64(rng.Intn(5) + 1)
		delay[i] = math.Floor(rng.ExpFloat64() * 20)
		if i%17 == 0 {
			delay[i] = math.NaN()
		}
		z := -2.5 + 1.5*class[i] + 0.6*service[i] + rng.NormFloat64()*0.5
		if z > 0 {
			y[i] = 1
		}
	}
	ds, err := dataset.New(
		dataset.NewNumeric("flight_class", class),
		dataset.NewNumeric("on_board_service", service),
		dataset.NewNumeric("departure_delay", delay),
	)
	if err != nil {
		t.Fatalf("dataset.New() error = %v", err)
	}
	return ds, y
}

func accuracy(probs []float64, y []int) float64 {
	hit := 0
	for i, p := range probs {
		if Classify(p, 0.5) == y[i] {
			hit++
		}
	}
	return float64(hit) / float64(len(y))
}

func newTrainer() *BoostingTrainer {
	return NewBoostingTrainer(
		WithSeed(42),
		WithRounds(100),
		WithCardinality(map[string]int{"flight_class": 2}),
	)
}

func TestBooster_LearnsSignal(t *testing.T) {
	x, y := synthetic(t, 600, 1)
	b, err := newTrainer().FitBooster(x, y)
	if err != nil {
		t.Fatalf("FitBooster() error = %v", err)
	}
	probs, err := b.PredictProba(x)
	if err != nil {
		t.Fatalf("PredictProba() error = %v", err)
	}
	for i, p := range probs {
		if p <= 0 || p >= 1 {
			t.Fatalf("prob[%d] = %v outside (0,1)", i, p)
		}
	}
	if acc := accuracy(probs, y); acc < 0.75 {
		t.Errorf("train accuracy = %.3f, want >= 0.75", acc)
	}

	imp := b.Importances()
	if imp[len(imp)-1].Feature != "departure_delay" {
		t.Errorf("least important feature = %q, want departure_delay (%v)", imp[len(imp)-1].Feature, imp)
	}

	e, err := b.Explain(x, 3)
	if err != nil {
		t.Fatalf("Explain() error = %v", err)
	}
	sum := e.Intercept
	for _, c := range e.Contributions {
		sum += c
	}
	if math.Abs(sum-e.Logit) > 1e-9 || math.Abs(e.Probability-probs[3]) > 1e-9 {
		t.Errorf("explanation does not add up: %+v vs prob %v", e, probs[3])
	}
}

func TestBooster_Deterministic(t *testing.T) {
	x, y := synthetic(t, 200, 2)
	a, _ := newTrainer().FitBooster(x, y)
	b, _ := newTrainer().FitBooster(x, y)
	pa, _ := a.PredictProba(x)
	pb, _ := b.PredictProba(x)
	for i := range pa {
		if pa[i] != pb[i] {
			t.Fatalf("row %d: %v != %v", i, pa[i], pb[i])
		}
	}
}

func TestBoostingTrainer_FitErrors(t *testing.T) {
	x, y := synthetic(t, 50, 3)
	outOfRange, _ := x.WithColumn(dataset.NewNumeric("flight_class", append([]float64{2}, make([]float64, 49)...)))
	oneClass := make([]int, 50)

	tests := []struct {
		name string
		x    *dataset.Dataset
		y    []int
		code string
	}{
		{name: "row mismatch", x: x, y: y[:49], code: core.ErrorCodeShapeMismatch},
		{name: "code out of range", x: outOfRange, y: y, code: core.ErrorCodeOutOfRange},
		{name: "single class", x: x, y: oneClass, code: core.ErrorCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTrainer().FitBooster(tt.x, tt.y)
			if !core.HasCode(err, tt.code) {
				t.Fatalf("FitBooster() error = %v, want %s", err, tt.code)
			}
		})
	}

	raw, _ := dataset.New(dataset.NewCategorical("flight_class", []string{"Eco", "Business"}))
	if _, err := newTrainer().FitBooster(raw, []int{0, 1}); err == nil {
		t.Error("FitBooster() accepted unencoded features")
	}
}

func TestBooster_PredictShapeAndRange(t *testing.T) {
	x, y := synthetic(t, 100, 4)
	b, err := newTrainer().FitBooster(x, y)
	if err != nil {
		t.Fatalf("FitBooster() error = %v", err)
	}

	reordered, _ := x.Select([]string{"on_board_service", "flight_class", "departure_delay"})
	if _, err := b.PredictProba(reordered); !core.IsShapeMismatch(err) {
		t.Errorf("reordered columns error = %v, want SHAPE_MISMATCH", err)
	}
	truncated, _ := x.Drop("departure_delay")
	if _, err := b.PredictProba(truncated); !core.IsShapeMismatch(err) {
		t.Errorf("missing column error = %v, want SHAPE_MISMATCH", err)
	}

	bad, _ := dataset.New(
		dataset.NewNumeric("flight_class", []float64{5}),
		dataset.NewNumeric("on_board_service", []float64{3}),
		dataset.NewNumeric("departure_delay", []float64{0}),
	)
	if _, err := b.PredictProba(bad); !core.HasCode(err, core.ErrorCodeOutOfRange) {
		t.Errorf("unknown code error = %v, want OUT_OF_RANGE", err)
	}
}

func TestIsotonic_Monotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	scores := make([]float64, 300)
	y := make([]int, 300)
	for i := range scores {
		scores[i] = rng.Float64()
		if rng.Float64() < scores[i] {
			y[i] = 1
		}
	}
	iso, err := FitIsotonic(scores, y)
	if err != nil {
		t.Fatalf("FitIsotonic() error = %v", err)
	}
	if err := iso.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	prev := -1.0
	for v := -0.1; v <= 1.1; v += 0.001 {
		got := iso.Transform(v)
		if got < prev {
			t.Fatalf("Transform(%v) = %v < %v", v, got, prev)
		}
		if got < 0 || got > 1 {
			t.Fatalf("Transform(%v) = %v outside [0,1]", v, got)
		}
		prev = got
	}
}

func TestIsotonic_PoolsViolators(t *testing.T) {
	iso, err := FitIsotonic([]float64{0.1, 0.2, 0.3, 0.4}, []int{0, 1, 0, 1})
	if err != nil {
		t.Fatalf("FitIsotonic() error = %v", err)
	}
	want := []float64{0, 0.5, 0.5, 1}
	for i, v := range []float64{0.1, 0.2, 0.3, 0.4} {
		if got := iso.Transform(v); math.Abs(got-want[i]) > 1e-12 {
			t.Errorf("Transform(%v) = %v, want %v", v, got, want[i])
		}
	}
	if got := iso.Transform(0.15); math.Abs(got-0.25) > 1e-12 {
		t.Errorf("Transform(0.15) = %v, want 0.25 (interpolated)", got)
	}
	if got := iso.Transform(2); got != 1 {
		t.Errorf("Transform(2) = %v, want clipped 1", got)
	}
}

func TestCalibrate_DisjointAndLeakage(t *testing.T) {
	all, y := synthetic(t, 400, 6)
	trainIdx, calibIdx := make([]int, 0, 250), make([]int, 0, 150)
	for i := 0; i < all.Rows(); i++ {
		if i < 250 {
			trainIdx = append(trainIdx, i)
		} else {
			calibIdx = append(calibIdx, i)
		}
	}
	pick := func(idx []int) (*dataset.Dataset, []int) {
		ds, _ := all.Take(idx)
		out := make([]int, len(idx))
		for i, r := range idx {
			out[i] = y[r]
		}
		return ds, out
	}
	xt, yt := pick(trainIdx)
	xc, yc := pick(calibIdx)

	b, err := newTrainer().FitBooster(xt, yt)
	if err != nil {
		t.Fatalf("FitBooster() error = %v", err)
	}

	if _, err := Calibrate(xt, yt, b); !core.HasCode(err, core.ErrorCodeDataLeakage) {
		t.Fatalf("Calibrate() on training rows error = %v, want DATA_LEAKAGE", err)
	}

	c, err := Calibrate(xc, yc, b)
	if err != nil {
		t.Fatalf("Calibrate() error = %v", err)
	}
	raw, _ := b.PredictProba(xc)
	cal, _ := c.PredictProba(xc)
	for i := range raw {
		for j := range raw {
			if raw[i] < raw[j] && cal[i] > cal[j] {
				t.Fatalf("calibration not monotonic: raw %v<%v but cal %v>%v", raw[i], raw[j], cal[i], cal[j])
			}
		}
	}
	if c.Name() != "calibrated_ebm" {
		t.Errorf("Name() = %q", c.Name())
	}
}

func TestCalibrated_JSONRoundTrip(t *testing.T) {
	x, y := synthetic(t, 300, 7)
	xt, _ := x.Take(seq(0, 200))
	xc, _ := x.Take(seq(200, 300))
	b, err := newTrainer().FitBooster(xt, y[:200])
	if err != nil {
		t.Fatalf("FitBooster() error = %v", err)
	}
	c, err := Calibrate(xc, y[200:], b)
	if err != nil {
		t.Fatalf("Calibrate() error = %v", err)
	}

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var loaded Calibrated
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	want, _ := c.PredictProba(x)
	got, err := loaded.PredictProba(x)
	if err != nil {
		t.Fatalf("PredictProba() error = %v", err)
	}
	for i := range want {
		if math.Abs(want[i]-got[i]) > 1e-12 {
			t.Fatalf("row %d: loaded %v != %v", i, got[i], want[i])
		}
	}
}

func TestClassify_StrictThreshold(t *testing.T) {
	tests := []struct {
		p, threshold float64
		want         int
	}{
		{0.5, 0.5, 0},
		{0.5000001, 0.5, 1},
		{0.49, 0.5, 0},
		{0, 0, 0},
		{1, 1, 0},
	}
	for _, tt := range tests {
		if got := Classify(tt.p, tt.threshold); got != tt.want {
			t.Errorf("Classify(%v, %v) = %d, want %d", tt.p, tt.threshold, got, tt.want)
		}
	}
	if got := ClassifyAll([]float64{0.2, 0.8}, 0.5); got[0] != 0 || got[1] != 1 {
		t.Errorf("ClassifyAll() = %v", got)
	}
}

func seq(from, to int) []int {
	out := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}
