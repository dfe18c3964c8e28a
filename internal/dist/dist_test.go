package dist

import (
	"math"
	"math/rand"
	"testing"
)

func TestNormalizeSumsToOne(t *testing.T) {
	p := Normalize([]float64{3, 1, 4})
	var sum float64
	for _, x := range p {
		sum += x
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Fatalf("expected sum 1, got %f", sum)
	}
	if p[2] <= p[0] || p[0] <= p[1] {
		t.Fatalf("expected ordering preserved, got %v", p)
	}
}

func TestNormalizeZeroMassFallsBackToUniform(t *testing.T) {
	p := Normalize([]float64{0, 0, 0, 0})
	for i, x := range p {
		if math.Abs(x-0.25) > 1e-12 {
			t.Fatalf("expected uniform, got %f at index %d", x, i)
		}
	}
}

func TestNormalizeClampsNegatives(t *testing.T) {
	p := Normalize([]float64{-1, 1, 1})
	if p[0] != 0 {
		t.Fatalf("expected negative entry clamped to 0, got %f", p[0])
	}
	if math.Abs(p[1]-0.5) > 1e-12 {
		t.Fatalf("expected 0.5, got %f", p[1])
	}
}

func TestSoftmaxIsStableAndNormalized(t *testing.T) {
	p := Softmax([]float64{1000, 1001, 999})
	var sum float64
	for _, x := range p {
		sum += x
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Fatalf("expected sum 1, got %f", sum)
	}
	if p[1] <= p[0] || p[0] <= p[2] {
		t.Fatalf("expected ordering by input, got %v", p)
	}
}

func TestLogFloorsZeroes(t *testing.T) {
	l := Log([]float64{0, 1})
	if math.IsInf(l[0], -1) {
		t.Fatal("expected floored log, got -Inf")
	}
	if l[1] != 0 {
		t.Fatalf("expected ln(1)=0, got %f", l[1])
	}
}

func TestEntropyUniformIsLogN(t *testing.T) {
	h := Entropy(Uniform(4))
	if math.Abs(h-math.Log(4)) > 1e-12 {
		t.Fatalf("expected ln(4), got %f", h)
	}
	if Entropy([]float64{1, 0, 0}) != 0 {
		t.Fatal("expected zero entropy for a point mass")
	}
}

func TestArgMaxTiesBreakLow(t *testing.T) {
	if got := ArgMax([]float64{0.2, 0.4, 0.4}); got != 1 {
		t.Fatalf("expected index 1 on tie, got %d", got)
	}
	if got := ArgMax([]float64{0.5, 0.5}); got != 0 {
		t.Fatalf("expected lowest index on tie, got %d", got)
	}
}

func TestSampleFollowsMass(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	p := []float64{0.05, 0.9, 0.05}
	counts := make([]int, 3)
	for i := 0; i < 2000; i++ {
		counts[Sample(p, r)]++
	}
	if counts[1] < 1600 {
		t.Fatalf("expected dominant outcome near 1800/2000, got %d", counts[1])
	}
}
