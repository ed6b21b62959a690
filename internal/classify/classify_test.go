package classify

import (
	"context"
	"errors"
	"testing"
)

type stubClassifier struct {
	label Label
	err   error
}

func (s stubClassifier) Classify(_ context.Context, _, _, _ float64) (Label, error) {
	return s.label, s.err
}

func TestGatewayNormalizesUAVAndBicycle(t *testing.T) {
	g := NewGateway(stubClassifier{label: RawLabelUAV})
	if got := g.Classify(context.Background(), 10, 1, 0); got != LabelOthers {
		t.Errorf("uav -> %s, want %s", got, LabelOthers)
	}

	g2 := NewGateway(stubClassifier{label: RawLabelBicycle})
	if got := g2.Classify(context.Background(), 10, 1, 0); got != LabelPerson {
		t.Errorf("bicycle -> %s, want %s", got, LabelPerson)
	}
}

func TestGatewayNeverFailsOnClassifierError(t *testing.T) {
	g := NewGateway(stubClassifier{err: errors.New("boom")})
	got := g.Classify(context.Background(), 10, 1, 0)
	if got != LabelUnknown {
		t.Errorf("got %s, want %s", got, LabelUnknown)
	}
}

func TestRuleBasedVehicleVsPerson(t *testing.T) {
	rb := NewRuleBased()

	label, err := rb.Classify(context.Background(), 20, 10, 0)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if label != LabelVehicle {
		t.Errorf("fast/far target: label = %s, want %s", label, LabelVehicle)
	}

	label, err = rb.Classify(context.Background(), 10, 1.5, 0)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if label != LabelPerson {
		t.Errorf("slow/near target: label = %s, want %s", label, LabelPerson)
	}
}

func TestRuleBasedLowConfidenceDefaultsToOthers(t *testing.T) {
	rb := NewRuleBased()
	label, err := rb.Classify(context.Background(), 200, 100, 0)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if label != LabelOthers {
		t.Errorf("out-of-range target: label = %s, want %s", label, LabelOthers)
	}
}
