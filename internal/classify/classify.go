// Package classify wraps the external object classifier behind a narrow
// interface, so the tracker never touches a classifier failure directly.
package classify

import (
	"context"

	"github.com/banshee-data/radar-pipeline/internal/monitoring"
)

// Label is a normalized classification outcome.
type Label string

const (
	LabelVehicle Label = "vehicle"
	LabelPerson  Label = "person"
	LabelOthers  Label = "others"
	LabelUnknown Label = "unknown"

	// RawLabelUAV and RawLabelBicycle are part of the external classifier's
	// native vocabulary; the gateway collapses them before they reach the
	// tracker, but implementations may still return them.
	RawLabelUAV     Label = "uav"
	RawLabelBicycle Label = "bicycle"
)

// Classifier predicts an object class from a single detection's polar
// measurement. Implementations may call out to a remote model or run
// entirely in-process; neither is allowed to panic. The returned Label may
// be in the classifier's native vocabulary (including RawLabelUAV and
// RawLabelBicycle); Gateway normalizes it before returning to the caller.
type Classifier interface {
	Classify(ctx context.Context, rangeM, velocityMS, azimuthDeg float64) (Label, error)
}

// normalize maps the classifier's raw vocabulary onto the pipeline's
// four-label output alphabet.
func normalize(raw Label) Label {
	switch raw {
	case LabelVehicle:
		return LabelVehicle
	case LabelPerson:
		return LabelPerson
	case RawLabelUAV:
		return LabelOthers
	case RawLabelBicycle:
		return LabelPerson
	case LabelOthers:
		return LabelOthers
	default:
		return LabelUnknown
	}
}

// Gateway wraps a Classifier and guarantees it never fails the pipeline:
// any error is logged and swallowed, yielding LabelUnknown.
type Gateway struct {
	inner Classifier
}

// NewGateway wraps inner in the never-fail policy.
func NewGateway(inner Classifier) *Gateway {
	return &Gateway{inner: inner}
}

// Classify invokes the wrapped classifier and normalizes its label. On
// error it returns LabelUnknown — the pipeline never sees the error.
func (g *Gateway) Classify(ctx context.Context, rangeM, velocityMS, azimuthDeg float64) Label {
	raw, err := g.inner.Classify(ctx, rangeM, velocityMS, azimuthDeg)
	if err != nil {
		monitoring.Logf("classify: gateway error, defaulting to unknown: %v", err)
		return LabelUnknown
	}
	return normalize(raw)
}
