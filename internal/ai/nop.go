package ai

import (
	"context"
	"errors"

	"github.com/amishk599/pitchdesk/internal/model"
)

// ErrDisabled is returned by NopGenerator for every call.
var ErrDisabled = errors.New("text generation is not configured")

var _ model.Generator = (*NopGenerator)(nil)

// NopGenerator is used when no provider is configured. It always fails, which
// drives each stage onto its fallback path.
type NopGenerator struct{}

// NewNopGenerator returns a NopGenerator.
func NewNopGenerator() *NopGenerator {
	return &NopGenerator{}
}

// Complete always returns ErrDisabled.
func (n *NopGenerator) Complete(_ context.Context, _ model.GenerateRequest) (string, error) {
	return "", ErrDisabled
}
