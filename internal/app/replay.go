package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/evanschultz/dragboard/internal/domain"
	"github.com/evanschultz/dragboard/internal/drag"
	"gopkg.in/yaml.v3"
)

// Viewport is the host size a script was recorded against.
type Viewport struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Script is a recorded pointer session.
type Script struct {
	Viewport Viewport      `yaml:"viewport"`
	Board    *Snapshot     `yaml:"board,omitempty"`
	Samples  []drag.Sample `yaml:"samples"`
}

// LoadScript decodes a YAML replay script.
func LoadScript(r io.Reader) (Script, error) {
	var script Script
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&script); err != nil {
		return Script{}, fmt.Errorf("decode replay script: %w", err)
	}
	if script.Board != nil {
		if err := script.Board.Validate(); err != nil {
			return Script{}, fmt.Errorf("replay board: %w", err)
		}
	}
	return script, nil
}

// Replay applies samples one at a time, letting measurements settle after
// each, and returns the result of every finished drag. Failed samples are
// skipped and reported together.
func (s *Service) Replay(ctx context.Context, samples []drag.Sample) ([]domain.DragResult, error) {
	if err := s.Settle(ctx); err != nil {
		return nil, err
	}
	var (
		results []domain.DragResult
		failed  []error
	)
	for i, sample := range samples {
		res, err := s.HandleSample(ctx, sample)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, drag.ErrLoopStopped) {
				return results, err
			}
			s.logger.Debug("replay sample skipped", "index", i, "kind", sample.Kind, "err", err)
			failed = append(failed, fmt.Errorf("sample %d (%s): %w", i, sample.Kind, err))
		} else if sample.Kind == drag.SampleEnd || sample.Kind == drag.SampleCancel {
			results = append(results, res)
		}
		if err := s.Settle(ctx); err != nil {
			return results, err
		}
	}
	return results, errors.Join(failed...)
}
