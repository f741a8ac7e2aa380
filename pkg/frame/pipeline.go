package frame

import (
	"context"
	"fmt"
)

// Transform is a relational step applied to a Frame. Implementations return
// a new frame and leave the input untouched.
type Transform interface {
	Name() string
	Apply(ctx context.Context, f *Frame) (*Frame, error)
}

// Pipeline composes a sequence of Transforms.
type Pipeline struct {
	steps []Transform
}

func NewPipeline(steps ...Transform) *Pipeline { return &Pipeline{steps: steps} }

func (p *Pipeline) Add(t Transform) *Pipeline {
	p.steps = append(p.steps, t)
	return p
}

// Len reports the number of steps.
func (p *Pipeline) Len() int { return len(p.steps) }

func (p *Pipeline) Run(ctx context.Context, f *Frame) (*Frame, error) {
	var err error
	cur := f
	for _, t := range p.steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cur, err = t.Apply(ctx, cur)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t.Name(), err)
		}
	}
	return cur, nil
}
