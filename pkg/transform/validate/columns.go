package validate

import (
	"context"
	"fmt"
	"strings"

	"github.com/wdm0006/sparkify/pkg/frame"
)

// Columns fails when the frame lacks one of the expected columns or carries
// it with a different kind. Extra columns are allowed.
type Columns struct {
	Want frame.Schema
}

func (t *Columns) Name() string { return "validate_columns" }

func (t *Columns) Apply(ctx context.Context, f *frame.Frame) (*frame.Frame, error) {
	var problems []string
	for _, cs := range t.Want.Columns {
		c, ok := f.ColumnByName(cs.Name)
		if !ok {
			problems = append(problems, fmt.Sprintf("missing %s", cs.Name))
			continue
		}
		if c.Kind() != cs.Type {
			problems = append(problems, fmt.Sprintf("%s is %v, want %v", cs.Name, c.Kind(), cs.Type))
		}
	}
	if len(problems) > 0 {
		return f, fmt.Errorf("validate_columns: %s", strings.Join(problems, "; "))
	}
	return f, nil
}
