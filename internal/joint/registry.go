// Package joint resolves the robot's joints to simulator handles.
package joint

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/san-kum/jointctl/internal/remote"
)

const (
	DefaultCount        = 14
	DefaultPathTemplate = "/base_respondable/joint%d"
)

var ErrInvalidLayout = errors.New("joint: invalid layout")

// Spec is one resolved joint. Index runs from 1 to the joint count.
type Spec struct {
	Index  int
	Path   string
	Handle remote.Handle
}

func (s Spec) Label() string {
	return fmt.Sprintf("Joint %d", s.Index)
}

// Layout describes how joints are named in the scene. PathTemplate holds a
// single %d verb that receives the joint index.
type Layout struct {
	Count        int
	PathTemplate string
}

func DefaultLayout() Layout {
	return Layout{Count: DefaultCount, PathTemplate: DefaultPathTemplate}
}

func (l Layout) Validate() error {
	if l.Count <= 0 {
		return fmt.Errorf("%w: count must be positive, got %d", ErrInvalidLayout, l.Count)
	}
	if strings.Count(l.PathTemplate, "%d") != 1 || strings.Count(l.PathTemplate, "%") != 1 {
		return fmt.Errorf("%w: path template %q must contain exactly one %%d", ErrInvalidLayout, l.PathTemplate)
	}
	return nil
}

func (l Layout) Path(index int) string {
	return fmt.Sprintf(l.PathTemplate, index)
}

// ResolutionError reports the joint that could not be resolved.
type ResolutionError struct {
	Index int
	Path  string
	Err   error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("joint %d (%s) not found in the scene: %v", e.Index, e.Path, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

type Resolver interface {
	GetObject(ctx context.Context, path string) (remote.Handle, error)
}

// Resolve looks up every joint of the layout once, in index order. Either all
// joints resolve or an error is returned and no specs are.
func Resolve(ctx context.Context, r Resolver, layout Layout) ([]Spec, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	specs := make([]Spec, 0, layout.Count)
	for i := 1; i <= layout.Count; i++ {
		path := layout.Path(i)
		h, err := r.GetObject(ctx, path)
		if err != nil {
			return nil, &ResolutionError{Index: i, Path: path, Err: err}
		}
		specs = append(specs, Spec{Index: i, Path: path, Handle: h})
	}
	return specs, nil
}

// Paths lists every path of the layout in index order.
func (l Layout) Paths() []string {
	paths := make([]string, 0, l.Count)
	for i := 1; i <= l.Count; i++ {
		paths = append(paths, l.Path(i))
	}
	return paths
}
