// Package problems provides a library of least-squares test and demo
// problems, each exposing residuals, a Jacobian and a standard start point.
package problems

import (
	"fmt"
	"sort"

	"github.com/sereven/lmfit/internal/lm"
)

// Fittable is a named least-squares problem with a standard initial guess.
type Fittable interface {
	lm.Problem
	Name() string
	Start() []float64
}

type Registry struct {
	problems map[string]func() Fittable
}

func NewRegistry() *Registry {
	r := &Registry{problems: make(map[string]func() Fittable)}

	r.problems["linear"] = func() Fittable { return NewLinear([]float64{3, 5}) }
	r.problems["expfit"] = func() Fittable { return NewExpFit() }
	r.problems["biggs"] = func() Fittable { return NewBiggs() }
	r.problems["powell"] = func() Fittable { return NewPowell() }
	r.problems["rosenbrock"] = func() Fittable { return NewRosenbrock() }

	return r
}

func (r *Registry) Get(name string) (Fittable, error) {
	fn, ok := r.problems[name]
	if !ok {
		return nil, fmt.Errorf("unknown problem: %s", name)
	}
	return fn(), nil
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.problems))
	for name := range r.problems {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
