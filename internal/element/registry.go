package element

import (
	"fmt"
	"sort"
)

// Constructor builds an element from its two end points and parameters.
// Single-post elements ignore p1.
type Constructor func(p0, p1 Point, params map[string]float64) (Element, error)

type Registry struct {
	constructors map[Type]Constructor
	aliases      map[string]Type
}

func NewRegistry() *Registry {
	r := &Registry{
		constructors: make(map[Type]Constructor),
		aliases:      make(map[string]Type),
	}

	r.Register(TypeGround, "ground", func(p0, p1 Point, params map[string]float64) (Element, error) {
		return NewGround(p0), nil
	})
	r.Register(TypeWire, "wire", func(p0, p1 Point, params map[string]float64) (Element, error) {
		return NewWire(p0, p1), nil
	})
	r.Register(TypeResistor, "resistor", func(p0, p1 Point, params map[string]float64) (Element, error) {
		return NewResistor(p0, p1, paramOr(params, ParamResistance, DefaultResistance))
	})
	r.Register(TypeVoltage, "voltage", func(p0, p1 Point, params map[string]float64) (Element, error) {
		return NewVoltageSource(p0, p1, paramOr(params, ParamVoltage, DefaultVoltage))
	})

	return r
}

func (r *Registry) Register(t Type, name string, fn Constructor) {
	r.constructors[t] = fn
	r.aliases[name] = t
}

// Lookup resolves either a type code ("r") or a long name ("resistor").
func (r *Registry) Lookup(name string) (Type, error) {
	if _, ok := r.constructors[Type(name)]; ok {
		return Type(name), nil
	}
	if t, ok := r.aliases[name]; ok {
		return t, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownType, name)
}

func (r *Registry) New(name string, p0, p1 Point, params map[string]float64) (Element, error) {
	t, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	e, err := r.constructors[t](p0, p1, params)
	if err != nil {
		return nil, fmt.Errorf("%s at %s: %w", name, p0, err)
	}
	for k, v := range params {
		if _, known := e.Params()[k]; !known {
			return nil, fmt.Errorf("%s at %s: %w: unknown parameter %q", name, p0, ErrInvalidParam, k)
		}
		if err := e.SetParam(k, v); err != nil {
			return nil, fmt.Errorf("%s at %s: %w", name, p0, err)
		}
	}
	return e, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.aliases))
	for name := range r.aliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func paramOr(params map[string]float64, name string, fallback float64) float64 {
	if v, ok := params[name]; ok {
		return v
	}
	return fallback
}
