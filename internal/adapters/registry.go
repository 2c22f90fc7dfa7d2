package adapters

import "log"

// Registry resolves a URL to the first variant whose Detect matches.
type Registry struct {
	variants []Adapter
	fallback Adapter
}

func NewRegistry(fallback Adapter, variants ...Adapter) *Registry {
	return &Registry{variants: variants, fallback: fallback}
}

// DefaultRegistry wires every built-in variant, most specific first.
func DefaultRegistry(guide Guide) *Registry {
	return NewRegistry(
		NewManual(guide),
		NewAshby(),
		NewGreenhouse(),
		NewLever(),
		NewWorkday(guide),
	)
}

// Resolve never fails: unknown platforms get the manual-assist variant.
func (r *Registry) Resolve(url string) Adapter {
	for _, a := range r.variants {
		if a.Detect(url) {
			return a
		}
	}
	log.Printf("[adapters] no variant for url=%q; using %s", url, r.fallback.Name())
	return r.fallback
}

func (r *Registry) Variants() []Adapter {
	return append([]Adapter(nil), r.variants...)
}
