// Package source models the per-page byte suppliers behind a virtual image
// document.
//
// A page's bytes come either from an immutable in-memory buffer or from a
// lazily-invoked supplier function. Suppliers may be expensive or
// side-effecting (a network fetch, a decompression step), so the resolver
// performs exactly one fetch per call and never retries: the caller decides
// what a failure degrades to.
package source

import (
	"errors"
	"fmt"
)

var (
	// ErrSupplier indicates a page supplier returned an error.
	ErrSupplier = errors.New("page supplier failed")

	// ErrInvalidData indicates a page source produced empty or unusable
	// bytes.
	ErrInvalidData = errors.New("page source returned invalid data")

	// ErrOutOfRange indicates a page index outside the source list.
	ErrOutOfRange = errors.New("page index out of range")
)

// Source is one page's byte source: either a ready buffer or a supplier
// invoked on demand. The zero value is an empty buffer source and resolves
// to ErrInvalidData.
type Source struct {
	data     []byte
	supplier func() ([]byte, error)
}

// FromBytes creates a buffer-backed source. The buffer is not copied; the
// caller must not mutate it after handing it over.
func FromBytes(data []byte) Source {
	return Source{data: data}
}

// FromSupplier creates a lazily-resolved source. The supplier is invoked
// once per Resolve call, never speculatively.
func FromSupplier(fn func() ([]byte, error)) Source {
	return Source{supplier: fn}
}

// Resolver fetches raw page bytes by 1-based page index.
type Resolver struct {
	sources []Source
	fetch   func(page int) ([]byte, error)
	count   int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCount overrides the page count, for lazily-enumerated collections
// whose true extent is known out-of-band. Pages beyond the materialized
// source list resolve to ErrInvalidData.
func WithCount(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.count = n
		}
	}
}

// NewResolver creates a resolver over an explicit source list. The page
// count is fixed at creation: the list length unless overridden by
// WithCount.
func NewResolver(sources []Source, opts ...Option) *Resolver {
	r := &Resolver{sources: sources, count: len(sources)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewIndexedResolver creates a resolver over a lazily-enumerated
// collection: fetch is called with a 1-based page index. Used when the
// pages are not materialized up front and the count is known out-of-band.
func NewIndexedResolver(count int, fetch func(page int) ([]byte, error)) *Resolver {
	return &Resolver{fetch: fetch, count: count}
}

// Len returns the fixed page count.
func (r *Resolver) Len() int {
	return r.count
}

// Resolve fetches the raw bytes for a page. It performs exactly one fetch
// attempt: a supplier error is reported as ErrSupplier, and an empty
// result as ErrInvalidData. Callers must not invoke Resolve twice for the
// same logical render operation.
func (r *Resolver) Resolve(page int) ([]byte, error) {
	if page < 1 || page > r.count {
		return nil, fmt.Errorf("%w: %d of %d", ErrOutOfRange, page, r.count)
	}

	if r.fetch != nil {
		data, err := r.fetch(page)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrSupplier, page, err)
		}
		if len(data) == 0 {
			return nil, fmt.Errorf("%w: page %d", ErrInvalidData, page)
		}
		return data, nil
	}

	if page > len(r.sources) {
		// The count override admits pages that were never
		// materialized; they resolve like any other unusable source.
		return nil, fmt.Errorf("%w: page %d not materialized", ErrInvalidData, page)
	}

	src := r.sources[page-1]
	if src.supplier != nil {
		data, err := src.supplier()
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrSupplier, page, err)
		}
		if len(data) == 0 {
			return nil, fmt.Errorf("%w: page %d", ErrInvalidData, page)
		}
		return data, nil
	}

	if len(src.data) == 0 {
		return nil, fmt.Errorf("%w: page %d", ErrInvalidData, page)
	}
	return src.data, nil
}
