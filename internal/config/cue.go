// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"fmt"
	"slices"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/encoding/gocode/gocodec"
	"golang.org/x/exp/constraints"
)

// Validator checks Go values against a compiled CUE schema. It is safe
// for concurrent use.
type Validator struct {
	mu     sync.Mutex
	schema cue.Value
	codec  *gocodec.Codec
}

// NewValidator compiles schema and returns a Validator for it.
func NewValidator(schema string) (*Validator, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(schema)
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return &Validator{schema: v, codec: gocodec.New(ctx, nil)}, nil
}

// defaultValidator is the Validator for Schema.
var defaultValidator = sync.OnceValues(func() (*Validator, error) {
	return NewValidator(Schema)
})

// Validate checks cfg against the schema, returning a list of invalid
// paths and a CUE errors.Error explaining the issues found if cfg is
// not a concrete instance of the schema.
func (v *Validator) Validate(cfg any) (paths [][]string, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	w, err := v.codec.Decode(cfg)
	if err != nil {
		return nil, err
	}
	err = v.schema.Unify(w).Validate(cue.Concrete(true), cue.Final())
	errs := cerrors.Errors(err)
	if len(errs) == 0 {
		return nil, nil
	}
	paths = make([][]string, 0, len(errs))
	for _, e := range errs {
		paths = append(paths, cerrors.Path(e))
	}
	return unique(paths), cerrors.Promote(err, "invalid configuration")
}

// unique returns paths lexically sorted in ascending order and with repeated
// and nil elements omitted.
func unique(paths [][]string) [][]string {
	paths = slices.DeleteFunc(paths, func(p []string) bool { return p == nil })
	if len(paths) < 2 {
		return paths
	}
	slices.SortFunc(paths, compare[string])
	return slices.CompactFunc(paths, func(a, b []string) bool {
		return compare(a, b) == 0
	})
}

// compare orders slices lexically by element.
func compare[T constraints.Ordered](a, b []T) int {
	for i := range min(len(a), len(b)) {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return +1
		}
	}
	return len(a) - len(b)
}
