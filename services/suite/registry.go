// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package suite

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Registry errors.
var (
	// ErrDuplicateDefinition indicates two definitions share an ID.
	ErrDuplicateDefinition = errors.New("duplicate definition id")

	// ErrUnknownDefinition indicates a requested ID is not registered.
	ErrUnknownDefinition = errors.New("unknown definition id")
)

// Registry holds definitions in registration order.
//
// Thread Safety: Not safe for concurrent registration. Read-only use after
// construction is safe.
type Registry struct {
	defs  []Definition
	index map[string]int
}

// NewRegistry creates a registry holding defs.
func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{index: make(map[string]int, len(defs))}
	for _, d := range defs {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds d.
func (r *Registry) Register(d Definition) error {
	if d.ID == "" {
		return errors.New("definition has no id")
	}
	if d.Validate == nil {
		return fmt.Errorf("definition %q has no validator", d.ID)
	}
	if _, ok := r.index[d.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateDefinition, d.ID)
	}
	r.index[d.ID] = len(r.defs)
	r.defs = append(r.defs, d)
	return nil
}

// Get returns the definition with the given ID.
func (r *Registry) Get(id string) (Definition, bool) {
	i, ok := r.index[id]
	if !ok {
		return Definition{}, false
	}
	return r.defs[i], true
}

// All returns every definition in registration order.
func (r *Registry) All() []Definition {
	out := make([]Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

// IDs returns every ID, sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.defs))
	for _, d := range r.defs {
		ids = append(ids, d.ID)
	}
	sort.Strings(ids)
	return ids
}

// Select returns the definitions named by ids, or every definition when
// ids is empty. An unknown ID fails with ErrUnknownDefinition listing the
// available IDs.
func (r *Registry) Select(ids ...string) ([]Definition, error) {
	if len(ids) == 0 {
		return r.All(), nil
	}
	out := make([]Definition, 0, len(ids))
	for _, id := range ids {
		d, ok := r.Get(id)
		if !ok {
			return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownDefinition, id, strings.Join(r.IDs(), ", "))
		}
		out = append(out, d)
	}
	return out, nil
}

// Len returns the number of definitions.
func (r *Registry) Len() int {
	return len(r.defs)
}
