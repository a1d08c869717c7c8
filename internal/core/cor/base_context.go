// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cor

import (
	"context"
	"errors"
	"maps"
	"slices"
)

// BaseContext is the default Context. It is not safe for concurrent use; one
// BaseContext belongs to exactly one chain execution.
type BaseContext struct {
	// data holds inputs, outputs and named values such as the parsed GCS object.
	data map[string]interface{}
	// errors is keyed by the name of the command that failed.
	errors map[string]error
	// context is the current Go context; the chain replaces it per command.
	context context.Context
}

// NewBaseContext returns an empty context with no Go context attached.
func NewBaseContext() Context {
	return &BaseContext{
		data:   make(map[string]interface{}),
		errors: make(map[string]error),
	}
}

// NewContextWithInput is shorthand for the common case of starting a chain
// with a single input value.
func NewContextWithInput(ctx context.Context, input interface{}) Context {
	out := NewBaseContext()
	out.SetContext(ctx)
	out.Add(CtxIn, input)
	return out
}

// SetContext replaces the Go context.
func (c *BaseContext) SetContext(context context.Context) {
	c.context = context
}

// GetContext returns the Go context of the running command.
func (c *BaseContext) GetContext() context.Context {
	return c.context
}

// Add stores value under key and returns the context for chaining.
func (c *BaseContext) Add(key string, value interface{}) Context {
	c.data[key] = value
	return c
}

// Get returns the value under key, or nil.
func (c *BaseContext) Get(key string) interface{} {
	return c.data[key]
}

// Remove deletes key. Removing a missing key is a no-op.
func (c *BaseContext) Remove(key string) {
	delete(c.data, key)
}

// AddError records err for the named command, replacing an earlier one.
func (c *BaseContext) AddError(key string, err error) {
	c.errors[key] = err
}

// GetErrors returns the recorded errors keyed by command name.
func (c *BaseContext) GetErrors() map[string]error {
	return c.errors
}

// HasErrors reports whether any command failed.
func (c *BaseContext) HasErrors() bool {
	return len(c.errors) > 0
}

// Err joins the recorded errors ordered by command name, or returns nil when
// the chain has none.
func (c *BaseContext) Err() error {
	if len(c.errors) == 0 {
		return nil
	}
	errs := make([]error, 0, len(c.errors))
	for _, key := range slices.Sorted(maps.Keys(c.errors)) {
		errs = append(errs, c.errors[key])
	}
	return errors.Join(errs...)
}

// Value fetches a typed value from the context. ok is false when the key is
// missing or holds a different type.
func Value[T any](c Context, key string) (value T, ok bool) {
	value, ok = c.Get(key).(T)
	return value, ok
}
