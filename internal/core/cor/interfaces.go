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

// Package cor (Chain of Responsibility) provides the building blocks every
// gateway operation is assembled from. An HTTP handler or a Pub/Sub listener
// creates a Context, places its input under CtxIn and runs a Chain; each
// Command reads what it needs, writes its result to CtxOut and records
// failures against its own name.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the keys a BaseChain uses to pipe one command's output
// into the next command's input.
const (
	CtxIn  = "__IN__"
	CtxOut = "__OUT__"
)

// Context is the property bag shared by all commands of one execution.
type Context interface {
	// SetContext replaces the Go context. The chain swaps in a span context
	// for every command it runs.
	SetContext(context context.Context)
	GetContext() context.Context

	Add(key string, value interface{}) Context
	Get(key string) interface{}
	Remove(key string)

	// AddError records a failure, keyed by the name of the command that hit it.
	AddError(key string, err error)
	GetErrors() map[string]error
	HasErrors() bool

	// Err joins all recorded errors in command name order, or returns nil.
	Err() error
}

// Executable is anything with business logic driven by a Context.
type Executable interface {
	Execute(context Context)
}

// Command is an atomic, testable unit of work.
type Command interface {
	Executable

	GetName() string

	// GetInputParam and GetOutputParam name the context keys the command
	// reads from and writes to. They default to CtxIn and CtxOut.
	GetInputParam() string
	GetOutputParam() string

	// IsExecutable is checked before Execute. A command that is not
	// executable is skipped without recording an error.
	IsExecutable(context Context) bool

	GetTracer() trace.Tracer
	GetMeter() metric.Meter
	GetSuccessCounter() metric.Int64Counter
	GetErrorCounter() metric.Int64Counter
}

// Chain is an ordered sequence of commands. A Chain is itself a Command.
type Chain interface {
	Command

	// ContinueOnFailure makes the chain run every command even after one of
	// them records an error.
	ContinueOnFailure(bool) Chain

	AddCommand(command Command) Chain
	AddCommands(commands ...Command) Chain
}
