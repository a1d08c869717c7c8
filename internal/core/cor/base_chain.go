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
	"fmt"

	"go.opentelemetry.io/otel/codes"
)

// BaseChain runs its commands in order inside one span per chain and one
// child span per command.
//
// After every command the chain moves the value found under CtxOut to CtxIn,
// so the output of one step is the input of the next. A step that writes
// nothing to CtxOut leaves the next step without input, which makes a default
// command not executable; this is how a chain stops quietly on messages it
// does not care about.
//
// Nested chains are supported, but a nested chain consumes the piping keys
// itself. Workflows that need to splice steps together should add the
// commands directly.
type BaseChain struct {
	BaseCommand
	continueOnFailure bool
	commands          []Command
}

// NewBaseChain returns an empty chain that stops at the first failure.
func NewBaseChain(name string) *BaseChain {
	return &BaseChain{BaseCommand: *NewBaseCommand(name)}
}

// ContinueOnFailure makes the chain run the remaining commands after one of
// them records an error. The failed command's input is passed on to the next.
func (c *BaseChain) ContinueOnFailure(continueOnFailure bool) Chain {
	c.continueOnFailure = continueOnFailure
	return c
}

// AddCommand appends a command to the end of the chain.
func (c *BaseChain) AddCommand(command Command) Chain {
	c.commands = append(c.commands, command)
	return c
}

// AddCommands appends several commands at once.
func (c *BaseChain) AddCommands(commands ...Command) Chain {
	c.commands = append(c.commands, commands...)
	return c
}

// IsExecutable only needs a Go context. A chain never checks the input
// itself; its first command does.
func (c *BaseChain) IsExecutable(context Context) bool {
	return context.GetContext() != nil
}

// Execute runs the commands in order. It stops at the first recorded error
// unless the chain continues on failure, and always stops once the Go context
// is cancelled. The caller's Go context is restored when Execute returns.
func (c *BaseChain) Execute(chCtx Context) {
	parentCtx := chCtx.GetContext()
	outerCtx, chainSpan := c.Tracer.Start(parentCtx, fmt.Sprintf("%s_execute", c.GetName()))
	defer chainSpan.End()
	defer chCtx.SetContext(parentCtx)

	for _, command := range c.commands {
		if chCtx.HasErrors() && !c.continueOnFailure {
			break
		}
		// A cancelled request or a shutdown stops the chain between steps.
		if err := outerCtx.Err(); err != nil {
			chCtx.AddError(c.GetName(), fmt.Errorf("chain %s cancelled before %s: %w", c.GetName(), command.GetName(), err))
			break
		}

		commandCtx, commandSpan := c.Tracer.Start(outerCtx, command.GetName())
		chCtx.SetContext(commandCtx)
		failed := false
		if command.IsExecutable(chCtx) {
			command.Execute(chCtx)
			var err error
			if err, failed = chCtx.GetErrors()[command.GetName()]; failed {
				commandSpan.RecordError(err)
				commandSpan.SetStatus(codes.Error, err.Error())
			} else {
				commandSpan.SetStatus(codes.Ok, "")
			}
		} else {
			commandSpan.SetStatus(codes.Unset, "skipped: not executable")
		}
		chCtx.SetContext(outerCtx)
		commandSpan.End()

		// Data piping: the output of this step becomes the input of the next.
		// A step that failed without output hands its own input on, so a
		// chain that continues on failure still feeds the following steps.
		out := chCtx.Get(CtxOut)
		if out == nil && failed {
			continue
		}
		chCtx.Remove(CtxIn)
		if out != nil {
			chCtx.Add(CtxIn, out)
		}
		chCtx.Remove(CtxOut)
	}

	if chCtx.HasErrors() {
		chainSpan.SetStatus(codes.Error, "chain failed")
	} else {
		chainSpan.SetStatus(codes.Ok, "")
	}
}
