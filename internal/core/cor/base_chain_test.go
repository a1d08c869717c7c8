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

package cor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jaycherian/gcp-go-media-gateway/internal/core/cor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// appendCommand appends its suffix to the string input.
type appendCommand struct {
	cor.BaseCommand
	suffix string
	calls  *int
}

func newAppend(name, suffix string, calls *int) *appendCommand {
	return &appendCommand{BaseCommand: *cor.NewBaseCommand(name), suffix: suffix, calls: calls}
}

func (c *appendCommand) Execute(context cor.Context) {
	*c.calls++
	in, _ := cor.Value[string](context, c.GetInputParam())
	c.Succeed(context, in+c.suffix)
}

type failCommand struct {
	cor.BaseCommand
	err error
}

func (c *failCommand) Execute(context cor.Context) {
	c.Fail(context, c.err)
}

// dropCommand succeeds without producing output.
type dropCommand struct {
	cor.BaseCommand
}

func (c *dropCommand) Execute(context cor.Context) {
	c.Succeed(context, nil)
}

func TestChainPipesOutputToInput(t *testing.T) {
	calls := 0
	chain := cor.NewBaseChain("pipe")
	chain.AddCommand(newAppend("a", "-a", &calls))
	chain.AddCommand(newAppend("b", "-b", &calls))

	chCtx := cor.NewContextWithInput(context.Background(), "start")
	chain.Execute(chCtx)

	require.NoError(t, chCtx.Err())
	assert.Equal(t, 2, calls)
	assert.Equal(t, "start-a-b", chCtx.Get(cor.CtxIn))
	assert.Nil(t, chCtx.Get(cor.CtxOut))
}

func TestChainStopsOnFailure(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	chain := cor.NewBaseChain("stop")
	chain.AddCommand(&failCommand{BaseCommand: *cor.NewBaseCommand("fail"), err: boom})
	chain.AddCommand(newAppend("after", "-x", &calls))

	chCtx := cor.NewContextWithInput(context.Background(), "start")
	chain.Execute(chCtx)

	assert.Equal(t, 0, calls)
	assert.ErrorIs(t, chCtx.Err(), boom)
	assert.Contains(t, chCtx.GetErrors(), "fail")
}

func TestChainContinueOnFailure(t *testing.T) {
	calls := 0
	chain := cor.NewBaseChain("continue")
	chain.ContinueOnFailure(true)
	chain.AddCommand(&failCommand{BaseCommand: *cor.NewBaseCommand("fail"), err: errors.New("first")})
	chain.AddCommand(newAppend("after", "-x", &calls))

	chCtx := cor.NewContextWithInput(context.Background(), "start")
	chain.Execute(chCtx)

	assert.Equal(t, 1, calls)
	assert.True(t, chCtx.HasErrors())
	assert.Equal(t, "start-x", chCtx.Get(cor.CtxIn))
}

func TestChainContinueOnFailureAfterSeveralFailures(t *testing.T) {
	calls := 0
	chain := cor.NewBaseChain("continue-many").ContinueOnFailure(true)
	chain.AddCommands(
		newAppend("a", "-a", &calls),
		&failCommand{BaseCommand: *cor.NewBaseCommand("fail-1"), err: errors.New("first")},
		&failCommand{BaseCommand: *cor.NewBaseCommand("fail-2"), err: errors.New("second")},
		newAppend("b", "-b", &calls),
	)

	chCtx := cor.NewContextWithInput(context.Background(), "start")
	chain.Execute(chCtx)

	assert.Equal(t, 2, calls)
	assert.Len(t, chCtx.GetErrors(), 2)
	assert.Equal(t, "start-a-b", chCtx.Get(cor.CtxIn))
}

func TestChainDropWithoutFailureStillStarvesNextStep(t *testing.T) {
	calls := 0
	chain := cor.NewBaseChain("drop-continue").ContinueOnFailure(true)
	chain.AddCommand(&dropCommand{BaseCommand: *cor.NewBaseCommand("drop")})
	chain.AddCommand(newAppend("after", "-x", &calls))

	chCtx := cor.NewContextWithInput(context.Background(), "start")
	chain.Execute(chCtx)

	require.NoError(t, chCtx.Err())
	assert.Equal(t, 0, calls)
}

func TestChainSkipsWhenInputIsDropped(t *testing.T) {
	calls := 0
	chain := cor.NewBaseChain("drop")
	chain.AddCommand(&dropCommand{BaseCommand: *cor.NewBaseCommand("drop")})
	chain.AddCommand(newAppend("after", "-x", &calls))

	chCtx := cor.NewContextWithInput(context.Background(), "start")
	chain.Execute(chCtx)

	assert.Equal(t, 0, calls)
	assert.NoError(t, chCtx.Err())
	assert.Nil(t, chCtx.Get(cor.CtxIn))
}

func TestChainHonoursCancellation(t *testing.T) {
	calls := 0
	chain := cor.NewBaseChain("cancelled")
	chain.AddCommand(newAppend("a", "-a", &calls))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	chCtx := cor.NewContextWithInput(ctx, "start")
	chain.Execute(chCtx)

	assert.Equal(t, 0, calls)
	assert.ErrorIs(t, chCtx.Err(), context.Canceled)
}

func TestChainRestoresParentContext(t *testing.T) {
	type key struct{}
	parent := context.WithValue(context.Background(), key{}, "parent")
	calls := 0
	chain := cor.NewBaseChain("restore")
	chain.AddCommand(newAppend("a", "-a", &calls))

	chCtx := cor.NewContextWithInput(parent, "start")
	chain.Execute(chCtx)

	assert.Equal(t, parent, chCtx.GetContext())
}

func TestErrJoinsInNameOrder(t *testing.T) {
	chCtx := cor.NewBaseContext()
	assert.NoError(t, chCtx.Err())

	chCtx.AddError("zeta", errors.New("z"))
	chCtx.AddError("alpha", errors.New("a"))
	assert.Equal(t, "a\nz", chCtx.Err().Error())
}

func TestValue(t *testing.T) {
	chCtx := cor.NewBaseContext()
	chCtx.Add("n", 42)

	n, ok := cor.Value[int](chCtx, "n")
	assert.True(t, ok)
	assert.Equal(t, 42, n)

	_, ok = cor.Value[string](chCtx, "n")
	assert.False(t, ok)
	_, ok = cor.Value[int](chCtx, "missing")
	assert.False(t, ok)
}
