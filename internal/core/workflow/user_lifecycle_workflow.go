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

package workflow

import (
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/commands"
	"github.com/jaycherian/gcp-go-media-gateway/internal/core/cor"
)

// UserLifecycleWorkflow applies welcome and thank-you bookkeeping for user
// document changes.
type UserLifecycleWorkflow struct {
	cor.BaseCommand
	chain cor.Chain
}

func NewUserLifecycleWorkflow(handler commands.UserEventHandler) *UserLifecycleWorkflow {
	w := &UserLifecycleWorkflow{BaseCommand: *cor.NewBaseCommand("user-lifecycle-workflow")}
	w.chain = cor.NewBaseChain(w.GetName()).AddCommands(
		commands.NewUserDocumentEventJsonToStruct("user-document-event-json-to-struct"),
		commands.NewUserLifecycleNotifier("user-lifecycle-notifier", handler),
	)
	return w
}

func (w *UserLifecycleWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}
