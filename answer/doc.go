// Copyright 2025 The citewell authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package answer turns retrieved chunks into cited answers.
//
// A request flows through retrieval, injection screening, context assembly,
// and generation. The streaming variant produces a channel of tagged event
// frames (sources, token, done, error) from a single goroutine; every
// stream terminates with exactly one done or error frame. Cancellation is a
// first-class outcome: tokens already emitted are preserved and the
// assistant message is persisted with status cancelled rather than errored.
package answer
