// Copyright (c) 2026 - for information on the respective copyright owner
// see the NOTICE file and/or the repository at
// https://github.com/starkbridge/starkbridge
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

// Package async connects a foreground that advances in non-blocking ticks
// with background work that performs blocking network I/O.
//
// A Runtime owns the shared worker pool. Each foreground component creates
// its own Bridge on the runtime: tasks spawned through a bridge run on the
// pool and push their result into that bridge's completion queue, which the
// component drains once per tick with PollCompleted. Neither Spawn nor
// PollCompleted ever blocks.
//
// Cancellation is cooperative. Spawn returns a Token that the foreground can
// cancel; a task checks its token at its own suspension points (before the
// next network call) and the runtime never aborts a running task.
package async
