// Copyright 2026 Halcyon Labs
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


// Package queue drains the embedding job queue.
//
// Worker polls for Pending jobs, claims them one at a time, and runs the
// embedding calls on a bounded pool so one slow or failing job never blocks
// its siblings. Delivery is at-least-once: a crashed worker leaves the job
// claimed until a re-index or an operator intervenes, and a completed job
// whose document was re-indexed mid-flight is dropped by the store's
// generation guard rather than corrupting newer chunks.
//
// Sweeper periodically purges dead-lettered jobs once they have aged out,
// keeping the queue inspectable without growing without bound.
package queue
