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


// Package index orchestrates document indexing: normalization, chunking, the
// atomic replace of a document's chunk set and pending jobs, and the keyword
// index update that follows a committed replacement.
//
// Re-indexing is idempotent and safe under concurrent edits: each replacement
// bumps the document's generation counter inside one store transaction, so
// embedding results produced against a superseded generation can never
// overwrite current chunks. Callers deciding whether an edit warrants
// re-indexing use ShouldReindex as a cheap gate.
package index
