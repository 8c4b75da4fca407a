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


// Package keyword provides the full-text relevance side of hybrid search,
// backed by a Bleve index.
//
// Entries are indexed per entity (title, body, tags) together with exact
// owner, tenant, and kind terms so queries stay scoped without post-filtering.
// The index lives alongside the primary store and is updated after the store
// transaction commits; it is a ranking signal, not a source of truth.
package keyword
