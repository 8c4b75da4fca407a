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


// Package search combines keyword relevance and vector similarity into one
// ranked result list.
//
// The engine runs both signals independently per registered entity source and
// merges them by entity: the combined score is the weighted sum of the raw
// keyword score and the best vector similarity across the entity's chunks,
// with missing signals contributing zero. Weights must sum to 1.0 and are
// validated before any work starts.
//
// The embedding provider is optional at query time: if the query cannot be
// embedded, the search degrades to keyword-only rather than failing. Raw
// keyword scores are intentionally not normalized against vector
// similarities; the weights are the only calibration between the two signals.
package search
