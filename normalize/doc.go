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


// Package normalize flattens rich or marked-up document content into
// canonical plain text suitable for chunking and indexing.
//
// Three input shapes are handled:
//   - plain text, passed through with whitespace cleanup
//   - a structured block/inline editor tree (JSON), flattened by walking
//     text and line-break nodes and separating block-level nodes with a
//     blank line
//   - opaque markup, reduced by tag stripping and entity decoding
//
// Normalization is best-effort and never fails: unparseable structured
// input degrades to the markup path, which always produces a string.
package normalize
