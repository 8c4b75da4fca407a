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


// Package chunk splits canonical plain text into overlapping, size-bounded
// segments for independent embedding.
//
// The splitter slides a fixed-size window over the text and pulls each
// window's right edge back to a sentence terminator, or failing that a word
// boundary, so segments never sever mid-word or mid-sentence. Consecutive
// segments share overlapping context, and undersized trailing fragments are
// discarded rather than emitted.
package chunk
