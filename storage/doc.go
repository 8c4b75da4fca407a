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


// Package storage provides the storage abstraction layer for recall.
//
// This package defines repository interfaces that decouple storage
// implementation from the indexing pipeline and search engine. It allows for
// different storage backends (BadgerDB, in-memory, etc.) to be used
// interchangeably.
//
// # Constructor Return Type Pattern
//
// This package follows a strict "return interface" pattern for all public
// constructors to enforce abstraction and enable multiple storage backend
// implementations:
//
//	docs, jobs, err := badger.NewRepositories(path)  // returns interfaces
//
// Internal package constructors (newDocumentRepository, newBackend, etc.) may
// return concrete types since they're only used within the implementation
// package.
//
// # Architecture
//
// The storage layer follows the Repository pattern:
//
//   - Repository: Common lifecycle and transaction operations
//   - DocumentRepository: Documents and their chunks, including the atomic
//     replace used by re-indexing
//   - JobRepository: The embedding job queue with at-least-once claim
//     semantics
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support concurrent
// access from multiple goroutines. Job claiming in particular is contended by
// design: concurrent workers race on the same PENDING jobs and losers get
// ErrConflict.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation and timeout
// support.
package storage
