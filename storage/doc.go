// Copyright 2025 Poiesic Systems
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

// Package storage provides the storage abstraction layer for docman.
//
// DocumentRepository is the contract every backend implements: upsert by
// identifier, point lookup and filtered search. Two backends exist:
//
//   - memory: a map guarded by a read/write mutex (the default)
//   - badger: an in-memory BadgerDB instance with creation-time and author indexes
//
// Neither backend writes to disk.
//
// # Usage
//
//	repo, err := memory.NewRepository()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repo.Close()
//
//	saved, err := repo.Save(ctx, &core.Document{Title: "Title One"})
//
// # Ownership
//
// Repositories keep their own copy of every saved document. The pointer
// passed to Save is never retained, and every pointer returned by a
// repository is a fresh copy, so callers may mutate either side freely.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context. Pass context.Background()
// for operations without specific timeout requirements.
package storage
