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

// Package search provides the filter predicates used to select documents.
//
// A Request holds up to five independent criteria:
//   - title prefixes
//   - content substrings
//   - author identifiers
//   - a lower bound on the creation time
//   - an upper bound on the creation time
//
// A document matches when it satisfies every criterion that is present.
// Within a multi-valued criterion a single hit is enough. Absent and empty
// criteria impose no constraint, so an empty Request matches everything.
//
// Both time bounds are inclusive. A Request whose lower bound is after its
// upper bound is not an error; it matches nothing.
package search
