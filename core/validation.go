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

package core

import (
	"fmt"
	"time"
)

// ValidateDocument validates a Document before it is saved.
//
// Only presence is checked. Every field of a non-nil document is optional:
//   - ID is assigned by the store when empty
//   - Created is assigned by the store when zero or in the future
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}
	return nil
}

// ResolveCreated returns the creation time a saved document must carry.
// A zero timestamp, or one later than now, becomes now. Any other
// timestamp is kept as is. The result is normalized with NormalizeTime.
func ResolveCreated(created, now time.Time) time.Time {
	if created.IsZero() || created.After(now) {
		return NormalizeTime(now)
	}
	return NormalizeTime(created)
}
