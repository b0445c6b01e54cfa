/*
 * Copyright (c) 2026, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package run

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/wso2/identity-account-fusion/internal/fusion/model"
	"github.com/wso2/identity-account-fusion/internal/system/constants"
	"github.com/wso2/identity-account-fusion/internal/system/errors"
)

// maxUUIDAttempts bounds draws from the generator before the pool gives
// up. Collisions are vanishingly rare; a repeated hit means the
// generator is broken.
const maxUUIDAttempts = 5

// UUIDPool hands out process-stable UUIDs unique within the run's seen
// set. Check-then-insert is atomic per UUID so concurrent batch items
// can never be assigned the same one.
type UUIDPool struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewUUIDPool seeds the pool with the UUIDs already assigned to existing
// fusion accounts.
func NewUUIDPool(existing []string) *UUIDPool {
	seen := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		if id != "" {
			seen[id] = struct{}{}
		}
	}
	return &UUIDPool{seen: seen}
}

// Reserve marks a UUID as taken, reporting false when it already was.
func (p *UUIDPool) Reserve(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.seen[id]; ok {
		return false
	}
	p.seen[id] = struct{}{}
	return true
}

// Allocate draws a fresh UUID not seen before in this run.
func (p *UUIDPool) Allocate() (string, error) {
	for attempt := 0; attempt < maxUUIDAttempts; attempt++ {
		if id := uuid.NewString(); p.Reserve(id) {
			return id, nil
		}
	}
	return "", errors.NewClientError(errors.UUID_POOL_EXHAUSTED)
}

// UniqueIDAllocator hands out human-meaningful uniqueIDs, unique within
// the configured scope: tenant-wide, or per contributing source.
type UniqueIDAllocator struct {
	mu    sync.Mutex
	scope string
	taken map[string]struct{}
}

// NewUniqueIDAllocator creates an allocator for the given scope
// (constants.ScopeTenant or constants.ScopeSource).
func NewUniqueIDAllocator(scope string) *UniqueIDAllocator {
	return &UniqueIDAllocator{scope: scope, taken: map[string]struct{}{}}
}

// Seed marks an existing uniqueID as taken.
func (a *UniqueIDAllocator) Seed(source, uniqueID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.taken[a.key(source, uniqueID)] = struct{}{}
}

// Allocate returns the base uniqueID, or the first numeric-suffixed
// variant free within the scope.
func (a *UniqueIDAllocator) Allocate(source, base string) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	candidate := base
	for suffix := 2; ; suffix++ {
		key := a.key(source, candidate)
		if _, ok := a.taken[key]; !ok {
			a.taken[key] = struct{}{}
			return candidate
		}
		candidate = fmt.Sprintf("%s%d", base, suffix)
	}
}

func (a *UniqueIDAllocator) key(source, uniqueID string) string {
	if a.scope == constants.ScopeSource {
		return source + "\x00" + uniqueID
	}
	return uniqueID
}

// uniqueIDBase derives a readable uniqueID stem from the account's name
// attributes: first initial plus last name, falling back to the account
// name and finally the account ID.
func uniqueIDBase(account *model.SourceAccount, fallback string) string {
	first := account.Attributes.FirstNonEmpty("first_name", "givenName", "firstname").First()
	last := account.Attributes.FirstNonEmpty("last_name", "sn", "lastname", "surname").First()

	if last != "" {
		stem := strings.ToLower(last)
		if first != "" {
			stem = strings.ToLower(string([]rune(first)[0])) + stem
		}
		return sanitizeUniqueID(stem)
	}
	if fallback != "" {
		return sanitizeUniqueID(strings.ToLower(fallback))
	}
	return strings.ToLower(account.ID)
}

// sanitizeUniqueID keeps letters and digits only.
func sanitizeUniqueID(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "account"
	}
	return b.String()
}
