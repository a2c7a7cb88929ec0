/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package remote

import (
	"sort"
	"time"

	"travelcanvas/internal/domain"
)

// Merge reconciles local and remote copies last-write-wins on UpdatedAt.
// merged holds the winning copy of every node known on either side, ordered
// by id; push holds the local copies the remote side has to receive (newer
// than the remote copy, or unknown remotely). On equal timestamps the remote
// copy wins. Timestamps are compared at the database's microsecond precision.
func Merge(local, remote []domain.Node) (merged, push []domain.Node) {
	byID := make(map[string]domain.Node, len(local)+len(remote))
	for _, r := range remote {
		byID[r.ID] = r
	}
	for _, l := range local {
		r, ok := byID[l.ID]
		if !ok || newer(l, r) {
			byID[l.ID] = l
			push = append(push, l)
		}
	}
	merged = make([]domain.Node, 0, len(byID))
	for _, n := range byID {
		merged = append(merged, n)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].ID < merged[j].ID })
	sort.Slice(push, func(i, j int) bool { return push[i].ID < push[j].ID })
	return merged, push
}

func newer(a, b domain.Node) bool {
	return a.UpdatedAt.Truncate(time.Microsecond).After(b.UpdatedAt.Truncate(time.Microsecond))
}
