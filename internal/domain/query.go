/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"slices"
	"sort"
	"strings"
	"time"
)

// Filter selects nodes. Empty fields match everything.
type Filter struct {
	Search     string // case-insensitive, over title, description and tags
	Types      []NodeType
	Statuses   []Status
	Priorities []Priority
	From, To   *time.Time // inclusive range over the planned date
}

// Match reports whether n passes every criterion of f.
func (f Filter) Match(n Node) bool {
	if len(f.Types) > 0 && !slices.Contains(f.Types, n.Type) {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, n.Status) {
		return false
	}
	if len(f.Priorities) > 0 && !slices.Contains(f.Priorities, n.Priority) {
		return false
	}
	if f.From != nil || f.To != nil {
		if n.Date == nil {
			return false
		}
		if f.From != nil && n.Date.Before(*f.From) {
			return false
		}
		if f.To != nil && n.Date.After(*f.To) {
			return false
		}
	}
	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		return matchesSearch(n, term)
	}
	return true
}

func matchesSearch(n Node, term string) bool {
	if strings.Contains(strings.ToLower(n.Title), term) || strings.Contains(strings.ToLower(n.Description), term) {
		return true
	}
	for _, tag := range n.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

// FilterNodes returns the nodes matching f, keeping their order.
func FilterNodes(nodes []Node, f Filter) []Node {
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if f.Match(n) {
			out = append(out, n)
		}
	}
	return out
}

// SortByDate returns a copy ordered by planned date, falling back to the
// creation time for undated nodes.
func SortByDate(nodes []Node) []Node {
	out := append([]Node(nil), nodes...)
	sort.SliceStable(out, func(i, j int) bool {
		return sortTime(out[i]).Before(sortTime(out[j]))
	})
	return out
}

func sortTime(n Node) time.Time {
	if n.Date != nil {
		return *n.Date
	}
	return n.CreatedAt
}

// SortByPriority orders by descending priority weight, stable otherwise.
func SortByPriority(nodes []Node) []Node {
	out := append([]Node(nil), nodes...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority.Weight() > out[j].Priority.Weight()
	})
	return out
}

// GroupByType buckets nodes by their type.
func GroupByType(nodes []Node) map[NodeType][]Node {
	groups := make(map[NodeType][]Node)
	for _, n := range nodes {
		groups[n.Type] = append(groups[n.Type], n)
	}
	return groups
}
