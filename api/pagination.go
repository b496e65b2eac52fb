// Copyright 2026 Blink Labs Software
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

package api

import (
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 100
	OrderAsc        = "asc"
	OrderDesc       = "desc"
)

var ErrInvalidPagination = errors.New("invalid pagination parameters")

type PaginationParams struct {
	Count int
	Page  int
	Order string
}

// ParsePagination reads the count, page and order query values. Count and
// page are clamped to their bounds.
func ParsePagination(r *http.Request) (PaginationParams, error) {
	params := PaginationParams{
		Count: DefaultPageSize,
		Page:  1,
		Order: OrderAsc,
	}
	query := r.URL.Query()
	for name, dest := range map[string]*int{"count": &params.Count, "page": &params.Page} {
		val := query.Get(name)
		if val == "" {
			continue
		}
		tmp, err := strconv.Atoi(val)
		if err != nil {
			return PaginationParams{}, ErrInvalidPagination
		}
		*dest = tmp
	}
	if order := strings.ToLower(query.Get("order")); order != "" {
		if order != OrderAsc && order != OrderDesc {
			return PaginationParams{}, ErrInvalidPagination
		}
		params.Order = order
	}
	params.Count = min(max(params.Count, 1), MaxPageSize)
	params.Page = max(params.Page, 1)
	return params, nil
}

// SetPaginationHeaders reports the total item and page counts
func SetPaginationHeaders(
	w http.ResponseWriter,
	totalItems int,
	params PaginationParams,
) {
	totalItems = max(totalItems, 0)
	totalPages := 0
	if totalItems > 0 && params.Count > 0 {
		totalPages = (totalItems + params.Count - 1) / params.Count
	}
	w.Header().Set("X-Pagination-Count-Total", strconv.Itoa(totalItems))
	w.Header().Set("X-Pagination-Page-Total", strconv.Itoa(totalPages))
}

// Paginate returns the requested page of items, which must be in ascending
// order
func Paginate[T any](items []T, params PaginationParams) []T {
	if params.Order == OrderDesc {
		items = slices.Clone(items)
		slices.Reverse(items)
	}
	start := (params.Page - 1) * params.Count
	if start >= len(items) {
		return nil
	}
	end := min(start+params.Count, len(items))
	return items[start:end]
}
