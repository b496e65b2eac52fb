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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	params, err := ParsePagination(req)
	require.NoError(t, err)
	assert.Equal(t, PaginationParams{Count: DefaultPageSize, Page: 1, Order: OrderAsc}, params)

	req = httptest.NewRequest(http.MethodGet, "/x?count=999&page=0&order=DESC", nil)
	params, err = ParsePagination(req)
	require.NoError(t, err)
	assert.Equal(t, PaginationParams{Count: MaxPageSize, Page: 1, Order: OrderDesc}, params)

	for _, query := range []string{"count=abc", "page=x", "order=sideways"} {
		req = httptest.NewRequest(http.MethodGet, "/x?"+query, nil)
		_, err = ParsePagination(req)
		require.ErrorIs(t, err, ErrInvalidPagination, query)
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{3, 4}, Paginate(items, PaginationParams{Count: 2, Page: 2, Order: OrderAsc}))
	assert.Equal(t, []int{5}, Paginate(items, PaginationParams{Count: 2, Page: 3, Order: OrderAsc}))
	assert.Equal(t, []int{5, 4}, Paginate(items, PaginationParams{Count: 2, Page: 1, Order: OrderDesc}))
	assert.Nil(t, Paginate(items, PaginationParams{Count: 2, Page: 4, Order: OrderAsc}))
	// The input is left untouched
	assert.Equal(t, []int{1, 2, 3, 4, 5}, items)

	rec := httptest.NewRecorder()
	SetPaginationHeaders(rec, 5, PaginationParams{Count: 2})
	assert.Equal(t, "5", rec.Header().Get("X-Pagination-Count-Total"))
	assert.Equal(t, "3", rec.Header().Get("X-Pagination-Page-Total"))
}
