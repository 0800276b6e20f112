package response

import "testing"

func TestNewPagination(t *testing.T) {
	tests := []struct {
		page, size int
		total      int64
		want       Pagination
	}{
		{1, 20, 45, Pagination{Page: 1, PageSize: 20, TotalPages: 3, TotalItems: 45, HasMore: true, From: 1, To: 20}},
		{3, 20, 45, Pagination{Page: 3, PageSize: 20, TotalPages: 3, TotalItems: 45, HasMore: false, From: 41, To: 45}},
		{2, 10, 5, Pagination{Page: 2, PageSize: 10, TotalPages: 1, TotalItems: 5}},
		{1, 10, 0, Pagination{Page: 1, PageSize: 10}},
	}
	for _, tt := range tests {
		if got := NewPagination(tt.page, tt.size, tt.total); *got != tt.want {
			t.Fatalf("NewPagination(%d, %d, %d) = %+v, want %+v", tt.page, tt.size, tt.total, *got, tt.want)
		}
	}
}
