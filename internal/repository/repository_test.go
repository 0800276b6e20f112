package repository

import (
	"errors"
	"fmt"
	"testing"

	"gorm.io/gorm"
)

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		page, size         int
		wantPage, wantSize int
	}{
		{0, 0, 1, 20},
		{-3, 10, 1, 10},
		{2, 500, 2, 100},
		{5, 25, 5, 25},
	}
	for _, tt := range tests {
		page, size := NormalizePage(tt.page, tt.size)
		if page != tt.wantPage || size != tt.wantSize {
			t.Fatalf("NormalizePage(%d, %d) = %d, %d", tt.page, tt.size, page, size)
		}
	}
}

func TestMapErr(t *testing.T) {
	if !errors.Is(mapErr(fmt.Errorf("find: %w", gorm.ErrRecordNotFound)), ErrNotFound) {
		t.Fatalf("record not found not mapped")
	}
	other := errors.New("connection refused")
	if mapErr(other) != other {
		t.Fatalf("unrelated error changed")
	}
}
