package controllers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampPagination(t *testing.T) {
	tests := []struct {
		name      string
		pageStr   string
		limitStr  string
		wantPage  int
		wantLimit int
	}{
		{"defaults", "", "", 1, 5},
		{"explicit values", "3", "10", 3, 10},
		{"zero page clamps to one", "0", "5", 1, 5},
		{"negative page clamps to one", "-2", "5", 1, 5},
		{"limit above cap clamps", "1", "100", 1, 20},
		{"zero limit falls back to default", "1", "0", 1, 5},
		{"garbage input", "abc", "xyz", 1, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, limit := clampPagination(tt.pageStr, tt.limitStr)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantLimit, limit)
		})
	}
}
