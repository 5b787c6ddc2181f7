package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name        string
		page, limit string
		want        Pagination
		offset      int
	}{
		{"defaults", "", "", Pagination{Page: 1, Limit: DefaultPageSize}, 0},
		{"explicit", "3", "10", Pagination{Page: 3, Limit: 10}, 20},
		{"garbage", "abc", "-5", Pagination{Page: 1, Limit: DefaultPageSize}, 0},
		{"capped", "1", "1000", Pagination{Page: 1, Limit: MaxPageSize}, 0},
		{"huge page", "900000000000000000", "100", Pagination{Page: MaxPage, Limit: MaxPageSize}, (MaxPage - 1) * MaxPageSize},
		{"page past int", "99999999999999999999", "10", Pagination{Page: 1, Limit: 10}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePagination(tt.page, tt.limit)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.offset, got.Offset())
		})
	}
}

func TestParsePagination_OffsetFitsInt32(t *testing.T) {
	for _, limit := range []string{"1", "20", "100", "5000"} {
		p := ParsePagination("900000000000000000", limit)
		assert.GreaterOrEqual(t, p.Offset(), 0)
		assert.LessOrEqual(t, p.Offset(), math.MaxInt32)
	}
}

func TestStringPtr(t *testing.T) {
	assert.Nil(t, StringPtr("   "))
	if p := StringPtr(" x "); assert.NotNil(t, p) {
		assert.Equal(t, "x", *p)
	}
}
