package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageNormalize(t *testing.T) {
	tests := []struct {
		in   Page
		want Page
	}{
		{Page{}, Page{Limit: DefaultPageLimit}},
		{Page{Limit: 5, Offset: 10}, Page{Limit: 5, Offset: 10}},
		{Page{Limit: 1000}, Page{Limit: MaxPageLimit}},
		{Page{Limit: -1, Offset: -5}, Page{Limit: DefaultPageLimit}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.Normalize())
	}
}

func TestRecordingSort(t *testing.T) {
	for _, s := range []RecordingSort{"", SortNewest, SortTopRated, SortMostCommented} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, RecordingSort("created_at; DROP TABLE recordings").Valid())

	assert.Equal(t, SortNewest.orderBy(), RecordingSort("").orderBy())
	assert.Contains(t, SortTopRated.orderBy(), "ratings_average DESC")
	assert.Contains(t, SortMostCommented.orderBy(), "comments_quantity DESC")
}
