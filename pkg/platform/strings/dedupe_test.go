package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "empty", raw: "", want: nil},
		{name: "blank", raw: "  ", want: nil},
		{name: "single", raw: "k1:9092", want: []string{"k1:9092"}},
		{name: "trims and drops empties", raw: " k1:9092, ,k2:9092,", want: []string{"k1:9092", "k2:9092"}},
		{name: "keeps first occurrence", raw: "b,a,b,a", want: []string{"b", "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitList(tt.raw, ","))
		})
	}
}

func TestDedupeAndTrim(t *testing.T) {
	assert.Nil(t, DedupeAndTrim(nil))
	assert.Equal(t, []string{}, DedupeAndTrim([]string{" ", ""}))
	assert.Equal(t, []string{"alice", "bob"}, DedupeAndTrim([]string{"alice", " bob ", "alice"}))
}
