package ulid

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	id := Generate()
	assert.Len(t, id, 26)
	assert.True(t, Validate(id))
}

func TestGenerateWithPrefix(t *testing.T) {
	tests := []struct {
		name   string
		gen    func() string
		prefix string
	}{
		{"review", ReviewID, PrefixReview},
		{"suggestion", SuggestionID, PrefixSuggestion},
		{"user", UserID, PrefixUser},
		{"request", RequestID, PrefixRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := tt.gen()
			assert.True(t, strings.HasPrefix(id, tt.prefix+PrefixSeparator))
			assert.True(t, Validate(id))
		})
	}
}

func TestValidate(t *testing.T) {
	assert.True(t, Validate("01AN4Z07BY79KA1307SR9X4MV3"))
	assert.True(t, Validate("rev-01AN4Z07BY79KA1307SR9X4MV3"))
	assert.False(t, Validate("not-a-ulid"))
	assert.False(t, Validate(""))
}

func TestMonotonicOrdering(t *testing.T) {
	first := Generate()
	second := Generate()
	assert.True(t, first < second, "ULIDs generated in sequence should sort in order")
}

func TestTime(t *testing.T) {
	before := time.Now().Add(-time.Second)
	id := ReviewID()
	after := time.Now().Add(time.Second)

	ts, err := Time(id)
	require.NoError(t, err)
	assert.True(t, ts.After(before) && ts.Before(after))

	_, err = Time("garbage")
	assert.Error(t, err)
}
