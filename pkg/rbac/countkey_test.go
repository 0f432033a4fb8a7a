package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeCountKey(t *testing.T) {
	assert.Equal(t, "[42]Contributor", EncodeCountKey(42, "Contributor"))
	assert.Equal(t, "[0]", EncodeCountKey(0, ""))
}

func TestSplitCountKey(t *testing.T) {
	testCases := []struct {
		key         string
		wantCount   int
		wantLabel   string
		description string
	}{
		{"[42]Contributor", 42, "Contributor", "well-formed key"},
		{"[0]Reader", 0, "Reader", "zero count"},
		{"[7]sub-id:extra]bracket", 7, "sub-id:extra]bracket", "split at first bracket only"},
		{"Contributor", 0, "Contributor", "no bracket falls back to whole string"},
		{"[12Contributor", 0, "[12Contributor", "unclosed bracket falls back"},
		{"[abc]Reader", 0, "[abc]Reader", "non-numeric count falls back"},
		{"", 0, "", "empty string"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			count, label := SplitCountKey(tc.key)
			assert.Equal(t, tc.wantCount, count)
			assert.Equal(t, tc.wantLabel, label)
		})
	}
}

func TestCountKeyRoundTrip(t *testing.T) {
	count, label := SplitCountKey(EncodeCountKey(13, "00000000-aaaa-bbbb-cccc-ffffffffffff"))
	assert.Equal(t, 13, count)
	assert.Equal(t, "00000000-aaaa-bbbb-cccc-ffffffffffff", label)
}
