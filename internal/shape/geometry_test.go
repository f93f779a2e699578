package shape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasRequiredTypes(t *testing.T) {
	required := []string{"square", "triangle"}

	assert.True(t, HasRequiredTypes(required, []Submitted{
		{Type: "square"}, {Type: "triangle"}, {Type: "circle"},
	}))
	assert.False(t, HasRequiredTypes(required, []Submitted{{Type: "square"}}))
	assert.True(t, HasRequiredTypes(required, []Submitted{{Type: " Square "}, {Type: "TRIANGLE"}}))
	// 重复的类型只需要出现一次
	assert.True(t, HasRequiredTypes([]string{"circle", "circle"}, []Submitted{{Type: "circle"}}))
}

func TestParsePosition(t *testing.T) {
	x, y, err := ParsePosition("25% 75%")
	require.NoError(t, err)
	assert.Equal(t, 25.0, x)
	assert.Equal(t, 75.0, y)

	for _, bad := range []string{"", "50%", "a% b%", "1% 2% 3%"} {
		_, _, err := ParsePosition(bad)
		assert.Error(t, err, bad)
	}
}

func TestWithinTolerance(t *testing.T) {
	targets := []Target{
		{Type: "circle", Position: "35% 70%"},
		{Type: "circle", Position: "65% 70%"},
	}

	near := []Submitted{
		{Type: "circle", Position: "60% 72%"},
		{Type: "circle", Position: "38% 69%"},
	}
	assert.True(t, WithinTolerance(targets, near, 10))

	// 同一个提交图形不能同时匹配两个目标
	single := []Submitted{{Type: "circle", Position: "50% 70%"}}
	assert.False(t, WithinTolerance(targets, single, 20))

	far := []Submitted{
		{Type: "circle", Position: "10% 10%"},
		{Type: "circle", Position: "90% 10%"},
	}
	assert.False(t, WithinTolerance(targets, far, 10))
}
