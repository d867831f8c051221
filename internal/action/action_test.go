package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAction_Is(t *testing.T) {
	a := CreateSingle | Nested
	assert.True(t, a.Is(Create))
	assert.True(t, a.Is(Single))
	assert.True(t, a.Is(Nested))
	assert.False(t, a.Is(Update))
}

func TestAction_WithOrigin(t *testing.T) {
	a := CreateSingle | ProgramCode
	child := a.WithOrigin(Nested)
	assert.True(t, child.Is(Create))
	assert.True(t, child.Is(Single))
	assert.True(t, child.Is(Nested))
	assert.False(t, child.Is(ProgramCode))
}

func TestAction_String(t *testing.T) {
	assert.Equal(t, "CREATE/SINGLE/NESTED", (CreateSingle | Nested).String())
	assert.Equal(t, "DELETE/MANY", DeleteMany.String())
}
