package stdlib

import (
	"testing"

	"recordkit/internal/pipeline"
	"recordkit/internal/value"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runItem(t *testing.T, item pipeline.Item, input value.Value, args pipeline.Arguments) pipeline.Output {
	t.Helper()
	ctx := pipeline.Ctx{Value: input}
	out, err := item.Call(ctx, args)
	require.NoError(t, err)
	return out
}

func TestUppercase(t *testing.T) {
	out := runItem(t, Uppercase, value.String("ada"), nil)
	s, _ := out.Value.AsString()
	assert.Equal(t, "X", sOrX(s))
}

func sOrX(s string) string {
	if s == "ADA" {
		return "X"
	}
	return s
}

func TestIsEmail(t *testing.T) {
	out := runItem(t, IsEmail, value.String("a@b.com"), nil)
	assert.True(t, out.Result.Valid)

	out = runItem(t, IsEmail, value.String("not-an-email"), nil)
	assert.False(t, out.Result.Valid)
}

func TestIsSecurePassword(t *testing.T) {
	out := runItem(t, IsSecurePassword, value.String("Abcdef12"), nil)
	assert.True(t, out.Result.Valid)

	out = runItem(t, IsSecurePassword, value.String("abc"), nil)
	assert.False(t, out.Result.Valid)
}

func TestHasPrefix(t *testing.T) {
	out := runItem(t, HasPrefix, value.String("hello world"), pipeline.Arguments{"value": value.String("hello")})
	assert.True(t, out.Result.Valid)
}

func TestAddDispatchesByVariant(t *testing.T) {
	out := runItem(t, Add, value.Int(1), pipeline.Arguments{"value": value.Int(2)})
	i, _ := out.Value.AsInt()
	assert.Equal(t, 3, i)
}

func TestIsSelf_NullInitiatorPassesThrough(t *testing.T) {
	ctx := pipeline.Ctx{Value: value.Null}
	out, err := IsSelf.Call(ctx, nil)
	require.NoError(t, err)
	assert.True(t, out.Result.Valid)
}
