package codegen

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/ferminotify/core/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCode_Shape(t *testing.T) {
	g := New()
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		code, err := g.Code()
		require.NoError(t, err)
		assert.True(t, Valid(code), code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 190)
}

func TestCode_RejectsBiasedBytes(t *testing.T) {
	src := append(bytes.Repeat([]byte{255}, 14), bytes.Repeat([]byte{1}, 14)...)
	g := &Generator{rand: bytes.NewReader(src), attempts: MaxAttempts}

	code, err := g.Code()
	require.NoError(t, err)
	assert.Equal(t, "X1111111", code)
}

func TestUnique_RetriesOnCollision(t *testing.T) {
	calls := 0
	check := CheckerFunc(func(ctx context.Context, code string) (bool, error) {
		calls++
		return calls < 4, nil
	})

	code, err := New().Unique(context.Background(), check)
	require.NoError(t, err)
	assert.True(t, Valid(code))
	assert.Equal(t, 4, calls)
}

func TestUnique_Exhausted(t *testing.T) {
	calls := 0
	check := CheckerFunc(func(ctx context.Context, code string) (bool, error) {
		calls++
		return true, nil
	})

	_, err := New().Unique(context.Background(), check)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, MaxAttempts, calls)
}

func TestUnique_CheckerError(t *testing.T) {
	boom := errors.New("db down")
	_, err := New().Unique(context.Background(), CheckerFunc(func(context.Context, string) (bool, error) {
		return false, boom
	}))
	assert.ErrorIs(t, err, boom)
}

func TestStoreChecker(t *testing.T) {
	db := testutil.NewDB(t)
	sub := testutil.CreateSubscriber(t, db)
	check := StoreChecker(db)

	taken, err := check.Exists(context.Background(), sub.Telegram)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = check.Exists(context.Background(), "Xfree000")
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("Xab12cd3"))
	assert.False(t, Valid("Yab12cd3"))
	assert.False(t, Valid("XAB12CD3"))
	assert.False(t, Valid("Xab12cd"))
	assert.False(t, Valid(""))
}
