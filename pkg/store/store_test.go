package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]History {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return map[string]History{
		"memory": New(),
		"sqlite": db,
	}
}

func TestRecordAndGet(t *testing.T) {
	ctx := context.Background()
	for name, h := range backends(t) {
		t.Run(name, func(t *testing.T) {
			c, err := h.Record(ctx, &Calculation{
				Expression: "2+3x4",
				Tokens:     []string{"2", "+", "3", "x", "4"},
				Postfix:    []string{"2", "3", "4", "x", "+"},
				Result:     "14",
			})
			require.NoError(t, err)
			assert.NotEmpty(t, c.ID)
			assert.False(t, c.CreateTime.IsZero())

			got, err := h.Get(ctx, c.ID)
			require.NoError(t, err)
			assert.Equal(t, c.ID, got.ID)
			assert.Equal(t, "2+3x4", got.Expression)
			assert.Equal(t, []string{"2", "+", "3", "x", "4"}, got.Tokens)
			assert.Equal(t, []string{"2", "3", "4", "x", "+"}, got.Postfix)
			assert.Equal(t, "14", got.Result)
			assert.Empty(t, got.Error)
			assert.True(t, c.CreateTime.Equal(got.CreateTime))
		})
	}
}

func TestRecordKeepsGivenIDAndTime(t *testing.T) {
	ctx := context.Background()
	when := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for name, h := range backends(t) {
		t.Run(name, func(t *testing.T) {
			c, err := h.Record(ctx, &Calculation{ID: "fixed", Tokens: []string{"7"}, Result: "7", CreateTime: when})
			require.NoError(t, err)
			assert.Equal(t, "fixed", c.ID)
			assert.True(t, when.Equal(c.CreateTime))

			_, err = h.Record(ctx, &Calculation{ID: "fixed", Tokens: []string{"8"}, Result: "8"})
			assert.Error(t, err)
		})
	}
}

func TestGetNotFound(t *testing.T) {
	for name, h := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := h.Get(context.Background(), "missing")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestListNewestFirst(t *testing.T) {
	ctx := context.Background()
	for name, h := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, r := range []string{"1", "2", "3", "4"} {
				_, err := h.Record(ctx, &Calculation{Tokens: []string{r}, Result: r})
				require.NoError(t, err)
			}

			all, err := h.List(ctx, 0)
			require.NoError(t, err)
			require.Len(t, all, 4)
			assert.Equal(t, "4", all[0].Result)
			assert.Equal(t, "1", all[3].Result)

			two, err := h.List(ctx, 2)
			require.NoError(t, err)
			require.Len(t, two, 2)
			assert.Equal(t, "4", two[0].Result)
			assert.Equal(t, "3", two[1].Result)
		})
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	for name, h := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := h.Record(ctx, &Calculation{Tokens: []string{"1"}, Result: "1"})
			require.NoError(t, err)
			_, err = h.Record(ctx, &Calculation{Tokens: []string{"2"}, Result: "2"})
			require.NoError(t, err)

			n, err := h.Clear(ctx)
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			all, err := h.List(ctx, 0)
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	c, err := s.Record(ctx, &Calculation{Tokens: []string{"1"}, Result: "1"})
	require.NoError(t, err)
	c.Result = "changed"

	got, err := s.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "1", got.Result)
}

func TestMemoryStoreCopiesTokenSlices(t *testing.T) {
	ctx := context.Background()
	s := New()
	in := &Calculation{Tokens: []string{"1", "+", "2"}, Postfix: []string{"1", "2", "+"}, Result: "3"}
	c, err := s.Record(ctx, in)
	require.NoError(t, err)

	in.Tokens[0] = "9"
	c.Tokens[1] = "x"
	c.Postfix[2] = "x"

	got, err := s.Get(ctx, c.ID)
	require.NoError(t, err)
	got.Tokens[2] = "7"

	list, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	list[0].Postfix[0] = "5"

	stored, err := s.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "+", "2"}, stored.Tokens)
	assert.Equal(t, []string{"1", "2", "+"}, stored.Postfix)
}

func TestSQLitePersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	db, err := OpenSQLite(path)
	require.NoError(t, err)
	c, err := db.Record(ctx, &Calculation{Tokens: []string{"√", "9"}, Result: "3"})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = OpenSQLite(path)
	require.NoError(t, err)
	defer db.Close()

	got, err := db.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "3", got.Result)
	assert.Equal(t, []string{"√", "9"}, got.Tokens)
}
