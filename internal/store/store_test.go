package store_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/quotex-api/internal/store"
)

func TestPageWindow(t *testing.T) {
	start, end := store.NewPage(2, 10).Window(25)
	require.Equal(t, 10, start)
	require.Equal(t, 20, end)

	start, end = store.NewPage(3, 10).Window(25)
	require.Equal(t, 20, start)
	require.Equal(t, 25, end)

	start, end = store.NewPage(9, 10).Window(25)
	require.Equal(t, 25, start)
	require.Equal(t, 25, end)

	start, end = store.Page{}.Window(7)
	require.Equal(t, 0, start)
	require.Equal(t, 7, end)
}
