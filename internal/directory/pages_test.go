package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPagesStopsWithoutNext(t *testing.T) {
	t.Parallel()

	var loaded []int
	load := func(_ context.Context, n int) (Page, error) {
		loaded = append(loaded, n)
		return Page{Number: n, HasNext: n < 4}, nil
	}

	var got []int
	for page, err := range Pages(context.Background(), 100, load) {
		require.NoError(t, err)
		got = append(got, page.Number)
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, loaded)
}

func TestPagesLimitIsASafetyValve(t *testing.T) {
	t.Parallel()

	load := func(_ context.Context, n int) (Page, error) {
		return Page{Number: n, HasNext: true}, nil
	}

	var (
		pages   int
		lastErr error
	)
	for _, err := range Pages(context.Background(), 4, load) {
		if err != nil {
			lastErr = err
			continue
		}
		pages++
	}
	assert.Equal(t, 4, pages)
	assert.ErrorIs(t, lastErr, ErrPageLimit)
}

func TestPagesLimitNotReportedWhenListingEndsExactly(t *testing.T) {
	t.Parallel()

	load := func(_ context.Context, n int) (Page, error) {
		return Page{Number: n, HasNext: n < 3}, nil
	}
	for _, err := range Pages(context.Background(), 4, load) {
		require.NoError(t, err)
	}
}

func TestPagesLoadError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	load := func(_ context.Context, n int) (Page, error) {
		if n == 2 {
			return Page{}, boom
		}
		return Page{Number: n, HasNext: true}, nil
	}

	var errs []error
	pages := 0
	for _, err := range Pages(context.Background(), 100, load) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		pages++
	}
	assert.Equal(t, 2, pages)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], boom)
}

func TestPagesConsumerBreak(t *testing.T) {
	t.Parallel()

	calls := 0
	load := func(_ context.Context, n int) (Page, error) {
		calls++
		return Page{Number: n, HasNext: true}, nil
	}
	for page := range Pages(context.Background(), 100, load) {
		if page.Number == 1 {
			break
		}
	}
	assert.Equal(t, 2, calls)
}
