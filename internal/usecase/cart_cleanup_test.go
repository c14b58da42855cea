package usecase_test

import (
	"context"
	"testing"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCartCleaner_Clean_RemovesMarker(t *testing.T) {
	carts := new(CartRepoMock)
	cleanups := new(CleanupRepoMock)
	c := usecase.NewCartCleaner(carts, cleanups, fixedClock{testNow}, time.Minute, 5, nopLogger())

	task := model.CartCleanupTask{ID: "t1", OrderID: "o1", UserID: "u", ProductIDs: []int64{1, 2}}
	carts.On("DeleteByProductIDs", mock.Anything, "u", []int64{1, 2}).Return(int64(2), nil)
	cleanups.On("Delete", mock.Anything, "t1").Return(nil)

	require.NoError(t, c.Clean(context.Background(), task))
	cleanups.AssertExpectations(t)
}

func TestCartCleaner_Clean_BackoffGrowsWithAttempts(t *testing.T) {
	carts := new(CartRepoMock)
	cleanups := new(CleanupRepoMock)
	c := usecase.NewCartCleaner(carts, cleanups, fixedClock{testNow}, time.Minute, 5, nopLogger())

	task := model.CartCleanupTask{ID: "t1", UserID: "u", ProductIDs: []int64{1}, Attempts: 2}
	carts.On("DeleteByProductIDs", mock.Anything, "u", []int64{1}).Return(int64(0), assert.AnError)
	cleanups.On("MarkFailed", mock.Anything, "t1", assert.AnError.Error(), testNow.Add(3*time.Minute)).Return(nil).Once()

	assert.Error(t, c.Clean(context.Background(), task))
	cleanups.AssertExpectations(t)
}

func TestCartCleaner_Clean_GivesUpAfterMaxAttempts(t *testing.T) {
	carts := new(CartRepoMock)
	cleanups := new(CleanupRepoMock)
	c := usecase.NewCartCleaner(carts, cleanups, fixedClock{testNow}, time.Minute, 3, nopLogger())

	task := model.CartCleanupTask{ID: "t1", UserID: "u", ProductIDs: []int64{1}, Attempts: 2}
	carts.On("DeleteByProductIDs", mock.Anything, "u", []int64{1}).Return(int64(0), assert.AnError)
	cleanups.On("Delete", mock.Anything, "t1").Return(nil).Once()

	assert.Error(t, c.Clean(context.Background(), task))
	cleanups.AssertNotCalled(t, "MarkFailed", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCartCleaner_ProcessDue(t *testing.T) {
	carts := new(CartRepoMock)
	cleanups := new(CleanupRepoMock)
	c := usecase.NewCartCleaner(carts, cleanups, fixedClock{testNow}, time.Minute, 5, nopLogger())

	cleanups.On("ListDue", mock.Anything, testNow, 10).Return([]model.CartCleanupTask{
		{ID: "t1", UserID: "a", ProductIDs: []int64{1}},
		{ID: "t2", UserID: "b", ProductIDs: []int64{2}},
	}, nil)
	carts.On("DeleteByProductIDs", mock.Anything, "a", []int64{1}).Return(int64(1), nil)
	carts.On("DeleteByProductIDs", mock.Anything, "b", []int64{2}).Return(int64(0), assert.AnError)
	cleanups.On("Delete", mock.Anything, "t1").Return(nil)
	cleanups.On("MarkFailed", mock.Anything, "t2", mock.Anything, mock.Anything).Return(nil)

	n, err := c.ProcessDue(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCartCleaner_ProcessDue_ListFailure(t *testing.T) {
	cleanups := new(CleanupRepoMock)
	c := usecase.NewCartCleaner(new(CartRepoMock), cleanups, fixedClock{testNow}, time.Minute, 5, nopLogger())
	cleanups.On("ListDue", mock.Anything, testNow, 10).Return(nil, assert.AnError)

	_, err := c.ProcessDue(context.Background(), 10)
	assert.Error(t, err)
}

// 作成直後のマーカーはワーカーの対象にならない
func TestCartCleaner_FirstAttemptAt(t *testing.T) {
	c := usecase.NewCartCleaner(new(CartRepoMock), new(CleanupRepoMock), fixedClock{testNow}, time.Minute, 5, nopLogger())
	assert.Equal(t, testNow.Add(time.Minute), c.FirstAttemptAt(testNow))
}
