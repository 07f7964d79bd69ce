package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockLockReleaser はLockReleaserのモック
type MockLockReleaser struct {
	mock.Mock
}

func (m *MockLockReleaser) ReleaseExpiredLocks(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func TestNewExpiredLockReaper(t *testing.T) {
	mockService := new(MockLockReleaser)
	interval := 1 * time.Minute

	reaper := NewExpiredLockReaper(mockService, interval)

	assert.NotNil(t, reaper)
	assert.Equal(t, interval, reaper.interval)
	assert.NotNil(t, reaper.stopCh)
	assert.NotNil(t, reaper.doneCh)
}

func TestExpiredLockReaper_Reap(t *testing.T) {
	t.Run("正常に回収が実行される", func(t *testing.T) {
		mockService := new(MockLockReleaser)
		mockService.On("ReleaseExpiredLocks", mock.Anything).Return(5, nil)

		reaper := NewExpiredLockReaper(mockService, 1*time.Minute)
		reaper.reap(context.Background())

		mockService.AssertExpectations(t)
	})

	t.Run("回収対象がない場合も正常に動作する", func(t *testing.T) {
		mockService := new(MockLockReleaser)
		mockService.On("ReleaseExpiredLocks", mock.Anything).Return(0, nil)

		reaper := NewExpiredLockReaper(mockService, 1*time.Minute)
		reaper.reap(context.Background())

		mockService.AssertExpectations(t)
	})

	t.Run("エラーが発生しても継続する", func(t *testing.T) {
		mockService := new(MockLockReleaser)
		mockService.On("ReleaseExpiredLocks", mock.Anything).Return(0, assert.AnError)

		reaper := NewExpiredLockReaper(mockService, 1*time.Minute)

		// パニックしないことを確認
		reaper.reap(context.Background())

		mockService.AssertExpectations(t)
	})
}

func TestExpiredLockReaper_StartStop(t *testing.T) {
	t.Run("開始と停止が正常に動作する", func(t *testing.T) {
		mockService := new(MockLockReleaser)
		mockService.On("ReleaseExpiredLocks", mock.Anything).Return(0, nil).Maybe()

		reaper := NewExpiredLockReaper(mockService, 50*time.Millisecond)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go reaper.Start(ctx)

		time.Sleep(120 * time.Millisecond)

		reaper.Stop()

		select {
		case <-reaper.doneCh:
			// 正常に終了
		case <-time.After(1 * time.Second):
			t.Error("reaper did not stop in time")
		}
	})

	t.Run("コンテキストキャンセルで停止する", func(t *testing.T) {
		mockService := new(MockLockReleaser)
		mockService.On("ReleaseExpiredLocks", mock.Anything).Return(0, nil).Maybe()

		reaper := NewExpiredLockReaper(mockService, 50*time.Millisecond)

		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan struct{})
		go func() {
			reaper.Start(ctx)
			close(done)
		}()

		time.Sleep(80 * time.Millisecond)
		cancel()

		select {
		case <-done:
			// 正常に終了
		case <-time.After(1 * time.Second):
			t.Error("reaper did not stop after context cancel")
		}
	})
}
