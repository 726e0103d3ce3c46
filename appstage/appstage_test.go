package appstage

import (
	"testing"

	"github.com/veldtgames/veldt/assert"
)

func TestCanOperateOnZeroValue(t *testing.T) {
	stage := NewManager()
	gotStage := stage.Current()
	assert.Equal(t, Init, gotStage)

	gotStage = stage.Swap(ShutDown)
	assert.Equal(t, Init, gotStage)
}

func TestCanCompareAndSwapOnZeroValue(t *testing.T) {
	stage := NewManager()
	ok := stage.CompareAndSwap(ShutDown, ShutDown)
	assert.Check(t, !ok, "a fresh manager should be in Init")

	ok = stage.CompareAndSwap(Init, ShutDown)
	assert.Check(t, ok, "compare and swap should succeed with correct old value")

	assert.Equal(t, ShutDown, stage.Current())
}

func TestOnlyOneCompareAndSwapSuccess(t *testing.T) {
	successCh := make(chan bool)
	stage := NewManager()

	for i := 0; i < 10; i++ {
		go func() {
			ok := stage.CompareAndSwap(Init, ShutDown)
			successCh <- ok
		}()
	}

	successCount := 0
	failureCount := 0
	for i := 0; i < 10; i++ {
		if <-successCh {
			successCount++
		} else {
			failureCount++
		}
	}
	assert.Equal(t, 1, successCount)
	assert.Equal(t, 9, failureCount)
}

func TestNotifyOnStageFiresOnArrival(t *testing.T) {
	stage := NewManager()
	running := stage.NotifyOnStage(Running)

	select {
	case <-running:
		t.Fatal("notification fired before the stage was reached")
	default:
	}

	stage.Store(Running)
	<-running

	// A waiter registered while already at the stage arrives closed.
	<-stage.NotifyOnStage(Running)
}

func TestNotifyOnStageIgnoresPastStages(t *testing.T) {
	stage := NewManager()
	stage.Store(Ready)
	stage.Store(Running)

	ready := stage.NotifyOnStage(Ready)
	select {
	case <-ready:
		t.Fatal("stages visited before the call must not count")
	default:
	}
}
