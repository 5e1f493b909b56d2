package session_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chriswritescode-dev/opencode-manager-sub001/pkg/session"
)

func TestService_ActivateIsOneShot(t *testing.T) {
	svc := session.NewService()

	assert.False(t, svc.IsActivated("s1"))
	assert.True(t, svc.Activate("s1"))
	assert.True(t, svc.IsActivated("s1"))

	// Repeat triggers in the same session report not-newly-set.
	assert.False(t, svc.Activate("s1"))

	// Other sessions are unaffected.
	assert.False(t, svc.IsActivated("s2"))
}

func TestService_ModeDefaultsToNormal(t *testing.T) {
	svc := session.NewService()

	assert.Equal(t, session.ModeNormal, svc.Mode("unknown"))

	svc.SetMode("s1", session.ModeCreative)
	assert.Equal(t, session.ModeCreative, svc.Mode("s1"))
	assert.Equal(t, session.ModeNormal, svc.Mode("s2"))
}

func TestService_PlanningState(t *testing.T) {
	svc := session.NewService()

	assert.Nil(t, svc.PlanningState("s1"))

	plan := map[string]int{"steps": 3}
	svc.SetPlanningState("s1", plan)
	assert.Equal(t, plan, svc.PlanningState("s1"))
}

func TestService_CompactionSnapshotRequiresLiveSession(t *testing.T) {
	svc := session.NewService()

	// A write for a session that never existed is discarded.
	svc.SetCompactionSnapshot("ghost", "summary")
	assert.Equal(t, "", svc.CompactionSnapshot("ghost"))
	_, exists := svc.Snapshot("ghost")
	assert.False(t, exists)

	svc.Activate("s1")
	svc.SetCompactionSnapshot("s1", "summary")
	assert.Equal(t, "summary", svc.CompactionSnapshot("s1"))
}

func TestService_ClearDiscardsLateAsyncWrites(t *testing.T) {
	svc := session.NewService()

	svc.Activate("s1")
	svc.Clear("s1")

	// An async result landing after teardown must not resurrect the session.
	svc.SetCompactionSnapshot("s1", "late result")
	_, exists := svc.Snapshot("s1")
	assert.False(t, exists)
	assert.False(t, svc.IsActivated("s1"))
}

func TestService_Reset(t *testing.T) {
	svc := session.NewService()

	svc.Activate("s1")
	svc.Activate("s2")
	assert.Equal(t, 2, svc.Len())

	svc.Reset()
	assert.Equal(t, 0, svc.Len())
}

func TestService_ConcurrentAccess(t *testing.T) {
	svc := session.NewService()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("session-%d", n%4)
			svc.Activate(id)
			svc.SetMode(id, session.ModeThorough)
			_ = svc.Mode(id)
			_ = svc.IsActivated(id)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 4, svc.Len())
}
