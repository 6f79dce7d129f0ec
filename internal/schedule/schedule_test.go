package schedule

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSpec_Validate(t *testing.T) {
	tests := []struct {
		name    string
		spec    Spec
		wantErr bool
	}{
		{name: "interval", spec: Spec{Every: time.Minute}},
		{name: "cron", spec: Spec{Cron: "*/5 * * * *"}},
		{name: "both", spec: Spec{Every: time.Minute, Cron: "* * * * *"}, wantErr: true},
		{name: "neither", spec: Spec{}, wantErr: true},
		{name: "negative", spec: Spec{Every: -time.Second}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestNew_InvalidCron(t *testing.T) {
	_, err := New(Spec{Cron: "not a cron"}, func() {})
	require.Error(t, err)
}

func TestScheduler_FiresOnInterval(t *testing.T) {
	var fired atomic.Int32
	s, err := New(Spec{Every: 50 * time.Millisecond}, func() { fired.Add(1) })
	require.NoError(t, err)
	require.NotEmpty(t, s.JobID())

	s.Start()
	require.Eventually(t, func() bool { return fired.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, s.Stop())
}

func TestScheduler_NextRun(t *testing.T) {
	s, err := New(Spec{Cron: "0 0 * * *"}, func() {})
	require.NoError(t, err)
	s.Start()
	t.Cleanup(func() { _ = s.Stop() })

	require.Eventually(t, func() bool {
		next, err := s.NextRun()
		return err == nil && next.After(time.Now())
	}, time.Second, 10*time.Millisecond)
}
