package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calendario-local/internal/service"
)

func TestSchedulerService_ScheduleCron(t *testing.T) {
	tests := []struct {
		spec    string
		wantErr bool
	}{
		{"0 0 3 * * *", false},
		{"@every 1h", false},
		{"@daily", false},
		{"03:30", false},
		{"", true},
		{"25:00", true},
		{"12:75", true},
		{"not a schedule", true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			s := service.NewSchedulerService(time.UTC)
			_, err := s.ScheduleCron(tt.spec, func() {})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSchedulerService_DailyShorthand(t *testing.T) {
	s := service.NewSchedulerService(time.UTC)
	id, err := s.ScheduleCron("03:30", func() {})
	require.NoError(t, err)

	s.Start()
	defer s.Stop()

	next := s.Next(id)
	require.False(t, next.IsZero())
	assert.Equal(t, 3, next.Hour())
	assert.Equal(t, 30, next.Minute())
	assert.Equal(t, 0, next.Second())
}

func TestSchedulerService_RunsJob(t *testing.T) {
	s := service.NewSchedulerService(time.UTC)
	ran := make(chan struct{}, 1)
	_, err := s.ScheduleCron("@every 1s", func() {
		select {
		case ran <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)

	s.Start()
	defer s.Stop()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}
}
