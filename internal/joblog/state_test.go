package joblog_test

import (
	"testing"

	"github.com/JonahHouse/ElPaseoAuto/internal/domain"
	"github.com/JonahHouse/ElPaseoAuto/internal/joblog"
	"github.com/stretchr/testify/assert"
)

func TestValidateTransition(t *testing.T) {
	tests := []struct {
		from    domain.ScrapeStatus
		to      domain.ScrapeStatus
		wantErr bool
	}{
		{domain.ScrapeStatusRunning, domain.ScrapeStatusSyncing, false},
		{domain.ScrapeStatusRunning, domain.ScrapeStatusFailed, false},
		{domain.ScrapeStatusSyncing, domain.ScrapeStatusCompleted, false},
		{domain.ScrapeStatusSyncing, domain.ScrapeStatusFailed, false},
		{domain.ScrapeStatusRunning, domain.ScrapeStatusCompleted, true},
		{domain.ScrapeStatusSyncing, domain.ScrapeStatusRunning, true},
		{domain.ScrapeStatusCompleted, domain.ScrapeStatusFailed, true},
		{domain.ScrapeStatusFailed, domain.ScrapeStatusCompleted, true},
		{domain.ScrapeStatusFailed, domain.ScrapeStatusRunning, true},
		{domain.ScrapeStatus("paused"), domain.ScrapeStatusRunning, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			err := joblog.ValidateTransition(tt.from, tt.to)
			if tt.wantErr {
				assert.ErrorIs(t, err, joblog.ErrInvalidTransition)
				return
			}
			assert.NoError(t, err)
		})
	}
}
