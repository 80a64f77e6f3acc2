// Package joblog records the lifecycle of each sync run as a scrape log row.
package joblog

import (
	"errors"
	"fmt"
	"slices"

	"github.com/JonahHouse/ElPaseoAuto/internal/domain"
)

// ErrInvalidTransition is returned for a status change the lifecycle forbids.
var ErrInvalidTransition = errors.New("invalid scrape log transition")

// ErrStaleStatus is returned by a Repository when the stored row is no longer
// in the expected status.
var ErrStaleStatus = errors.New("scrape log status changed concurrently")

var transitions = map[domain.ScrapeStatus][]domain.ScrapeStatus{
	domain.ScrapeStatusRunning: {
		domain.ScrapeStatusSyncing,
		domain.ScrapeStatusFailed,
	},
	domain.ScrapeStatusSyncing: {
		domain.ScrapeStatusCompleted,
		domain.ScrapeStatusFailed,
	},
	domain.ScrapeStatusCompleted: {},
	domain.ScrapeStatusFailed:    {},
}

// ValidateTransition checks that a log may move from one status to another.
func ValidateTransition(from, to domain.ScrapeStatus) error {
	allowed, known := transitions[from]
	if !known {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, from)
	}
	if !slices.Contains(allowed, to) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, from, to)
	}
	return nil
}
