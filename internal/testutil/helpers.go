package testutil

import (
	"fmt"
	"testing"

	"golang.org/x/sync/errgroup"
)

// ReadConcurrently starts readers goroutines that each call read rounds
// times. A reader stops at its first error or panic, and the first failure
// across all readers fails the test.
func ReadConcurrently(t *testing.T, readers, rounds int, read func(reader int) error) {
	t.Helper()

	var g errgroup.Group

	for r := range readers {
		g.Go(func() (err error) {
			defer func() {
				if p := recover(); p != nil {
					err = fmt.Errorf("reader %d panicked: %v", r, p)
				}
			}()

			for range rounds {
				if err := read(r); err != nil {
					return fmt.Errorf("reader %d: %w", r, err)
				}
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		t.Error(err)
	}
}
