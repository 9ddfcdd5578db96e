package monitoring

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
)

// TempSweeper deletes stale files from the multipart staging directory.
// Files normally disappear right after upload; anything left behind is a
// crashed or abandoned request.
type TempSweeper struct {
	dir      string
	maxAge   time.Duration
	schedule cron.Schedule
	done     chan bool
}

// NewTempSweeper creates a sweeper for dir, removing files older than
// maxAge on the given standard cron schedule.
func NewTempSweeper(dir, cronSpec string, maxAge time.Duration) (*TempSweeper, error) {
	schedule, err := cron.ParseStandard(cronSpec)
	if err != nil {
		return nil, err
	}
	return &TempSweeper{
		dir:      dir,
		maxAge:   maxAge,
		schedule: schedule,
		done:     make(chan bool),
	}, nil
}

// Run starts the sweeping loop.
func (s *TempSweeper) Run() {
	log.Println("Starting temp upload sweeper...")

	// Run once immediately on start
	s.sweep()

	for {
		timer := time.NewTimer(time.Until(s.schedule.Next(time.Now())))
		select {
		case <-s.done:
			timer.Stop()
			log.Println("Stopping temp upload sweeper.")
			return
		case <-timer.C:
			s.sweep()
		}
	}
}

// Stop halts the sweeper.
func (s *TempSweeper) Stop() {
	s.done <- true
}

func (s *TempSweeper) sweep() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Sweeper: failed to read staging dir: %v", err)
		}
		return
	}

	cutoff := time.Now().Add(-s.maxAge)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			path := filepath.Join(s.dir, entry.Name())
			if err := os.Remove(path); err != nil {
				log.Printf("Sweeper: failed to remove %s: %v", path, err)
			}
		}
	}
}
