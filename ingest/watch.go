package ingest

import (
	"context"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long the watcher waits after the last file event
// before starting a run, so a bulk copy into the directory triggers one run
// instead of hundreds.
const DefaultSettle = 2 * time.Second

// Watch ingests dir once, then keeps watching it and re-runs the pipeline
// whenever new product files settle. Dedup makes the re-runs cheap: only ids
// not yet stored cost model calls.
//
// Watch blocks until ctx is cancelled or a run fails.
func (p *Pipeline) Watch(ctx context.Context, dir string, settle time.Duration) error {
	if settle <= 0 {
		settle = DefaultSettle
	}

	if _, err := p.Run(ctx, dir); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return err
	}
	p.logger.Info("watching for new product files", "dir", dir)

	// The timer fires once events stop arriving for a settle period.
	timer := time.NewTimer(settle)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, ".json") {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			timer.Reset(settle)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			p.logger.Warn("watcher error", "err", err)

		case <-timer.C:
			if _, err := p.Run(ctx, dir); err != nil {
				return err
			}
		}
	}
}
