package classifier

import (
	"context"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// A file copied into the watched directory raises Create at size zero and
// grows across subsequent Write events. Classification waits until two
// consecutive size samples agree before reading the bytes.
const (
	settleInterval = 200 * time.Millisecond
	settleAttempts = 25
)

// Watch classifies image files as they appear in dir, invoking onRecord for
// each verdict. It blocks until the context is canceled or the watcher fails.
// Files present before the watch started are not re-processed; run a sweep
// first.
func (c *Classifier) Watch(ctx context.Context, dir string, onRecord func(Record)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return err
	}

	c.logger.Info("watching directory for new images", zap.String("dir", dir))

	seen := make(map[string]struct{})
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !SupportedImage(event.Name) {
				continue
			}
			if _, dup := seen[event.Name]; dup {
				continue
			}

			c.logger.Debug("new image detected", zap.String("file", event.Name))
			if !c.waitForSettled(ctx, event.Name) {
				// Not marked seen: a later Write event retries the file.
				c.logger.Warn("image never stabilized, skipping for now",
					zap.String("file", event.Name))
				continue
			}
			seen[event.Name] = struct{}{}
			onRecord(c.ClassifyFile(ctx, event.Name))

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

// waitForSettled polls the file size until two consecutive non-empty samples
// match. Returns false when the file keeps changing past the attempt budget,
// disappears, or the context is canceled.
func (c *Classifier) waitForSettled(ctx context.Context, path string) bool {
	ticker := time.NewTicker(settleInterval)
	defer ticker.Stop()

	var last int64 = -1
	for i := 0; i < settleAttempts; i++ {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}

		info, err := os.Stat(path)
		if err != nil {
			last = -1
			continue
		}
		if info.Size() > 0 && info.Size() == last {
			return true
		}
		last = info.Size()
	}
	return false
}
