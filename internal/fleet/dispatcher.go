package fleet

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/rileyhilliard/mecfleet/internal/device"
	"github.com/rileyhilliard/mecfleet/internal/errors"
	"github.com/rileyhilliard/mecfleet/internal/logger"
)

// Gate confirms a destructive action before any device is touched.
type Gate interface {
	Challenge(length int) error
}

// Stats counts what a run did with the requested ids.
type Stats struct {
	Dispatched int
	Skipped    int
}

// Dispatcher runs one action over a scope of device ids.
type Dispatcher struct {
	Registry device.Registry
	Gate     Gate
	// ConfirmLength is the challenge code length for destructive actions.
	ConfirmLength int
	// Parallel bounds concurrent devices. 0 or 1 runs strictly in ascending id order.
	Parallel int
	Log      logger.Logger
	// Out receives the per-device operation header. Defaults to os.Stdout.
	Out io.Writer

	mu sync.Mutex
}

// Run confirms destructive actions once, then applies action to every known id.
//
// Unknown ids are logged and skipped. Each id runs at most once. Device
// failures are recorded by the operation itself and never abort the run.
// Cancelling ctx stops new devices from being dispatched; devices already
// running finish and record their outcome.
func (d *Dispatcher) Run(ctx context.Context, action Action, ids []int) (Stats, error) {
	log := d.Log
	if log == nil {
		log = logger.Noop()
	}

	var stats Stats

	if action.Destructive {
		if d.Gate == nil {
			return stats, errors.New(errors.ErrAborted,
				fmt.Sprintf("Action %q needs confirmation but no prompt is available", action.Kind),
				"This shouldn't happen - please report this bug!")
		}
		if err := d.Gate.Challenge(d.ConfirmLength); err != nil {
			return stats, err
		}
	}

	var devices []*device.Descriptor
	for _, id := range uniqueSorted(ids) {
		dev, ok := d.Registry.Get(id)
		if !ok {
			log.Warn("device with id=%d does not exist", id)
			stats.Skipped++
			continue
		}
		devices = append(devices, dev)
	}

	if d.Parallel <= 1 {
		for _, dev := range devices {
			if ctx.Err() != nil {
				break
			}
			d.runOne(action, dev)
			stats.Dispatched++
		}
	} else {
		var dispatched atomic.Int64
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(d.Parallel)
		for _, dev := range devices {
			if gctx.Err() != nil {
				break
			}
			// g.Go blocks for a free slot; cancellation may land while waiting.
			g.Go(func() error {
				if gctx.Err() != nil {
					return nil
				}
				dispatched.Add(1)
				d.runOne(action, dev)
				return nil
			})
		}
		_ = g.Wait()
		stats.Dispatched = int(dispatched.Load())
	}

	if err := ctx.Err(); err != nil && stats.Dispatched < len(devices) {
		log.Warn("run interrupted after %d of %d devices", stats.Dispatched, len(devices))
		return stats, errors.WrapWithCode(err, errors.ErrAborted,
			fmt.Sprintf("Run interrupted after %d of %d devices", stats.Dispatched, len(devices)), "")
	}
	return stats, nil
}

func (d *Dispatcher) runOne(action Action, dev *device.Descriptor) {
	d.mu.Lock()
	out := d.Out
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintf(out, "Operation %q on %s\n", action.Kind, dev.Info())
	d.mu.Unlock()

	action.Run(dev)
}

func uniqueSorted(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}
