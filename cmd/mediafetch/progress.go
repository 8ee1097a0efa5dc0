package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/Belphemur/MediaFetch/internal/services"
)

// progressDisplay renders one bar per item. Updates may arrive from the
// backend's progress goroutine.
type progressDisplay struct {
	mu      sync.Mutex
	out     io.Writer
	bar     *progressbar.ProgressBar
	current int
}

func newProgressDisplay(out io.Writer) *progressDisplay {
	return &progressDisplay{out: out, current: -1}
}

// OnProgress implements services.ProgressListener
func (d *progressDisplay) OnProgress(u services.ProgressUpdate) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if u.ItemIndex < 0 {
		return
	}
	if u.ItemIndex != d.current {
		d.finishLocked()
		d.current = u.ItemIndex
		d.bar = progressbar.NewOptions(100,
			progressbar.OptionSetWriter(d.out),
			progressbar.OptionSetDescription(fmt.Sprintf("[%d/%d] %s", u.ItemIndex+1, u.ItemCount, u.Title)),
			progressbar.OptionSetWidth(30),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(false),
		)
	}
	if u.Err != nil {
		d.bar.Describe(fmt.Sprintf("[%d/%d] %s (failed)", u.ItemIndex+1, u.ItemCount, u.Title))
	}
	_ = d.bar.Set(u.Bucket)
}

// Finish closes the last bar
func (d *progressDisplay) Finish() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.finishLocked()
}

func (d *progressDisplay) finishLocked() {
	if d.bar == nil {
		return
	}
	// the bar leaves the cursor on its own line
	_, _ = fmt.Fprintln(d.out)
	d.bar = nil
}
