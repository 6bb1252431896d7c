package seadata

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// ProgressBar returns a ProgressFunc that draws one byte-count bar per
// download on w and a line for each extraction and verification.
func ProgressBar(w io.Writer) ProgressFunc {
	var (
		mu      sync.Mutex
		bar     *progressbar.ProgressBar
		current string
	)
	return func(ev ProgressEvent) {
		mu.Lock()
		defer mu.Unlock()

		switch ev.Stage {
		case StageDownloading:
			key := fmt.Sprintf("%s#%d", ev.URL, ev.Attempt)
			if bar == nil || current != key {
				total := int64(ev.BytesTotal) //nolint:gosec // sizes fit in int64
				if total == 0 {
					total = -1
				}
				bar = progressbar.NewOptions64(total,
					progressbar.OptionSetWriter(w),
					progressbar.OptionSetDescription(describe(ev.Path)),
					progressbar.OptionSetWidth(30),
					progressbar.OptionShowBytes(true),
					progressbar.OptionThrottle(100*time.Millisecond),
					progressbar.OptionOnCompletion(func() {
						fmt.Fprintln(w)
					}),
				)
				current = key
			}
			_ = bar.Set64(int64(ev.BytesDone)) //nolint:gosec // sizes fit in int64
		case StageDone:
			if bar != nil {
				_ = bar.Finish()
				bar = nil
				current = ""
			}
		case StageExtracting, StageVerifying:
			fmt.Fprintf(w, "%s %s\n", ev.Stage, filepath.Base(ev.Path))
		}
	}
}

func describe(path string) string {
	name := filepath.Base(path)
	if len(name) > 40 {
		name = name[:37] + "..."
	}
	return name
}
