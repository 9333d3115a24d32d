package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// Reporter follows one upload or download at a time
type Reporter interface {
	// Start begins a transfer; total is -1 when the size is unknown
	Start(path string, total int64)
	// Update reports the bytes moved so far
	Update(done int64)
	Complete()
	Error(err error)
}

// UpdateType tells which Reporter call produced an Update
type UpdateType int

const (
	UpdateStart UpdateType = iota
	UpdateProgress
	UpdateComplete
	UpdateError
)

// Update is the state of the current transfer after a Reporter call
type Update struct {
	Type    UpdateType
	Path    string
	Bytes   int64
	Total   int64
	Elapsed time.Duration
	Err     error
}

// Rate returns the average speed in bytes per second
func (u Update) Rate() float64 {
	if u.Elapsed <= 0 {
		return 0
	}
	return float64(u.Bytes) / u.Elapsed.Seconds()
}

// Remaining estimates the time left, zero when unknown
func (u Update) Remaining() time.Duration {
	rate := u.Rate()
	if u.Total <= 0 || rate <= 0 || u.Bytes >= u.Total {
		return 0
	}
	return time.Duration(float64(u.Total-u.Bytes) / rate * float64(time.Second))
}

// Callback receives every update a CallbackReporter lets through
type Callback func(Update)

// CallbackReporter turns Reporter calls into Updates. With a non-zero
// interval, progress updates closer together than the interval are dropped
// unless they finish the transfer.
type CallbackReporter struct {
	fn       Callback
	interval time.Duration
	now      func() time.Time

	mu       sync.Mutex
	cur      Update
	started  time.Time
	lastEmit time.Time
}

// NewCallbackReporter reports every update to fn
func NewCallbackReporter(fn Callback) *CallbackReporter {
	return &CallbackReporter{fn: fn, now: time.Now}
}

// NewThrottledReporter reports to fn at most once per interval while a
// transfer is in progress
func NewThrottledReporter(fn Callback, interval time.Duration) *CallbackReporter {
	r := NewCallbackReporter(fn)
	r.interval = interval
	return r
}

func (r *CallbackReporter) Start(path string, total int64) {
	r.mu.Lock()
	r.started = r.now()
	r.lastEmit = time.Time{}
	r.cur = Update{Type: UpdateStart, Path: path, Total: total}
	u := r.cur
	r.mu.Unlock()

	r.emit(u)
}

func (r *CallbackReporter) Update(done int64) {
	r.mu.Lock()
	now := r.now()
	r.cur.Type = UpdateProgress
	r.cur.Bytes = done
	r.cur.Elapsed = now.Sub(r.started)
	finished := r.cur.Total > 0 && done >= r.cur.Total
	if r.interval > 0 && !finished && !r.lastEmit.IsZero() && now.Sub(r.lastEmit) < r.interval {
		r.mu.Unlock()
		return
	}
	r.lastEmit = now
	u := r.cur
	r.mu.Unlock()

	r.emit(u)
}

func (r *CallbackReporter) Complete() {
	r.mu.Lock()
	r.cur.Type = UpdateComplete
	r.cur.Elapsed = r.now().Sub(r.started)
	if r.cur.Total < 0 {
		r.cur.Total = r.cur.Bytes
	}
	u := r.cur
	r.mu.Unlock()

	r.emit(u)
}

func (r *CallbackReporter) Error(err error) {
	r.mu.Lock()
	r.cur.Type = UpdateError
	r.cur.Err = err
	r.cur.Elapsed = r.now().Sub(r.started)
	u := r.cur
	r.mu.Unlock()

	r.emit(u)
}

// emit runs outside the lock so callbacks may call back into the reporter
func (r *CallbackReporter) emit(u Update) {
	if r.fn != nil {
		r.fn(u)
	}
}

// NewBarReporter draws a one-line transfer bar on w, redrawn at most ten
// times a second
func NewBarReporter(w io.Writer, width int) *CallbackReporter {
	return NewThrottledReporter(func(u Update) {
		switch u.Type {
		case UpdateProgress:
			fmt.Fprintf(w, "\r\033[K%s", Line(u, width))
		case UpdateComplete:
			fmt.Fprintf(w, "\r\033[K%s %s in %s\n", u.Path, FormatBytes(u.Bytes), u.Elapsed.Round(time.Millisecond))
		case UpdateError:
			fmt.Fprintf(w, "\r\033[K%s failed after %s: %v\n", u.Path, FormatBytes(u.Bytes), u.Err)
		}
	}, 100*time.Millisecond)
}

// Line renders an in-progress update: bar, bytes, speed and ETA when the
// size is known, bytes and speed otherwise
func Line(u Update, width int) string {
	speed := FormatBytes(int64(u.Rate())) + "/s"
	if u.Total <= 0 {
		return fmt.Sprintf("%s %s", FormatBytes(u.Bytes), speed)
	}
	line := fmt.Sprintf("%s %s/%s %s", Bar(u.Bytes, u.Total, width), FormatBytes(u.Bytes), FormatBytes(u.Total), speed)
	if eta := u.Remaining(); eta > 0 {
		line += " eta " + eta.Round(time.Second).String()
	}
	return line
}

// Bar renders "[=====>    ]  52.0%"
func Bar(done, total int64, width int) string {
	if total <= 0 || width <= 0 {
		return ""
	}
	frac := float64(done) / float64(total)
	if frac > 1 {
		frac = 1
	}
	filled := int(frac * float64(width))

	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(strings.Repeat("=", filled))
	if filled < width {
		b.WriteByte('>')
		b.WriteString(strings.Repeat(" ", width-filled-1))
	}
	fmt.Fprintf(&b, "] %5.1f%%", frac*100)
	return b.String()
}

// FormatBytes formats a byte count with IEC units, "?" when negative
func FormatBytes(n int64) string {
	if n < 0 {
		return "?"
	}
	return humanize.IBytes(uint64(n))
}

// Reader counts the bytes read through it and reports the running total
type Reader struct {
	r   io.Reader
	rep Reporter
	n   int64
}

func NewReader(r io.Reader, rep Reporter) *Reader {
	return &Reader{r: r, rep: rep}
}

func (pr *Reader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	if n > 0 {
		pr.n += int64(n)
		if pr.rep != nil {
			pr.rep.Update(pr.n)
		}
	}
	return n, err
}

// N returns the bytes read so far
func (pr *Reader) N() int64 { return pr.n }

// Writer counts the bytes written through it and reports the running total
type Writer struct {
	w   io.Writer
	rep Reporter
	n   int64
}

func NewWriter(w io.Writer, rep Reporter) *Writer {
	return &Writer{w: w, rep: rep}
}

func (pw *Writer) Write(p []byte) (int, error) {
	n, err := pw.w.Write(p)
	if n > 0 {
		pw.n += int64(n)
		if pw.rep != nil {
			pw.rep.Update(pw.n)
		}
	}
	return n, err
}

// N returns the bytes written so far
func (pw *Writer) N() int64 { return pw.n }

// NullReporter discards progress
type NullReporter struct{}

func (NullReporter) Start(string, int64) {}
func (NullReporter) Update(int64)        {}
func (NullReporter) Complete()           {}
func (NullReporter) Error(error)         {}
