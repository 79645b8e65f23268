package monitoring

// Observer receives progress updates from batch operations.
// done counts processed items, total is the size of the batch.
type Observer interface {
	Progress(done, total int)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(done, total int)

// Progress calls f(done, total).
func (f ObserverFunc) Progress(done, total int) { f(done, total) }

// Discard is an Observer that ignores every update.
var Discard Observer = ObserverFunc(func(int, int) {})

// LogProgress reports progress through Logf roughly every step percent,
// plus the final item. A label identifies the batch in the log line.
type LogProgress struct {
	Label string
	Step  int

	lastPct int
}

// NewLogProgress returns a LogProgress that logs every 10 percent.
func NewLogProgress(label string) *LogProgress {
	return &LogProgress{Label: label, Step: 10}
}

// Progress implements Observer.
func (p *LogProgress) Progress(done, total int) {
	if total <= 0 {
		return
	}
	step := p.Step
	if step <= 0 {
		step = 10
	}
	if done <= 1 {
		p.lastPct = 0
	}
	pct := done * 100 / total
	if done == total || pct/step > p.lastPct/step {
		Logf("%s: %d/%d (%d%%)", p.Label, done, total, pct)
		p.lastPct = pct
	}
}
