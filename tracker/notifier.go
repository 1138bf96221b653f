package tracker

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/schollz/progressbar/v3"
)

// Notifier shows progress of a submitted transaction. Calls sharing one id
// refer to the same notification, later calls replace earlier message.
type Notifier interface {
	Loading(id, msg string)
	Success(id, msg string)
	Error(id, msg string)
}

// LogNotifier writes final results through logger and shows a spinner while
// a notification is loading.
type LogNotifier struct {
	out        io.Writer
	spinners   map[string]*spinner
	mu         sync.Mutex
	noSpinners bool
}

type spinner struct {
	bar  *progressbar.ProgressBar
	done chan struct{}
	wg   sync.WaitGroup
}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{
		out:      os.Stderr,
		spinners: map[string]*spinner{},
	}
}

// NewQuietNotifier returns a notifier that only logs, without spinners.
func NewQuietNotifier() *LogNotifier {
	n := NewLogNotifier()
	n.noSpinners = true
	return n
}

func (n *LogNotifier) Loading(id, msg string) {
	log.Info(msg)

	if n.noSpinners {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if s, ok := n.spinners[id]; ok {
		s.bar.Describe(msg)
		return
	}

	n.spinners[id] = n.startSpinner(msg)
}

func (n *LogNotifier) Success(id, msg string) {
	n.stopSpinner(id)
	log.Info(msg)
}

func (n *LogNotifier) Error(id, msg string) {
	n.stopSpinner(id)
	log.Error(msg)
}

func (n *LogNotifier) startSpinner(msg string) *spinner {
	bar := progressbar.NewOptions64(
		-1,
		progressbar.OptionSetWriter(n.out),
		progressbar.OptionSetDescription(msg),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionClearOnFinish(),
	)

	s := &spinner{bar: bar, done: make(chan struct{})}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				s.bar.Add(1)
			}
		}
	}()

	return s
}

func (n *LogNotifier) stopSpinner(id string) {
	n.mu.Lock()
	s, ok := n.spinners[id]
	delete(n.spinners, id)
	n.mu.Unlock()

	if !ok {
		return
	}

	close(s.done)
	s.wg.Wait()
	s.bar.Finish()
}
