package monitor

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	gometrics "github.com/rcrowley/go-metrics"
	"go.uber.org/zap"

	"code.cloudfoundry.org/picogorouter/logger"
)

// FileDescriptor reports the process's open file descriptor count on every
// tick, as an ifrit-compatible Runner.
type FileDescriptor struct {
	path     string
	registry gometrics.Registry
	ticker   *time.Ticker
	log      logger.Logger
}

// NewFileDescriptor builds a FileDescriptor monitor scanning path (e.g.
// /proc/self/fd) on every ticker fire.
func NewFileDescriptor(path string, registry gometrics.Registry, ticker *time.Ticker, log logger.Logger) *FileDescriptor {
	return &FileDescriptor{path: path, registry: registry, ticker: ticker, log: log}
}

// Run implements ifrit.Runner.
func (f *FileDescriptor) Run(signals <-chan os.Signal, ready chan<- struct{}) error {
	gauge := gometrics.GetOrRegisterGaugeFloat64("file_descriptors", f.registry)
	close(ready)
	for {
		select {
		case <-f.ticker.C:
			count, err := f.count()
			if err != nil {
				f.log.Error("error-counting-file-descriptors", zap.Error(err))
				continue
			}
			gauge.Update(float64(count))
		case <-signals:
			f.log.Info("fd-monitor-exited")
			return nil
		}
	}
}

func (f *FileDescriptor) count() (int, error) {
	switch runtime.GOOS {
	case "linux":
		entries, err := os.ReadDir(f.path)
		if err != nil {
			return 0, err
		}
		return symlinks(entries), nil
	case "darwin":
		out, err := exec.Command("/bin/sh", "-c", fmt.Sprintf("lsof -p %d", os.Getpid())).Output()
		if err != nil {
			return 0, err
		}
		lines := strings.Split(string(out), "\n")
		return len(lines) - 1, nil
	default:
		return 0, nil
	}
}

func symlinks(entries []os.DirEntry) (count int) {
	for _, e := range entries {
		if e.Type()&os.ModeSymlink == os.ModeSymlink {
			count++
		}
	}
	return count
}
