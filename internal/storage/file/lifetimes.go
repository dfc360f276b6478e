package file

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/talecache/talecache/pkg/types"
	"github.com/talecache/talecache/pkg/utils"
)

// lifeTimes is the in-memory copy of the lifetimes file: key to lifetime
// in whole seconds. It remembers the file's size and mtime so that writes
// by other adapters on the same directory are picked up.
type lifeTimes struct {
	path    string
	entries map[string]int64
	modTime time.Time
	size    int64
	onDisk  bool
}

func newLifeTimes(path string) *lifeTimes {
	return &lifeTimes{path: path, entries: make(map[string]int64)}
}

// load replaces the table with the file content. A missing or unreadable
// file yields an empty table.
func (l *lifeTimes) load(f types.Format, logger *utils.StructuredLogger) {
	l.entries = make(map[string]int64)

	info, err := os.Stat(l.path)
	if err != nil {
		l.onDisk = false
		if !os.IsNotExist(err) {
			logger.Warn("cannot stat lifetimes file", map[string]interface{}{"error": err.Error()})
		}
		return
	}
	l.remember(info)

	raw, err := f.Load(l.path)
	if err != nil {
		logger.Warn("ignoring unreadable lifetimes file", map[string]interface{}{"error": err.Error()})
		return
	}

	table, ok := raw.(map[string]any)
	if !ok {
		logger.Warn("ignoring malformed lifetimes file", map[string]interface{}{"type": fmt.Sprintf("%T", raw)})
		return
	}

	for key, value := range table {
		if seconds, ok := toSeconds(value); ok {
			l.entries[key] = seconds
		}
	}
}

// refresh reloads the table when the file changed since it was last seen.
func (l *lifeTimes) refresh(f types.Format, logger *utils.StructuredLogger) {
	info, err := os.Stat(l.path)
	if err != nil {
		if l.onDisk && os.IsNotExist(err) {
			logger.Debug("lifetimes file disappeared, resetting table")
			l.reset()
		}
		return
	}
	if l.onDisk && info.ModTime().Equal(l.modTime) && info.Size() == l.size {
		return
	}
	logger.Debug("lifetimes file changed on disk, reloading")
	l.load(f, logger)
}

func (l *lifeTimes) save(f types.Format) error {
	table := make(map[string]any, len(l.entries))
	for key, seconds := range l.entries {
		table[key] = seconds
	}
	if err := f.Save(l.path, table); err != nil {
		return err
	}
	if info, err := os.Stat(l.path); err == nil {
		l.remember(info)
	}
	return nil
}

func (l *lifeTimes) remember(info os.FileInfo) {
	l.modTime = info.ModTime()
	l.size = info.Size()
	l.onDisk = true
}

func (l *lifeTimes) reset() {
	l.entries = make(map[string]int64)
	l.modTime = time.Time{}
	l.size = 0
	l.onDisk = false
}

func (l *lifeTimes) clone() *lifeTimes {
	c := *l
	c.entries = make(map[string]int64, len(l.entries))
	for key, seconds := range l.entries {
		c.entries[key] = seconds
	}
	return &c
}

func toSeconds(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int64(v), true
	default:
		return 0, false
	}
}
