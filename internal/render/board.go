package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"TradeLens/internal/chart"
)

var ErrUnknownContainer = errors.New("unknown container")

// Container is a handle to one chart slot.
type Container interface {
	ID() string
	Clear() error
	Mount(opts *chart.Options) error
}

// Replacer is a Container that can swap its chart in one step, so readers
// never observe the slot empty between Clear and Mount.
type Replacer interface {
	Replace(opts *chart.Options) error
}

// Board looks up containers by id and lists what is mounted.
type Board interface {
	Container(id string) (Container, error)
	Charts() []Mounted
}

// Mounted is a chart currently shown in a container.
type Mounted struct {
	ID      string
	Options *chart.Options
}

// MemoryBoard keeps charts in process. It is safe for concurrent use, but
// concurrent cycles writing the same ids may interleave.
type MemoryBoard struct {
	mu     sync.RWMutex
	ids    map[string]bool
	charts map[string]*chart.Options
}

// NewMemoryBoard creates a board with the given container ids. With no ids
// any id is accepted.
func NewMemoryBoard(ids ...string) *MemoryBoard {
	b := &MemoryBoard{charts: make(map[string]*chart.Options)}
	if len(ids) > 0 {
		b.ids = make(map[string]bool, len(ids))
		for _, id := range ids {
			b.ids[id] = true
		}
	}
	return b
}

func (b *MemoryBoard) Container(id string) (Container, error) {
	if b.ids != nil && !b.ids[id] {
		return nil, fmt.Errorf("%w: %s", ErrUnknownContainer, id)
	}
	return &memoryContainer{board: b, id: id}, nil
}

// Get returns the chart mounted in id.
func (b *MemoryBoard) Get(id string) (*chart.Options, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	opts, ok := b.charts[id]
	return opts, ok
}

func (b *MemoryBoard) Charts() []Mounted {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Mounted, 0, len(b.charts))
	for id, opts := range b.charts {
		out = append(out, Mounted{ID: id, Options: opts})
	}
	sortMounted(out)
	return out
}

type memoryContainer struct {
	board *MemoryBoard
	id    string
}

func (c *memoryContainer) ID() string { return c.id }

func (c *memoryContainer) Clear() error {
	c.board.mu.Lock()
	defer c.board.mu.Unlock()
	delete(c.board.charts, c.id)
	return nil
}

func (c *memoryContainer) Mount(opts *chart.Options) error {
	c.board.mu.Lock()
	defer c.board.mu.Unlock()
	c.board.charts[c.id] = opts
	return nil
}

// Replace overwrites the slot under a single lock.
func (c *memoryContainer) Replace(opts *chart.Options) error {
	return c.Mount(opts)
}

// DirBoard stores each container as <dir>/<id>.json.
type DirBoard struct {
	Dir string
}

// NewDirBoard creates dir if needed.
func NewDirBoard(dir string) (*DirBoard, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &DirBoard{Dir: dir}, nil
}

func (b *DirBoard) Container(id string) (Container, error) {
	if id == "" || filepath.Base(id) != id {
		return nil, fmt.Errorf("%w: %q", ErrUnknownContainer, id)
	}
	return &fileContainer{path: filepath.Join(b.Dir, id+".json"), id: id}, nil
}

func (b *DirBoard) Charts() []Mounted {
	matches, _ := filepath.Glob(filepath.Join(b.Dir, "*.json"))
	out := make([]Mounted, 0, len(matches))
	for _, m := range matches {
		data, err := os.ReadFile(m)
		if err != nil {
			continue
		}
		var opts chart.Options
		if err := json.Unmarshal(data, &opts); err != nil {
			continue
		}
		id := filepath.Base(m)
		out = append(out, Mounted{ID: id[:len(id)-len(".json")], Options: &opts})
	}
	sortMounted(out)
	return out
}

type fileContainer struct {
	path string
	id   string
}

func (c *fileContainer) ID() string { return c.id }

func (c *fileContainer) Clear() error {
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Replace relies on the rename in Mount, which swaps the file atomically.
func (c *fileContainer) Replace(opts *chart.Options) error {
	return c.Mount(opts)
}

func (c *fileContainer) Mount(opts *chart.Options) error {
	data, err := json.MarshalIndent(opts, "", "  ")
	if err != nil {
		return err
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, c.path)
}

// containerOrder keeps the four trade charts in render order on pages.
var containerOrder = map[string]int{
	"chartDaily":   0,
	"chartWeekly":  1,
	"chartMonthly": 2,
	"chartSP500":   3,
}

func sortMounted(m []Mounted) {
	sort.SliceStable(m, func(i, j int) bool {
		oi, okI := containerOrder[m[i].ID]
		oj, okJ := containerOrder[m[j].ID]
		switch {
		case okI && okJ:
			return oi < oj
		case okI != okJ:
			return okI
		default:
			return m[i].ID < m[j].ID
		}
	})
}
