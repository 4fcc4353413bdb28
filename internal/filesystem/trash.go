package filesystem

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"

	"github.com/google/uuid"

	"dupreview/internal/models"
)

// ErrTrashClosed is reported for requests made after Close.
var ErrTrashClosed = errors.New("trash is closed")

// Trash deletes files in the background. RequestDeletion never blocks the
// caller; Close waits for queued requests to finish.
type Trash struct {
	dir      string
	onDelete func(models.Asset, error)

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []models.Asset
	closed bool
	done   chan struct{}
}

// NewTrash starts the worker. Files are moved into dir, or removed outright
// when dir is empty. onDelete, when set, is called after each attempt.
func NewTrash(dir string, onDelete func(models.Asset, error)) (*Trash, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create trash dir: %w", err)
		}
	}
	t := &Trash{
		dir:      dir,
		done:     make(chan struct{}),
		onDelete: onDelete,
	}
	t.cond = sync.NewCond(&t.mu)
	go t.run()
	return t, nil
}

// RequestDeletion queues a. After Close the request is dropped and onDelete
// receives ErrTrashClosed.
func (t *Trash) RequestDeletion(a models.Asset) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		slog.Warn("Deletion requested after close", slog.String("path", a.Path))
		if t.onDelete != nil {
			t.onDelete(a, ErrTrashClosed)
		}
		return
	}
	t.queue = append(t.queue, a)
	t.mu.Unlock()
	t.cond.Signal()
	slog.Info("Queued for deletion", slog.String("path", a.Path))
}

// Close stops accepting requests and waits for the queue to drain.
func (t *Trash) Close() error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	t.cond.Broadcast()
	<-t.done
	return nil
}

// next blocks until a request is queued. ok is false once the trash is
// closed and drained.
func (t *Trash) next() (a models.Asset, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for len(t.queue) == 0 && !t.closed {
		t.cond.Wait()
	}
	if len(t.queue) == 0 {
		return models.Asset{}, false
	}
	a = t.queue[0]
	t.queue[0] = models.Asset{}
	t.queue = t.queue[1:]
	return a, true
}

func (t *Trash) run() {
	defer close(t.done)
	for {
		a, ok := t.next()
		if !ok {
			return
		}
		err := t.remove(a)
		if err != nil {
			slog.Error("Failed to delete file", slog.String("path", a.Path), slog.Any("error", err))
		} else {
			slog.Info("Deleted file", slog.String("path", a.Path), slog.String("trash", t.dir))
		}
		if t.onDelete != nil {
			t.onDelete(a, err)
		}
	}
}

func (t *Trash) remove(a models.Asset) error {
	if t.dir == "" {
		return os.Remove(a.Path)
	}
	dst := t.destination(a)
	err := os.Rename(a.Path, dst)
	if errors.Is(err, syscall.EXDEV) {
		return moveAcrossDevices(a.Path, dst)
	}
	return err
}

// destination keeps the file name behind a prefix: the asset id when the
// asset is catalogued, a random id otherwise or when the name is taken.
func (t *Trash) destination(a models.Asset) string {
	base := filepath.Base(a.Path)
	prefix := shortID()
	if a.ID != 0 {
		prefix = strconv.FormatInt(a.ID, 10)
	}
	dst := filepath.Join(t.dir, prefix+"_"+base)
	for {
		if _, err := os.Lstat(dst); err != nil {
			return dst
		}
		dst = filepath.Join(t.dir, prefix+"_"+shortID()+"_"+base)
	}
}

func shortID() string {
	return uuid.NewString()[:8]
}

func moveAcrossDevices(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy to trash: %w", err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
