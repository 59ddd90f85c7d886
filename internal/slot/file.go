package slot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/cart"
)

const blobExt = ".json"

// File stores one JSON file per key in a directory. Writes go through a
// temporary file and a rename so readers never see a partial blob.
type File struct {
	dir string
	log zerolog.Logger
}

func NewFile(dir string, logger zerolog.Logger) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create slot dir: %w", err)
	}
	return &File{dir: dir, log: logger}, nil
}

func (f *File) path(key string) string {
	return filepath.Join(f.dir, url.QueryEscape(key)+blobExt)
}

// keyOf maps a file name back to its slot key. Temporary files and foreign
// files are rejected.
func keyOf(name string) (string, bool) {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") || !strings.HasSuffix(base, blobExt) {
		return "", false
	}
	key, err := url.QueryUnescape(strings.TrimSuffix(base, blobExt))
	if err != nil {
		return "", false
	}
	return key, true
}

func (f *File) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := os.ReadFile(f.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, cart.ErrSlotEmpty
		}
		return nil, err
	}
	return b, nil
}

func (f *File) Put(ctx context.Context, key string, blob []byte) error {
	tmp, err := os.CreateTemp(f.dir, ".slot-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path(key))
}

// Changes watches the slot directory and reports the key of every blob that
// is created or rewritten, by this process or any other.
func (f *File) Changes(ctx context.Context) (<-chan string, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(f.dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", f.dir, err)
	}

	out := make(chan string, feedBuffer)
	go func() {
		defer close(out)
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) {
					continue
				}
				key, ok := keyOf(ev.Name)
				if !ok {
					continue
				}
				select {
				case out <- key:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				f.log.Warn().Err(err).Str("dir", f.dir).Msg("slot watcher error")
			}
		}
	}()
	return out, nil
}
