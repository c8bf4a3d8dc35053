package media

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// DirDevice replays still images from a directory as a camera feed, one file
// per Frame call, looping at the end. It lets the CLI run without a webcam.
type DirDevice struct {
	Dir string
}

func (d DirDevice) Open(_ context.Context) (Feed, error) {
	entries, err := os.ReadDir(d.Dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png":
			files = append(files, filepath.Join(d.Dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no frames in %s", d.Dir)
	}
	slices.Sort(files)
	return &dirFeed{files: files}, nil
}

type dirFeed struct {
	mu    sync.Mutex
	files []string
	next  int
}

func (f *dirFeed) Frame() (image.Image, error) {
	f.mu.Lock()
	path := f.files[f.next%len(f.files)]
	f.next++
	f.mu.Unlock()

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

func (f *dirFeed) Close() error { return nil }
