/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package config

import (
	"fmt"

	"github.com/fsnotify/fsnotify"

	"github.com/sabouaram/netlinkmon/errors"
)

const errWatch = errors.MinPkgConfig + 100

// ReloadWatcher watches a config file for changes and invokes onChange
// when it is written or renamed onto (the editor-save pattern). The
// YAML hot-reload decode/apply loop itself is a documented Non-goal
// (spec.md §1); ReloadWatcher is only the seam an out-of-core loop
// drives to learn a reload is due.
type ReloadWatcher interface {
	// Watch begins watching path, invoking onChange from a background
	// goroutine on every write/rename event.
	Watch(path string, onChange func()) error

	// Close stops watching and releases the underlying OS resources.
	Close() error
}

type fsWatcher struct {
	w *fsnotify.Watcher
}

// NewReloadWatcher constructs a ReloadWatcher backed by fsnotify.
func NewReloadWatcher() (ReloadWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.New(errWatch, fmt.Sprintf("config: cannot start file watcher: %v", err))
	}
	return &fsWatcher{w: w}, nil
}

func (f *fsWatcher) Watch(path string, onChange func()) error {
	if err := f.w.Add(path); err != nil {
		return errors.New(errWatch, fmt.Sprintf("config: cannot watch %s: %v", path, err))
	}

	go func() {
		for {
			select {
			case ev, ok := <-f.w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Rename|fsnotify.Create) != 0 {
					onChange()
				}
			case _, ok := <-f.w.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return nil
}

func (f *fsWatcher) Close() error {
	return f.w.Close()
}
