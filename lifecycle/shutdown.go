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

// Package lifecycle carries the shared shutdown token (spec.md §4.15)
// visible to the dispatcher, the retention thread, and any network
// readers, plus the signal callback registry that flips it. The token
// is an atomic/value.go-style Value[bool] (kept teacher package, see
// DESIGN.md) rather than a bare sync/atomic.Bool, matching how the
// teacher represents shared shutdown flags elsewhere in its codebase;
// signal numbers come from golang.org/x/sys/unix, the teacher's own
// source for platform signal constants, wired through stdlib
// os/signal.Notify.
package lifecycle

import (
	gocontext "context"
	"os"
	"os/signal"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/sabouaram/netlinkmon/atomic"
	libctx "github.com/sabouaram/netlinkmon/context"
)

// tokenKey is the key the shutdown Token is stored under in the
// context.Config carried by Manager.Context.
const tokenKey = "lifecycle.token"

// SignalCallback is invoked when a watched signal is delivered.
type SignalCallback func(sig os.Signal)

// Token is the shared shutdown flag (spec.md §4.15). The zero value is
// not usable; construct with NewToken.
type Token struct {
	flag atomic.Value[bool]
}

// NewToken returns a Token not yet signaled to exit.
func NewToken() *Token {
	t := &Token{flag: atomic.NewValue[bool]()}
	t.flag.Store(false)
	return t
}

// ShouldExit reports the flag with acquire-equivalent ordering (backed
// by sync/atomic.Value under the hood).
func (t *Token) ShouldExit() bool {
	return t.flag.Load()
}

// RequestExit flips the token so ShouldExit returns true from now on.
func (t *Token) RequestExit() {
	t.flag.Store(true)
}

type callbackEntry struct {
	id int
	fn SignalCallback
}

// Manager owns the shutdown Token and the registry of signal callbacks
// invoked when SIGINT/SIGTERM/SIGHUP is delivered.
type Manager struct {
	Token *Token

	mu        sync.Mutex
	callbacks []callbackEntry
	nextID    int

	ctx libctx.Config[string]

	sigCh  chan os.Signal
	stopCh chan struct{}
}

// NewManager constructs a Manager with a fresh Token and starts
// listening for SIGINT, SIGTERM and SIGHUP.
func NewManager() *Manager {
	token := NewToken()
	ctx := libctx.New[string](gocontext.Background())
	ctx.Store(tokenKey, token)

	m := &Manager{
		Token:  token,
		ctx:    ctx,
		sigCh:  make(chan os.Signal, 1),
		stopCh: make(chan struct{}),
	}
	signal.Notify(m.sigCh, unix.SIGINT, unix.SIGTERM, unix.SIGHUP)
	go m.watch()
	return m
}

// Context returns the context.Context carrying this Manager's Token,
// for components (e.g. dispatcher worker goroutines) that expect to
// read shutdown state off a context rather than holding a *Token
// directly.
func (m *Manager) Context() gocontext.Context {
	return m.ctx
}

// TokenFromContext extracts the Token stored in a context.Context built
// by Manager.Context, if any.
func TokenFromContext(ctx gocontext.Context) (*Token, bool) {
	v := ctx.Value(tokenKey)
	t, ok := v.(*Token)
	return t, ok
}

func (m *Manager) watch() {
	for {
		select {
		case sig := <-m.sigCh:
			m.Token.RequestExit()
			m.dispatch(sig)
		case <-m.stopCh:
			return
		}
	}
}

func (m *Manager) dispatch(sig os.Signal) {
	m.mu.Lock()
	callbacks := make([]callbackEntry, len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mu.Unlock()

	for _, c := range callbacks {
		c.fn(sig)
	}
}

// OnSignal registers fn to run, in registration order, whenever a
// watched signal is delivered. It returns an id for Unregister.
func (m *Manager) OnSignal(fn SignalCallback) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.callbacks = append(m.callbacks, callbackEntry{id: id, fn: fn})
	return id
}

// Unregister removes the callback with the given id, by linear scan
// (spec.md §4.15 "unregistration is by id").
func (m *Manager) Unregister(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.callbacks {
		if c.id == id {
			m.callbacks = append(m.callbacks[:i], m.callbacks[i+1:]...)
			return
		}
	}
}

// Stop stops listening for signals. The Token's current state is left
// unchanged.
func (m *Manager) Stop() {
	signal.Stop(m.sigCh)
	close(m.stopCh)
}
