/*
Copyright 2023 Alexander Bartolomey (github@alexanderbartolomey.de)

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package ipfix

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
)

// SetLogger installs the logr.Logger that the package root logger Log
// writes to. Any logr.Logger created from Log before
// SetLogger is called (directly, or via WithName/WithValues) is
// retroactively rewired to the installed sink once it arrives.
func SetLogger(l logr.Logger) {
	loggerInstalled.Store(true)
	delegate.Fulfill(l.GetSink())
}

// FromContext returns the logr.Logger stashed in ctx by IntoContext, or
// the package root logger Log if ctx carries none.
func FromContext(ctx context.Context, keysAndValues ...interface{}) logr.Logger {
	log := Log
	if ctx != nil {
		if logger, err := logr.FromContext(ctx); err == nil {
			log = logger
		}
	}
	return log.WithValues(keysAndValues...)
}

func IntoContext(ctx context.Context, l logr.Logger) context.Context {
	return logr.NewContext(ctx, l)
}

// warnIfNeverInstalled silences logging by default (discardSink) once
// 30 seconds elapse without a SetLogger call, after printing a one-time
// diagnostic so the caller notices their logs are going nowhere.
func warnIfNeverInstalled() {
	if loggerInstalled.Load() {
		return
	}
	if time.Since(delegateCreated).Seconds() < 30 {
		return
	}
	if !loggerInstalled.CompareAndSwap(false, true) {
		return
	}
	stack := debug.Stack()
	lines := bytes.Count(stack, []byte{'\n'})
	indent := []byte{'\n', '\t', '>', ' ', ' '}
	fmt.Fprintf(os.Stderr,
		"ipfix.SetLogger(...) was never called; logs will not be displayed.\nDetected at:%s%s", indent,
		bytes.Replace(stack, []byte{'\n'}, indent, lines-1),
	)
	SetLogger(logr.New(discardSink{}))
}

var loggerInstalled atomic.Bool

var (
	delegate, delegateCreated = func() (*delegatingLogSink, time.Time) {
		return newDelegatingLogSink(discardSink{}), time.Now()
	}()
	// Log is the package root logger. A MessageBuffer without WithLogger,
	// and FromContext for a context without a logger, log through it; it
	// discards output until a real sink is wired in via SetLogger.
	Log = logr.New(delegate)
)

type discardSink struct{}

var _ logr.LogSink = discardSink{}

func (discardSink) Init(logr.RuntimeInfo) {}

func (discardSink) Info(_ int, _ string, _ ...interface{}) {}

func (discardSink) Error(_ error, _ string, _ ...interface{}) {}

func (discardSink) Enabled(_ int) bool {
	return false
}

func (log discardSink) WithName(_ string) logr.LogSink {
	return log
}

func (log discardSink) WithValues(_ ...interface{}) logr.LogSink {
	return log
}

type loggerPromise struct {
	logger        *delegatingLogSink
	childPromises []*loggerPromise
	promisesLock  sync.Mutex

	name *string
	tags []interface{}
}

func (p *loggerPromise) WithName(l *delegatingLogSink, name string) *loggerPromise {
	res := &loggerPromise{
		logger:       l,
		name:         &name,
		promisesLock: sync.Mutex{},
	}

	p.promisesLock.Lock()
	defer p.promisesLock.Unlock()
	p.childPromises = append(p.childPromises, res)
	return res
}

func (p *loggerPromise) WithValues(l *delegatingLogSink, tags ...interface{}) *loggerPromise {
	res := &loggerPromise{
		logger:       l,
		tags:         tags,
		promisesLock: sync.Mutex{},
	}

	p.promisesLock.Lock()
	defer p.promisesLock.Unlock()
	p.childPromises = append(p.childPromises, res)
	return res
}

func (p *loggerPromise) Fulfill(parentLogSink logr.LogSink) {
	sink := parentLogSink
	if p.name != nil {
		sink = sink.WithName(*p.name)
	}

	if p.tags != nil {
		sink = sink.WithValues(p.tags...)
	}

	p.logger.lock.Lock()
	p.logger.logger = sink
	if withCallDepth, ok := sink.(logr.CallDepthLogSink); ok {
		p.logger.logger = withCallDepth.WithCallDepth(1)
	}
	p.logger.promise = nil
	p.logger.lock.Unlock()

	for _, childPromise := range p.childPromises {
		childPromise.Fulfill(sink)
	}
}

type delegatingLogSink struct {
	lock    sync.RWMutex
	logger  logr.LogSink
	promise *loggerPromise
	info    logr.RuntimeInfo
}

func (l *delegatingLogSink) Init(info logr.RuntimeInfo) {
	warnIfNeverInstalled()
	l.lock.Lock()
	defer l.lock.Unlock()
	l.info = info
}

func (l *delegatingLogSink) Enabled(level int) bool {
	warnIfNeverInstalled()
	l.lock.RLock()
	defer l.lock.RUnlock()
	return l.logger.Enabled(level)
}

func (l *delegatingLogSink) Info(level int, msg string, keysAndValues ...interface{}) {
	warnIfNeverInstalled()
	l.lock.RLock()
	defer l.lock.RUnlock()
	l.logger.Info(level, msg, keysAndValues...)
}

func (l *delegatingLogSink) Error(err error, msg string, keysAndValues ...interface{}) {
	warnIfNeverInstalled()
	l.lock.RLock()
	defer l.lock.RUnlock()
	l.logger.Error(err, msg, keysAndValues...)
}

func (l *delegatingLogSink) WithName(name string) logr.LogSink {
	warnIfNeverInstalled()
	l.lock.RLock()
	defer l.lock.RUnlock()

	if l.promise == nil {
		sink := l.logger.WithName(name)
		if withCallDepth, ok := sink.(logr.CallDepthLogSink); ok {
			sink = withCallDepth.WithCallDepth(-1)
		}
		return sink
	}

	res := &delegatingLogSink{logger: l.logger}
	promise := l.promise.WithName(res, name)
	res.promise = promise

	return res
}

func (l *delegatingLogSink) WithValues(tags ...interface{}) logr.LogSink {
	warnIfNeverInstalled()
	l.lock.RLock()
	defer l.lock.RUnlock()

	if l.promise == nil {
		sink := l.logger.WithValues(tags...)
		if withCallDepth, ok := sink.(logr.CallDepthLogSink); ok {
			sink = withCallDepth.WithCallDepth(-1)
		}
		return sink
	}

	res := &delegatingLogSink{logger: l.logger}
	promise := l.promise.WithValues(res, tags...)
	res.promise = promise

	return res
}

func (l *delegatingLogSink) Fulfill(actual logr.LogSink) {
	if actual == nil {
		actual = discardSink{}
	}
	if l.promise != nil {
		l.promise.Fulfill(actual)
	}
}

func newDelegatingLogSink(initial logr.LogSink) *delegatingLogSink {
	l := &delegatingLogSink{
		logger:  initial,
		promise: &loggerPromise{promisesLock: sync.Mutex{}},
	}
	l.promise.logger = l
	return l
}
