// Package codes provides ghauth.CodeProvider implementations.
package codes

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/fivetwenty-io/ghauth/internal/constants"
	"github.com/fivetwenty-io/ghauth/pkg/ghauth"
)

// Static always returns code.
func Static(code string) ghauth.CodeProvider {
	return func(context.Context) (string, error) {
		return code, nil
	}
}

// Sequence returns the given codes in order and then keeps returning the last one.
func Sequence(codes ...string) ghauth.CodeProvider {
	next := 0

	return func(context.Context) (string, error) {
		if len(codes) == 0 {
			return "", constants.ErrNoCodeEntered
		}

		code := codes[next]
		if next < len(codes)-1 {
			next++
		}

		return code, nil
	}
}

// WithTimeout bounds how long provider may take to produce a code.
func WithTimeout(provider ghauth.CodeProvider, timeout time.Duration) ghauth.CodeProvider {
	return func(ctx context.Context) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		return provider(ctx)
	}
}

// Prompt writes label to out and reads a code line from in. A single
// goroutine reads in, one line per request; a line requested by a cancelled
// call is handed to the next call.
func Prompt(in io.Reader, out io.Writer, label string) ghauth.CodeProvider {
	lines := &lineReader{
		reader:   bufio.NewReader(in),
		requests: make(chan struct{}, 1),
		results:  make(chan readResult, 1),
	}

	return func(ctx context.Context) (string, error) {
		_, _ = fmt.Fprint(out, label)

		res, err := lines.next(ctx)
		if err != nil {
			return "", err
		}

		code := strings.TrimSpace(res.line)
		if code == "" {
			if res.err != nil && res.err != io.EOF {
				return "", fmt.Errorf("failed to read one-time code: %w", res.err)
			}

			return "", constants.ErrNoCodeEntered
		}

		return code, nil
	}
}

type readResult struct {
	line string
	err  error
}

type lineReader struct {
	reader   *bufio.Reader
	requests chan struct{}
	results  chan readResult

	mutex   sync.Mutex
	started bool
	pending bool
}

func (l *lineReader) next(ctx context.Context) (readResult, error) {
	l.mutex.Lock()
	if !l.started {
		l.started = true

		go l.run()
	}

	if !l.pending {
		l.pending = true
		l.requests <- struct{}{}
	}
	l.mutex.Unlock()

	select {
	case <-ctx.Done():
		return readResult{}, ctx.Err()
	case res := <-l.results:
		l.mutex.Lock()
		l.pending = false
		l.mutex.Unlock()

		return res, nil
	}
}

func (l *lineReader) run() {
	for range l.requests {
		line, err := l.reader.ReadString('\n')
		l.results <- readResult{line: line, err: err}
	}
}

// Terminal prompts on stderr and reads the code from stdin without echo. It
// falls back to a plain line read when stdin is not a terminal.
func Terminal(label string) ghauth.CodeProvider {
	fallback := Prompt(os.Stdin, os.Stderr, label)

	return func(ctx context.Context) (string, error) {
		fd := int(syscall.Stdin) //nolint:unconvert // syscall.Stdin is not an int on every platform
		if !term.IsTerminal(fd) {
			return fallback(ctx)
		}

		_, _ = fmt.Fprint(os.Stderr, label)

		raw, err := term.ReadPassword(fd)
		_, _ = fmt.Fprintln(os.Stderr)

		if err != nil {
			return "", fmt.Errorf("failed to read one-time code: %w", err)
		}

		code := strings.TrimSpace(string(raw))
		if code == "" {
			return "", constants.ErrNoCodeEntered
		}

		return code, nil
	}
}
