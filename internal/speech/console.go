package speech

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// LineRecognizer treats each line read from R as one spoken utterance. Words
// arrive as interim results followed by a final result; end of input ends
// recognition.
type LineRecognizer struct {
	mu sync.Mutex
	sc *bufio.Scanner
}

func NewLineRecognizer(r io.Reader) *LineRecognizer {
	return &LineRecognizer{sc: bufio.NewScanner(r)}
}

func (l *LineRecognizer) Listen(ctx context.Context, _ string) (<-chan Result, error) {
	l.mu.Lock()
	ok := l.sc.Scan()
	line, err := l.sc.Text(), l.sc.Err()
	l.mu.Unlock()
	if !ok {
		if err == nil {
			err = io.EOF
		}
		return nil, err
	}

	ch := make(chan Result)
	go func() {
		defer close(ch)
		var acc []string
		fields := strings.Fields(line)
		for i, w := range fields {
			acc = append(acc, w)
			select {
			case ch <- Result{Text: strings.Join(acc, " "), Final: i == len(fields)-1}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

// ConsoleSynthesizer "speaks" by writing lines to W.
type ConsoleSynthesizer struct {
	W io.Writer
}

func (c ConsoleSynthesizer) Voices() []Voice {
	return []Voice{
		{Name: "Console Samantha", Lang: "en-US"},
		{Name: "Console Daniel", Lang: "en-GB"},
		{Name: "Console Veena", Lang: "hi-IN"},
		{Name: "Console Rishi", Lang: "hi-IN"},
		{Name: "Console Marathi", Lang: "mr-IN"},
	}
}

func (c ConsoleSynthesizer) Speak(_ context.Context, u Utterance) error {
	name := "default"
	if u.Voice != nil {
		name = u.Voice.Name
	}
	_, err := fmt.Fprintf(c.W, "🔊 [%s] %s\n", name, u.Text)
	return err
}

func (c ConsoleSynthesizer) Cancel() {}
