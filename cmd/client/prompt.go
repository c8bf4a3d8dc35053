package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

var errNoKey = errors.New("no key entered")

type keySetter interface {
	SetAPIKey(key string)
	HasAPIKey() bool
}

// keyPrompt asks for a paid provider key on the terminal when HD video needs
// one.
type keyPrompt struct {
	in  *bufio.Reader
	out io.Writer
	ai  keySetter
}

func newKeyPrompt(in io.Reader, out io.Writer, ai keySetter) *keyPrompt {
	return &keyPrompt{in: bufio.NewReader(in), out: out, ai: ai}
}

func (p *keyPrompt) HasKey(context.Context) bool { return p.ai.HasAPIKey() }

func (p *keyPrompt) SelectKey(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fmt.Fprint(p.out, "HD video needs a paid API key. Paste one (empty to skip): ")
	line, err := p.in.ReadString('\n')
	key := strings.TrimSpace(line)
	if key == "" {
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return errNoKey
	}
	p.ai.SetAPIKey(key)
	return nil
}
