package gemini

import (
	"errors"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrNoKey is returned when neither the server nor the caller has a key.
var ErrNoKey = errors.New("no api key configured")

// DefaultPoolSize bounds how many caller keys keep a live client.
const DefaultPoolSize = 64

// Pool hands out one client per API key. The empty key maps to the server's
// own key, whose client is never evicted; caller keys share an LRU of size
// entries.
type Pool struct {
	defaultKey string
	models     Models
	log        *slog.Logger

	mu     sync.Mutex
	server *Client
	users  *lru.Cache[string, *Client]
}

func NewPool(defaultKey string, models Models, size int, log *slog.Logger) *Pool {
	if size <= 0 {
		size = DefaultPoolSize
	}
	users, _ := lru.New[string, *Client](size)
	return &Pool{defaultKey: defaultKey, models: models, log: log, users: users}
}

func (p *Pool) For(key string) (*Client, error) {
	if key == "" {
		key = p.defaultKey
	}
	if key == "" {
		return nil, ErrNoKey
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if key == p.defaultKey {
		if p.server == nil {
			c, err := New(key, p.models, p.log)
			if err != nil {
				return nil, err
			}
			p.server = c
		}
		return p.server, nil
	}
	if c, ok := p.users.Get(key); ok {
		return c, nil
	}
	c, err := New(key, p.models, p.log)
	if err != nil {
		return nil, err
	}
	p.users.Add(key, c)
	return c, nil
}

// Len reports the number of cached caller clients.
func (p *Pool) Len() int { return p.users.Len() }
