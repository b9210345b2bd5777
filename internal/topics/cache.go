// Package topics caches the learner's topic list. Added topics appear in
// the cache immediately, whatever the backend's list says.
package topics

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/examwhisperer/whisper/internal/backend"
)

var ErrEmptyTopic = errors.New("topic is empty")

// Client is the subset of backend.Client the cache uses.
type Client interface {
	ListTopics(ctx context.Context, username string) ([]string, error)
	AddTopic(ctx context.Context, username, topic string) error
}

// Cache holds one user's topics.
type Cache struct {
	client   Client
	username string

	mu     sync.RWMutex
	remote []string
	added  []string
}

// New creates an empty cache for username.
func New(client Client, username string) *Cache {
	return &Cache{client: client, username: username}
}

// List fetches the remote list and returns it merged with locally added
// topics. On failure it returns the cached topics along with the error.
func (c *Cache) List(ctx context.Context) ([]string, error) {
	remote, err := c.client.ListTopics(backend.WithPurpose(ctx, "topics"), c.username)
	if err != nil {
		return c.Topics(), err
	}

	c.mu.Lock()
	c.remote = clean(remote)
	c.mu.Unlock()
	return c.Topics(), nil
}

// Refresh reloads the remote list, e.g. after a syllabus upload.
func (c *Cache) Refresh(ctx context.Context) error {
	_, err := c.List(ctx)
	return err
}

// Add posts topic and, once accepted, appends it to the cache.
func (c *Cache) Add(ctx context.Context, topic string) error {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return ErrEmptyTopic
	}
	if err := c.client.AddTopic(backend.WithPurpose(ctx, "topics"), c.username, topic); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !lo.Contains(c.added, topic) {
		c.added = append(c.added, topic)
	}
	return nil
}

// Topics returns the cached list: remote order first, then local
// additions, without duplicates.
func (c *Cache) Topics() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return lo.Uniq(append(append([]string{}, c.remote...), c.added...))
}

func clean(topics []string) []string {
	trimmed := lo.Map(topics, func(t string, _ int) string { return strings.TrimSpace(t) })
	return lo.Compact(trimmed)
}
