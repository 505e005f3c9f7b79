package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/authbridge/internal/common"
	"github.com/dmitrijs2005/authbridge/internal/server/models"
	"github.com/redis/go-redis/v9"
)

// List keys. They are shared with every producer already deployed, so they
// carry no prefix.
const (
	KeyEmail    = "email"
	KeyPassword = "password"
	KeyID       = "id"
)

// RedisQueue is the import queue. Each field is pushed and popped with its
// own command; the three lists are not updated atomically, so a crash
// between commands leaves them misaligned.
type RedisQueue struct {
	client redis.Cmdable
}

// NewRedisQueue wraps client.
func NewRedisQueue(client redis.Cmdable) *RedisQueue {
	return &RedisQueue{client: client}
}

// Push appends e to the tail of the three lists, email first.
func (q *RedisQueue) Push(ctx context.Context, e models.QueueEntry) error {
	password := common.NullPassword
	if e.Password != nil {
		password = *e.Password
	}

	for _, kv := range [][2]string{{KeyEmail, e.Email}, {KeyPassword, password}, {KeyID, e.ID}} {
		if err := q.client.RPush(ctx, kv[0], kv[1]).Err(); err != nil {
			return fmt.Errorf("queue push %s: %w", kv[0], err)
		}
	}
	return nil
}

// Len returns the length of the email list, which drives consumption.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, KeyEmail).Result()
	if err != nil {
		return 0, fmt.Errorf("queue len: %w", err)
	}
	return n, nil
}

// Pop removes the head of the three lists. ok is false when the email list
// is empty, in which case the other lists are not touched.
func (q *RedisQueue) Pop(ctx context.Context) (entry *models.QueueEntry, ok bool, err error) {
	email, err := q.lpop(ctx, KeyEmail)
	if err != nil {
		return nil, false, err
	}
	if email == "" {
		return nil, false, nil
	}

	password, err := q.lpop(ctx, KeyPassword)
	if err != nil {
		return nil, false, err
	}
	id, err := q.lpop(ctx, KeyID)
	if err != nil {
		return nil, false, err
	}

	entry = &models.QueueEntry{Email: email, ID: id}
	if password != "" && password != common.NullPassword {
		entry.Password = &password
	}
	return entry, true, nil
}

func (q *RedisQueue) lpop(ctx context.Context, key string) (string, error) {
	v, err := q.client.LPop(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("queue pop %s: %w", key, err)
	}
	return v, nil
}
