package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Jberryfresh/DigitalTide-sub003/internal/models"
)

// RedisBroker stores lanes as Redis lists, delayed retries as a sorted set
// scored by due time, and task records as JSON strings.
type RedisBroker struct {
	client *redis.Client
	prefix string
}

// NewRedisBroker wraps an existing Redis client. The caller owns the client
// configuration; the broker owns the key layout.
func NewRedisBroker(client *redis.Client, prefix string) *RedisBroker {
	return &RedisBroker{client: client, prefix: prefix}
}

func (b *RedisBroker) laneKey(lane models.Priority) string {
	return fmt.Sprintf("%s:lane:%s", b.prefix, lane)
}

func (b *RedisBroker) taskKey(taskID string) string {
	return fmt.Sprintf("%s:task:%s", b.prefix, taskID)
}

func (b *RedisBroker) delayedKey() string {
	return b.prefix + ":delayed"
}

// delayedMember encodes the lane alongside the task ID so MoveDue knows
// where to put the task back.
func delayedMember(lane models.Priority, taskID string) string {
	return string(lane) + "|" + taskID
}

func parseDelayedMember(member string) (models.Priority, string, bool) {
	lane, taskID, ok := strings.Cut(member, "|")
	if !ok {
		return "", "", false
	}
	return models.Priority(lane), taskID, true
}

func (b *RedisBroker) Enqueue(ctx context.Context, lane models.Priority, taskID string) error {
	if err := b.client.LPush(ctx, b.laneKey(lane), taskID).Err(); err != nil {
		return fmt.Errorf("redis enqueue %s: %w", lane, err)
	}
	return nil
}

func (b *RedisBroker) Dequeue(ctx context.Context, lane models.Priority, wait time.Duration) (string, error) {
	result, err := b.client.BRPop(ctx, wait, b.laneKey(lane)).Result()
	if err == redis.Nil {
		return "", ErrEmpty
	}
	if err != nil {
		return "", fmt.Errorf("redis dequeue %s: %w", lane, err)
	}
	// BRPOP returns [key, value].
	return result[1], nil
}

func (b *RedisBroker) Schedule(ctx context.Context, lane models.Priority, taskID string, at time.Time) error {
	member := redis.Z{Score: float64(at.UnixMilli()), Member: delayedMember(lane, taskID)}
	if err := b.client.ZAdd(ctx, b.delayedKey(), member).Err(); err != nil {
		return fmt.Errorf("redis schedule: %w", err)
	}
	return nil
}

func (b *RedisBroker) MoveDue(ctx context.Context, now time.Time) (int, error) {
	max := fmt.Sprintf("%d", now.UnixMilli())
	members, err := b.client.ZRangeByScore(ctx, b.delayedKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: max,
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("redis move due: %w", err)
	}

	moved := 0
	for _, member := range members {
		lane, taskID, ok := parseDelayedMember(member)
		if !ok {
			b.client.ZRem(ctx, b.delayedKey(), member)
			continue
		}
		// Remove first so a concurrent mover cannot double-deliver.
		removed, err := b.client.ZRem(ctx, b.delayedKey(), member).Result()
		if err != nil {
			return moved, fmt.Errorf("redis move due: %w", err)
		}
		if removed == 0 {
			continue
		}
		if err := b.Enqueue(ctx, lane, taskID); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}

func (b *RedisBroker) SaveTask(ctx context.Context, task *models.Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task %s: %w", task.ID, err)
	}
	if err := b.client.Set(ctx, b.taskKey(task.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("redis save task %s: %w", task.ID, err)
	}
	return nil
}

func (b *RedisBroker) LoadTask(ctx context.Context, taskID string) (*models.Task, error) {
	data, err := b.client.Get(ctx, b.taskKey(taskID)).Bytes()
	if err == redis.Nil {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis load task %s: %w", taskID, err)
	}

	var task models.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("unmarshal task %s: %w", taskID, err)
	}
	return &task, nil
}

func (b *RedisBroker) DeleteTask(ctx context.Context, taskID string) error {
	if err := b.client.Del(ctx, b.taskKey(taskID)).Err(); err != nil {
		return fmt.Errorf("redis delete task %s: %w", taskID, err)
	}
	return nil
}

func (b *RedisBroker) Tasks(ctx context.Context) ([]*models.Task, error) {
	var tasks []*models.Task

	iter := b.client.Scan(ctx, 0, b.prefix+":task:*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := b.client.Get(ctx, iter.Val()).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("redis list tasks: %w", err)
		}
		var task models.Task
		if err := json.Unmarshal(data, &task); err != nil {
			continue
		}
		tasks = append(tasks, &task)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis list tasks: %w", err)
	}
	return tasks, nil
}

func (b *RedisBroker) Depth(ctx context.Context, lane models.Priority) (int64, error) {
	depth, err := b.client.LLen(ctx, b.laneKey(lane)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis depth %s: %w", lane, err)
	}
	return depth, nil
}

func (b *RedisBroker) Close() error {
	return b.client.Close()
}
