package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"catalog/crawler/internal/config"
	"catalog/crawler/internal/domain/task"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

type Queue interface {
	AddTask(ctx context.Context, task task.Task) (string, error) // Returns message ID
	CreateGroup(ctx context.Context, stream, group string) error
	EnsureStreamsExist(ctx context.Context) error
}

// RedisQueue publishes crawl tasks to one Redis stream per task type
type RedisQueue struct {
	redisClient  *redis.Client
	streamPrefix string
	groupName    string
}

func NewRedisQueue(ctx context.Context, redisClient *redis.Client, cfg config.QueueConfig) (*RedisQueue, error) {
	q := &RedisQueue{
		redisClient:  redisClient,
		streamPrefix: cfg.StreamPrefix,
		groupName:    cfg.ConsumerGroup,
	}

	// Streams and groups must exist before downstream consumers attach
	if err := q.EnsureStreamsExist(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure streams exist: %w", err)
	}

	return q, nil
}

// StreamName returns the stream a task type is published to
func (q *RedisQueue) StreamName(taskType string) string {
	return q.streamPrefix + taskType
}

func (q *RedisQueue) CreateGroup(ctx context.Context, stream, group string) error {
	err := q.redisClient.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP") {
		log.Debugf("Group %s already exists for stream %s", group, stream)
		return nil
	}
	return err
}

func (q *RedisQueue) AddTask(ctx context.Context, task task.Task) (string, error) {
	taskType := task.TaskType()
	streamName := q.StreamName(taskType)

	taskValue, err := task.TaskValue()
	if err != nil {
		return "", fmt.Errorf("failed to serialize task: %w", err)
	}

	// Fields: task_type, task_data
	messageID, err := q.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: streamName,
		Values: map[string]interface{}{
			"task_type": taskType,
			"task_data": string(taskValue),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to add task to Redis stream %s: %w", streamName, err)
	}

	log.Debugf("Added task %s to stream %s with message ID: %s", taskType, streamName, messageID)
	return messageID, nil
}

// EnsureStreamsExist creates every task stream and, when a group is configured, its consumer group
func (q *RedisQueue) EnsureStreamsExist(ctx context.Context) error {
	if q.groupName == "" {
		return nil
	}

	log.Info("🔧 Creating Redis streams and consumer groups...")

	var errs []error
	for _, taskType := range task.Types {
		streamName := q.StreamName(taskType)
		if err := q.CreateGroup(ctx, streamName, q.groupName); err != nil {
			errs = append(errs, fmt.Errorf("failed to create consumer group for %s: %w", taskType, err))
			continue
		}
		log.Infof("✅ Stream %s and consumer group %s ready", streamName, q.groupName)
	}

	return errors.Join(errs...)
}
