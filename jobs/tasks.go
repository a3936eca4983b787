package jobs

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAffiliationInvalidate drops cached affiliation resolutions by tag.
	TaskAffiliationInvalidate = "affiliation:invalidate"
	// TaskHierarchyRefresh rebuilds the identity hierarchy snapshot.
	TaskHierarchyRefresh = "hierarchy:refresh"
)

// AffiliationInvalidatePayload names the cache tags to drop.
type AffiliationInvalidatePayload struct {
	Tags []string `json:"tags"`
}

// NewAffiliationInvalidateTask constructs an Asynq task.
func NewAffiliationInvalidateTask(payload AffiliationInvalidatePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAffiliationInvalidate, data), nil
}

// NewHierarchyRefreshTask constructs an Asynq task with no payload.
func NewHierarchyRefreshTask() *asynq.Task {
	return asynq.NewTask(TaskHierarchyRefresh, nil)
}

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) (*Client, error) {
	client := asynq.NewClient(redisOpts)
	return &Client{client: client}, nil
}

// EnqueueInvalidation enqueues an affiliation cache invalidation task.
func (c *Client) EnqueueInvalidation(ctx context.Context, tags ...string) error {
	task, err := NewAffiliationInvalidateTask(AffiliationInvalidatePayload{Tags: tags})
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}

// EnqueueHierarchyRefresh enqueues a hierarchy snapshot rebuild.
func (c *Client) EnqueueHierarchyRefresh(ctx context.Context) error {
	_, err := c.client.EnqueueContext(ctx, NewHierarchyRefreshTask(), asynq.Queue(QueueDefault))
	return err
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
