package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskPushSend = "push.send"

type PushSendPayload struct {
	UserID string            `json:"userId"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data,omitempty"`
}

func NewPushSendTask(payload PushSendPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPushSend, data), nil
}

func ParsePushSendPayload(task *asynq.Task) (PushSendPayload, error) {
	var payload PushSendPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return PushSendPayload{}, err
	}
	return payload, nil
}
