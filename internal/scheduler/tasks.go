package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskMessageReceived = "leads.message.received"

const TaskLeadRegistered = "leads.registered"

// MessageReceivedPayload carries one inbound message from the webhook to the
// worker. The phone is raw; the pipeline normalizes it.
type MessageReceivedPayload struct {
	Phone string `json:"phone"`
	Text  string `json:"text"`
	Name  string `json:"name,omitempty"`
}

// LeadRegisteredPayload carries a registration outside the message flow.
type LeadRegisteredPayload struct {
	Phone  string `json:"phone"`
	Name   string `json:"name,omitempty"`
	Source string `json:"source,omitempty"`
}

func NewMessageReceivedTask(payload MessageReceivedPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskMessageReceived, data), nil
}

func ParseMessageReceivedPayload(task *asynq.Task) (MessageReceivedPayload, error) {
	var payload MessageReceivedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return MessageReceivedPayload{}, err
	}
	return payload, nil
}

func NewLeadRegisteredTask(payload LeadRegisteredPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLeadRegistered, data), nil
}

func ParseLeadRegisteredPayload(task *asynq.Task) (LeadRegisteredPayload, error) {
	var payload LeadRegisteredPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return LeadRegisteredPayload{}, err
	}
	return payload, nil
}
