package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskSweepTenant = "sweep.tenant"

type SweepTenantPayload struct {
	TenantID string `json:"tenantId"`
	Job      string `json:"job"`
}

func NewSweepTenantTask(payload SweepTenantPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSweepTenant, data), nil
}

func ParseSweepTenantPayload(task *asynq.Task) (SweepTenantPayload, error) {
	var payload SweepTenantPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return SweepTenantPayload{}, err
	}
	return payload, nil
}
