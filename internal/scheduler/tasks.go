package scheduler

import "github.com/hibiken/asynq"

const TaskNurtureSweep = "nurture.sweep"

const TaskSnoozeExpire = "nurture.snooze.expire"

// Both periodic tasks are payload-free. Uniqueness keys on the task
// type and payload, so a constant payload lets asynq.Unique collapse
// stacked triggers into one pending run.
func NewNurtureSweepTask() *asynq.Task {
	return asynq.NewTask(TaskNurtureSweep, nil)
}

func NewSnoozeExpireTask() *asynq.Task {
	return asynq.NewTask(TaskSnoozeExpire, nil)
}
