// Package tasks implements the task workflows on top of the TickTick client:
// creating tasks from natural-language input, listing with due/priority/status
// filters, bulk completion, and assembling the daily plan and daily log.
//
// Manager depends on the small API interface rather than *ticktick.Client so
// the workflows can be tested against an in-memory fake.
package tasks
