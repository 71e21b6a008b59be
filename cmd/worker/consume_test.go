package main

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benvon/absolutely-right/internal/models"
	"github.com/benvon/absolutely-right/internal/queue"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordingProcessor struct {
	mu   sync.Mutex
	days []string
	fail bool
}

func (p *recordingProcessor) ProcessJob(_ context.Context, msg queue.MessageInterface) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.days = append(p.days, msg.GetJob().Row.Day)
	if p.fail {
		return errors.New("boom")
	}
	return nil
}

func message(day string) *queue.Message {
	return &queue.Message{Job: queue.NewDailyRowJob(models.DailyRow{Day: day, Count: 1}, "test")}
}

func TestConsume_ProcessesUntilChannelCloses(t *testing.T) {
	t.Parallel()

	msgs := make(chan *queue.Message, 2)
	errs := make(chan error, 1)
	msgs <- message("2024-01-02")
	msgs <- message("2024-01-03")
	errs <- errors.New("channel flapped")
	close(msgs)

	core, logs := observer.New(zap.InfoLevel)
	proc := &recordingProcessor{}

	done := make(chan struct{})
	go func() {
		defer close(done)
		consume(context.Background(), msgs, errs, proc, zap.New(core))
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consume did not return after the message channel closed")
	}

	if len(proc.days) != 2 {
		t.Errorf("processed %d jobs, want 2", len(proc.days))
	}
	if logs.FilterMessage("message_channel_closed").Len() != 1 {
		t.Error("expected message_channel_closed log")
	}
}

func TestConsume_LogsProcessingErrors(t *testing.T) {
	t.Parallel()

	msgs := make(chan *queue.Message, 1)
	msgs <- message("2024-01-02")
	close(msgs)

	core, logs := observer.New(zap.ErrorLevel)
	consume(context.Background(), msgs, nil, &recordingProcessor{fail: true}, zap.New(core))

	if logs.FilterMessage("failed_to_process_job").Len() != 1 {
		t.Errorf("expected failed_to_process_job log, got %v", logs.All())
	}
}

func TestConsume_StopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		consume(ctx, make(chan *queue.Message), make(chan error), &recordingProcessor{}, zap.NewNop())
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consume did not return after cancellation")
	}
}
