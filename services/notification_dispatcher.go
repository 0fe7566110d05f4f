package services

import (
	"context"
	"log"
	"sync"
	"time"

	"flowstateAPI/internal/types/notification"
)

// PushNotificationProvider abstracts the push backend so the dispatcher does
// not depend on Firebase directly.
type PushNotificationProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error
}

// NotificationDispatcher fans stored notifications out to push devices through
// a small worker pool so HTTP handlers never wait on the push backend.
type NotificationDispatcher struct {
	service      *NotificationService
	pushProvider PushNotificationProvider
	workers      int
	jobQueue     chan *notification.Notification
	stopChan     chan struct{}
	wg           sync.WaitGroup
}

func NewNotificationDispatcher(service *NotificationService) *NotificationDispatcher {
	dispatcher := &NotificationDispatcher{
		service:  service,
		workers:  5, // 5 workers is plenty for now
		jobQueue: make(chan *notification.Notification, 100),
		stopChan: make(chan struct{}),
	}

	dispatcher.startWorkers()
	return dispatcher
}

// SetPushProvider injects the real FCM provider from main.go.
func (d *NotificationDispatcher) SetPushProvider(provider PushNotificationProvider) {
	d.pushProvider = provider
}

func (d *NotificationDispatcher) startWorkers() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

func (d *NotificationDispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case n := <-d.jobQueue:
			d.processJob(n)
		case <-d.stopChan:
			return
		}
	}
}

func (d *NotificationDispatcher) processJob(n *notification.Notification) {
	if d.pushProvider == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tokens, err := d.service.deviceTokens(ctx, n.UserID)
	if err != nil {
		log.Printf("Failed to load device tokens for user %s: %v", n.UserID, err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	data := map[string]any{"notification_id": n.ID.String(), "type": string(n.Type)}
	for k, v := range n.Metadata {
		data[k] = v
	}

	if err := d.pushProvider.SendPush(ctx, tokens, n.Title, n.Message, data); err != nil {
		log.Printf("Push failed for user %s: %v", n.UserID, err)
	}
}

// Enqueue adds a notification to the dispatch queue without blocking the
// caller for more than 5 seconds.
func (d *NotificationDispatcher) Enqueue(n *notification.Notification) {
	select {
	case d.jobQueue <- n:
	case <-time.After(5 * time.Second):
		log.Printf("Failed to queue notification %s: queue full", n.ID)
	}
}

// Stop shuts down the worker pool and waits for in-flight jobs.
func (d *NotificationDispatcher) Stop() {
	close(d.stopChan)
	d.wg.Wait()
}
