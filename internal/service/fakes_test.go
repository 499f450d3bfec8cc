package service

import (
	"context"
	"time"

	"github.com/timeroster/push-relay/internal/domain"
	"github.com/timeroster/push-relay/internal/gateway"
	"github.com/timeroster/push-relay/internal/queue"
)

type fakeIntentRepo struct {
	createFn          func(ctx context.Context, intent *domain.Intent) error
	getByIDFn         func(ctx context.Context, id string) (*domain.Intent, error)
	markTerminalFn    func(ctx context.Context, id string, update domain.TerminalUpdate) error
	touchEnqueuedFn   func(ctx context.Context, id string, at time.Time) error
	getStalePendingFn func(ctx context.Context, olderThan time.Time, limit int) ([]domain.Intent, error)
}

func (f *fakeIntentRepo) Create(ctx context.Context, intent *domain.Intent) error {
	if f.createFn != nil {
		return f.createFn(ctx, intent)
	}
	return nil
}

func (f *fakeIntentRepo) GetByID(ctx context.Context, id string) (*domain.Intent, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeIntentRepo) MarkTerminal(ctx context.Context, id string, update domain.TerminalUpdate) error {
	if f.markTerminalFn != nil {
		return f.markTerminalFn(ctx, id, update)
	}
	return nil
}

func (f *fakeIntentRepo) TouchEnqueued(ctx context.Context, id string, at time.Time) error {
	if f.touchEnqueuedFn != nil {
		return f.touchEnqueuedFn(ctx, id, at)
	}
	return nil
}

func (f *fakeIntentRepo) GetStalePending(ctx context.Context, olderThan time.Time, limit int) ([]domain.Intent, error) {
	if f.getStalePendingFn != nil {
		return f.getStalePendingFn(ctx, olderThan, limit)
	}
	return nil, nil
}

type fakeContactRepo struct {
	createRequestFn  func(ctx context.Context, request *domain.ContactRequest) error
	getRequestByIDFn func(ctx context.Context, id string) (*domain.ContactRequest, error)
	acceptRequestFn  func(ctx context.Context, id string) error
	deleteRequestFn  func(ctx context.Context, id string) error
	mirrorContactsFn func(ctx context.Context, first, second domain.Contact) error
	listContactsFn   func(ctx context.Context, userID string) ([]domain.Contact, error)
}

func (f *fakeContactRepo) CreateRequest(ctx context.Context, request *domain.ContactRequest) error {
	if f.createRequestFn != nil {
		return f.createRequestFn(ctx, request)
	}
	return nil
}

func (f *fakeContactRepo) GetRequestByID(ctx context.Context, id string) (*domain.ContactRequest, error) {
	if f.getRequestByIDFn != nil {
		return f.getRequestByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeContactRepo) AcceptRequest(ctx context.Context, id string) error {
	if f.acceptRequestFn != nil {
		return f.acceptRequestFn(ctx, id)
	}
	return nil
}

func (f *fakeContactRepo) DeleteRequest(ctx context.Context, id string) error {
	if f.deleteRequestFn != nil {
		return f.deleteRequestFn(ctx, id)
	}
	return nil
}

func (f *fakeContactRepo) MirrorContacts(ctx context.Context, first, second domain.Contact) error {
	if f.mirrorContactsFn != nil {
		return f.mirrorContactsFn(ctx, first, second)
	}
	return nil
}

func (f *fakeContactRepo) ListContacts(ctx context.Context, userID string) ([]domain.Contact, error) {
	if f.listContactsFn != nil {
		return f.listContactsFn(ctx, userID)
	}
	return nil, nil
}

type fakeRegistry struct {
	listFn     func(ctx context.Context, userID string) ([]domain.Endpoint, error)
	registerFn func(ctx context.Context, endpoint *domain.Endpoint) error
	removeFn   func(ctx context.Context, userID string, tokens []string) error
}

func (f *fakeRegistry) List(ctx context.Context, userID string) ([]domain.Endpoint, error) {
	if f.listFn != nil {
		return f.listFn(ctx, userID)
	}
	return nil, nil
}

func (f *fakeRegistry) Register(ctx context.Context, endpoint *domain.Endpoint) error {
	if f.registerFn != nil {
		return f.registerFn(ctx, endpoint)
	}
	return nil
}

func (f *fakeRegistry) Remove(ctx context.Context, userID string, tokens []string) error {
	if f.removeFn != nil {
		return f.removeFn(ctx, userID, tokens)
	}
	return nil
}

type fakeGateway struct {
	sendFn    func(ctx context.Context, tokens []string, msg gateway.Message) (*gateway.DispatchResult, error)
	sendCalls int
}

func (f *fakeGateway) Send(ctx context.Context, tokens []string, msg gateway.Message) (*gateway.DispatchResult, error) {
	f.sendCalls++
	if f.sendFn != nil {
		return f.sendFn(ctx, tokens, msg)
	}
	return &gateway.DispatchResult{}, nil
}

type fakePublisher struct {
	publishFn func(ctx context.Context, queueName string, msg queue.Message) error
	closeFn   func() error
}

func (f *fakePublisher) Publish(ctx context.Context, queueName string, msg queue.Message) error {
	if f.publishFn != nil {
		return f.publishFn(ctx, queueName, msg)
	}
	return nil
}

func (f *fakePublisher) Close() error {
	if f.closeFn != nil {
		return f.closeFn()
	}
	return nil
}

type fakeConsumer struct {
	consumeFn func(ctx context.Context, queueName string, handler queue.MessageHandler) error
	closeFn   func() error
}

func (f *fakeConsumer) Consume(ctx context.Context, queueName string, handler queue.MessageHandler) error {
	if f.consumeFn != nil {
		return f.consumeFn(ctx, queueName, handler)
	}
	<-ctx.Done()
	return nil
}

func (f *fakeConsumer) Close() error {
	if f.closeFn != nil {
		return f.closeFn()
	}
	return nil
}

type fakeRateLimiter struct {
	allowFn func(ctx context.Context, resource string) (bool, error)
	waitFn  func(ctx context.Context, resource string) error
}

func (f *fakeRateLimiter) Allow(ctx context.Context, resource string) (bool, error) {
	if f.allowFn != nil {
		return f.allowFn(ctx, resource)
	}
	return true, nil
}

func (f *fakeRateLimiter) Wait(ctx context.Context, resource string) error {
	if f.waitFn != nil {
		return f.waitFn(ctx, resource)
	}
	return nil
}
