package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/yashrajoria/capture-backend/pkg/docstore"
	"github.com/yashrajoria/capture-backend/services/notification-service/sender"
)

type fakeStore struct {
	mu        sync.Mutex
	uploads   []string
	deletes   []string
	failOn    string
	deleteErr error
}

func (f *fakeStore) Upload(ctx context.Context, key, contentType string, size int64, body io.Reader) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn != "" && strings.HasSuffix(key, f.failOn) {
		return "", errors.New("s3 unavailable")
	}
	if _, err := io.ReadAll(body); err != nil {
		return "", err
	}
	f.uploads = append(f.uploads, key)
	return "https://cdn.test/" + key, nil
}

func (f *fakeStore) Delete(ctx context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, ref)
	return f.deleteErr
}

func blob(name string) FileBlob {
	return FileBlob{
		Name:        name,
		ContentType: "image/jpeg",
		Size:        3,
		Open:        func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader([]byte("img"))), nil },
	}
}

// countingGateway records write calls on top of the in-memory gateway.
type countingGateway struct {
	*docstore.MemoryGateway
	creates, sets, updates, deletes int
	failWrites                      bool
}

func newCountingGateway() *countingGateway {
	return &countingGateway{MemoryGateway: docstore.NewMemoryGateway()}
}

func (g *countingGateway) Create(ctx context.Context, c string, fields interface{}) (string, error) {
	g.creates++
	if g.failWrites {
		return "", docstore.Unavailable("create", errors.New("offline"))
	}
	return g.MemoryGateway.Create(ctx, c, fields)
}

func (g *countingGateway) Set(ctx context.Context, c, id string, fields interface{}) error {
	g.sets++
	if g.failWrites {
		return docstore.Unavailable("set", errors.New("offline"))
	}
	return g.MemoryGateway.Set(ctx, c, id, fields)
}

func (g *countingGateway) Update(ctx context.Context, c, id string, fields interface{}) error {
	g.updates++
	if g.failWrites {
		return docstore.Unavailable("update", errors.New("offline"))
	}
	return g.MemoryGateway.Update(ctx, c, id, fields)
}

func (g *countingGateway) Delete(ctx context.Context, c, id string) error {
	g.deletes++
	return g.MemoryGateway.Delete(ctx, c, id)
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sender.OrderConfirmation
	err  error
}

func (f *fakeNotifier) SendOrderConfirmation(ctx context.Context, p sender.OrderConfirmation) (sender.SendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return sender.SendResult{}, f.err
	}
	f.sent = append(f.sent, p)
	return sender.SendResult{MessageID: "m-" + p.OrderID}, nil
}
