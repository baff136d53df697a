package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	customlog "github.com/open-teleop/rcdrive/pkg/log"
	"github.com/open-teleop/rcdrive/pkg/store"
	"github.com/open-teleop/rcdrive/pkg/target"
)

// ErrValidation marks a rejected URL.
var ErrValidation = errors.New("validation failed")

// TargetPublisher defines the interface for announcing a new vehicle URL.
// This avoids a direct dependency on the ZeroMQ publisher.
type TargetPublisher interface {
	PublishTargetUpdated(url string) error
}

// KVStore is the part of the key-value store the service needs.
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// TargetService manages the operator-supplied vehicle URL.
type TargetService interface {
	GetURL(ctx context.Context) (string, error)
	SetURL(ctx context.Context, url string) error
	SetPublisher(p TargetPublisher)
}

// targetService implements the TargetService interface.
type targetService struct {
	store     KVStore
	logger    customlog.Logger
	publisher TargetPublisher
	mu        sync.RWMutex
}

// NewTargetService creates a new TargetService.
// Publisher can be set later via SetPublisher.
func NewTargetService(kv KVStore, logger customlog.Logger) (TargetService, error) {
	if kv == nil {
		return nil, fmt.Errorf("target store cannot be nil")
	}
	if logger == nil {
		logger, _ = customlog.NewLogrusLogger("info", "")
		logger.Warnf("No logger provided to TargetService, using default.")
	}
	return &targetService{store: kv, logger: logger}, nil
}

// GetURL returns the saved URL, or target.ErrNoURL when none was saved.
func (s *targetService) GetURL(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, err := s.store.Get(ctx, store.KeyURL)
	if errors.Is(err, store.ErrNotFound) {
		return "", target.ErrNoURL
	}
	if err != nil {
		s.logger.Errorf("Error reading saved vehicle URL: %v", err)
		return "", err
	}
	return u, nil
}

// SetURL validates and persists a new URL, then publishes a notification.
func (s *targetService) SetURL(ctx context.Context, raw string) error {
	u, err := target.ValidateURL(raw)
	if err != nil {
		s.logger.Warnf("Rejected vehicle URL: %v", err)
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Set(ctx, store.KeyURL, u); err != nil {
		s.logger.Errorf("Error saving vehicle URL: %v", err)
		return err
	}
	s.logger.Infof("Saved vehicle URL %s", u)

	if s.publisher != nil {
		// Publish in a separate goroutine to avoid blocking the caller
		go func(publisher TargetPublisher) {
			if err := publisher.PublishTargetUpdated(u); err != nil {
				s.logger.Warnf("Failed to publish target update notification: %v", err)
			} else {
				s.logger.Debugf("Published target update notification.")
			}
		}(s.publisher)
	}
	return nil
}

// SetPublisher allows injecting the TargetPublisher after initialization.
func (s *targetService) SetPublisher(p TargetPublisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publisher = p
	s.logger.Infof("TargetPublisher injected into TargetService.")
}
