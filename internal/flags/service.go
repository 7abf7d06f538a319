package flags

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// ChangeEvent describes a flag mutation for cross-instance propagation.
type ChangeEvent struct {
	Type string `json:"type"` // "upsert" or "delete"
	Flag Flag   `json:"flag"`
}

// Change event types.
const (
	ChangeUpsert = "upsert"
	ChangeDelete = "delete"
)

// ChangePublisher broadcasts flag mutations to peer instances. Optional;
// a nil publisher means single-instance operation.
type ChangePublisher interface {
	PublishFlagChange(ctx context.Context, event ChangeEvent) error
}

// ServiceConfig holds configuration for the admin flag service.
type ServiceConfig struct {
	Repository Repository
	Registry   *Registry
	Publisher  ChangePublisher
	Logger     zerolog.Logger
}

// Service is the admin mutator for flag state. Every mutation persists to
// the repository, applies to the registry (bumping its version so cached
// decisions invalidate on the very next evaluation), and, when a publisher
// is configured, broadcasts the change to peer instances.
type Service struct {
	repo      Repository
	registry  *Registry
	publisher ChangePublisher
	logger    zerolog.Logger
}

// NewService creates a new admin flag service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		repo:      cfg.Repository,
		registry:  cfg.Registry,
		publisher: cfg.Publisher,
		logger:    cfg.Logger,
	}
}

// LoadIntoRegistry seeds the registry from the repository. Called once at
// startup before any guard evaluates.
func (s *Service) LoadIntoRegistry(ctx context.Context) error {
	all, err := s.repo.GetAllFlags(ctx)
	if err != nil {
		return fmt.Errorf("load flags: %w", err)
	}
	s.registry.Load(all)
	s.logger.Info().Int("count", len(all)).Msg("flag registry loaded")
	return nil
}

// GetFlag retrieves a flag from the registry.
func (s *Service) GetFlag(name string) (Flag, bool) {
	return s.registry.Get(name)
}

// GetAllFlags retrieves every flag from the registry.
func (s *Service) GetAllFlags() map[string]Flag {
	return s.registry.All()
}

// SetFlag persists and applies a single flag mutation.
func (s *Service) SetFlag(ctx context.Context, flag Flag) error {
	if flag.Name == "" {
		return fmt.Errorf("flag name is required")
	}
	if flag.Kind == "" {
		flag.Kind = KindBoolean
	}

	// Persist before touching the registry: a failed write must leave the
	// in-memory gate exactly as it was, or this instance diverges from its
	// durable state and its peers.
	if err := s.repo.SetFlag(ctx, &flag); err != nil {
		return fmt.Errorf("persist flag %q: %w", flag.Name, err)
	}
	version := s.registry.Apply(flag)
	flag.Version = version

	s.publish(ctx, ChangeEvent{Type: ChangeUpsert, Flag: flag})
	s.logger.Info().
		Str("flag", flag.Name).
		Str("kind", string(flag.Kind)).
		Bool("enabled", flag.Enabled).
		Uint64("version", version).
		Msg("flag updated")
	return nil
}

// SetFlags persists and applies multiple flag mutations.
func (s *Service) SetFlags(ctx context.Context, all []Flag) error {
	ptrs := make([]*Flag, 0, len(all))
	for i := range all {
		if all[i].Name == "" {
			return fmt.Errorf("flag name is required")
		}
		if all[i].Kind == "" {
			all[i].Kind = KindBoolean
		}
		ptrs = append(ptrs, &all[i])
	}

	// Same ordering as SetFlag: the registry only moves once the batch is
	// durably written.
	if err := s.repo.SetFlags(ctx, ptrs); err != nil {
		return fmt.Errorf("persist flags: %w", err)
	}

	for i := range all {
		all[i].Version = s.registry.Apply(all[i])
		s.publish(ctx, ChangeEvent{Type: ChangeUpsert, Flag: all[i]})
	}
	return nil
}

// DeleteFlag removes a flag from persistence and the registry.
func (s *Service) DeleteFlag(ctx context.Context, name string) error {
	if err := s.repo.DeleteFlag(ctx, name); err != nil {
		return fmt.Errorf("delete flag %q: %w", name, err)
	}
	s.registry.Remove(name)
	s.publish(ctx, ChangeEvent{Type: ChangeDelete, Flag: Flag{Name: name}})
	s.logger.Info().Str("flag", name).Msg("flag deleted")
	return nil
}

// ApplyEvent applies a change event received from a peer instance.
func (s *Service) ApplyEvent(event ChangeEvent) {
	switch event.Type {
	case ChangeUpsert:
		s.registry.Apply(event.Flag)
	case ChangeDelete:
		s.registry.Remove(event.Flag.Name)
	default:
		s.logger.Warn().Str("type", event.Type).Msg("unknown flag change event type")
	}
}

func (s *Service) publish(ctx context.Context, event ChangeEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishFlagChange(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("flag", event.Flag.Name).Msg("failed to publish flag change")
	}
}
