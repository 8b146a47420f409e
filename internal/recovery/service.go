package recovery

import (
	"context"
	"errors"
	"fmt"
	"sync"

	kerrors "github.com/PolarWolf314/reclaim/internal/errors"
	"github.com/PolarWolf314/reclaim/internal/inventory"
	logger "github.com/PolarWolf314/reclaim/internal/logging"
	"github.com/PolarWolf314/reclaim/internal/secrets"
	"github.com/PolarWolf314/reclaim/internal/store"
)

// Validator checks a decrypted secret before it is trusted.
type Validator interface {
	IsValid(ctx context.Context, id string, plaintext []byte) bool
}

// ValidatorFunc adapts a function to a Validator.
type ValidatorFunc func(ctx context.Context, id string, plaintext []byte) bool

func (f ValidatorFunc) IsValid(ctx context.Context, id string, plaintext []byte) bool {
	return f(ctx, id, plaintext)
}

// State describes the remote recovery as seen by this device.
type State struct {
	HasRecovery   bool
	UsePassphrase bool

	// KeyID is the default descriptor ID, empty without a recovery.
	KeyID string

	StoredSecrets        []string
	LocallyStoredSecrets []string
}

// CreationInfo is returned once by CreateRecoveryForSecrets.
// PrivateKey and RecoveryKey are not kept anywhere by the service.
type CreationInfo struct {
	Descriptor  *secrets.StorageKeyDescriptor
	PrivateKey  []byte
	RecoveryKey string

	// SecretIDs are the secrets that were backed up.
	SecretIDs []string

	// Replaced is the ID of the default descriptor this one superseded,
	// empty if there was none.
	Replaced string
}

// Outcome is the result of RecoverSecrets.
type Outcome struct {
	// KeyID is the descriptor the secrets were recovered from.
	KeyID string

	// Secrets holds every recovered secret that decrypted and validated.
	Secrets map[string][]byte

	// UpdatedSecrets lists secrets that were absent locally or differed
	// and have been written to the inventory.
	UpdatedSecrets []string

	// InvalidSecrets lists secrets that failed authentication or validation.
	InvalidSecrets []string
}

// Service orchestrates recovery between a local inventory and a remote store.
type Service struct {
	inv      inventory.Inventory
	remote   store.Store
	registry *secrets.Registry

	validators map[string]Validator
	log        logger.Logger

	// createMu serializes mutations of the default descriptor.
	createMu sync.Mutex
	// stateMu is held for writing while a mutation publishes.
	stateMu sync.RWMutex
}

type config struct {
	iterations int
	validators map[string]Validator
	log        logger.Logger
}

// Option configures a Service.
type Option func(*config)

// WithIterations sets the PBKDF2 work factor for new passphrase recoveries.
func WithIterations(n int) Option {
	return func(c *config) {
		c.iterations = n
	}
}

// WithValidator registers v for each of ids.
// Secrets without a validator are always considered valid.
func WithValidator(v Validator, ids ...string) Option {
	return func(c *config) {
		for _, id := range ids {
			c.validators[id] = v
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *config) {
		c.log = l
	}
}

// New creates a Service over inv and remote.
func New(inv inventory.Inventory, remote store.Store, opts ...Option) *Service {
	cfg := &config{
		iterations: secrets.DefaultIterations,
		validators: make(map[string]Validator),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Service{
		inv:        inv,
		remote:     remote,
		registry:   secrets.NewRegistry(remote, cfg.iterations),
		validators: cfg.validators,
		log:        cfg.log,
	}
}

func unavailable(err error) error {
	if errors.Is(err, kerrors.ErrRecoveryStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", kerrors.ErrRecoveryStoreUnavailable, err)
}

// defaultDescriptor returns the default descriptor or nil.
// Callers hold stateMu.
func (s *Service) defaultDescriptor(ctx context.Context) (*secrets.StorageKeyDescriptor, error) {
	desc, err := s.registry.Default(ctx)
	if err != nil {
		return nil, unavailable(err)
	}
	return desc, nil
}

func (s *Service) storedSecrets(ctx context.Context, desc *secrets.StorageKeyDescriptor) ([]string, error) {
	if desc == nil {
		return nil, nil
	}
	ids, err := s.remote.SecretIDs(ctx, desc.ID)
	if err != nil {
		return nil, unavailable(err)
	}
	return ids, nil
}

// State queries the remote store and the inventory.
func (s *Service) State(ctx context.Context) (*State, error) {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	desc, err := s.defaultDescriptor(ctx)
	if err != nil {
		return nil, err
	}
	stored, err := s.storedSecrets(ctx, desc)
	if err != nil {
		return nil, err
	}
	local, err := s.inv.SecretIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing local secrets: %w", err)
	}

	state := &State{
		HasRecovery:          desc != nil,
		UsePassphrase:        desc.UsePassphrase(),
		StoredSecrets:        stored,
		LocallyStoredSecrets: local,
	}
	if desc != nil {
		state.KeyID = desc.ID
	}
	return state, nil
}

// HasRecovery reports whether a default descriptor exists remotely.
func (s *Service) HasRecovery(ctx context.Context) (bool, error) {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	desc, err := s.defaultDescriptor(ctx)
	return desc != nil, err
}

// UsePassphrase reports whether the default descriptor is passphrase derived.
func (s *Service) UsePassphrase(ctx context.Context) (bool, error) {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	desc, err := s.defaultDescriptor(ctx)
	return desc.UsePassphrase(), err
}

// StoredSecrets lists the secrets stored under the default descriptor.
func (s *Service) StoredSecrets(ctx context.Context) ([]string, error) {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	desc, err := s.defaultDescriptor(ctx)
	if err != nil {
		return nil, err
	}
	return s.storedSecrets(ctx, desc)
}

// LocallyStoredSecrets lists the secrets this device can back up.
func (s *Service) LocallyStoredSecrets(ctx context.Context) ([]string, error) {
	ids, err := s.inv.SecretIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing local secrets: %w", err)
	}
	return ids, nil
}

func (s *Service) isValid(ctx context.Context, id string, plaintext []byte) bool {
	v, ok := s.validators[id]
	if !ok {
		return true
	}
	return v.IsValid(ctx, id, plaintext)
}

// dedupe returns ids without repeats, keeping first occurrence order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
