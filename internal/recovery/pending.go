package recovery

import (
	"context"
)

// Pending is the result of an asynchronous operation. It completes exactly once.
type Pending[T any] struct {
	done  chan struct{}
	value T
	err   error
}

func run[T any](f func() (T, error)) *Pending[T] {
	p := &Pending[T]{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		p.value, p.err = f()
	}()
	return p
}

// Done is closed when the operation completes.
func (p *Pending[T]) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the operation completes or ctx is done.
// Giving up on ctx does not stop the operation.
func (p *Pending[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// CreateRecoveryForSecretsAsync runs CreateRecoveryForSecrets in the background.
func (s *Service) CreateRecoveryForSecretsAsync(ctx context.Context, secretIDs []string, passphrase string) *Pending[*CreationInfo] {
	return run(func() (*CreationInfo, error) {
		return s.CreateRecoveryForSecrets(ctx, secretIDs, passphrase)
	})
}

// RecoverSecretsAsync runs RecoverSecrets in the background.
func (s *Service) RecoverSecretsAsync(ctx context.Context, secretIDs []string, key []byte) *Pending[*Outcome] {
	return run(func() (*Outcome, error) {
		return s.RecoverSecrets(ctx, secretIDs, key)
	})
}
