package typedb

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const (
	defaultMaxAttempts  = 10
	defaultInitialDelay = 500 * time.Millisecond
	maxBackoffDelay     = 30 * time.Second
)

// Config holds the connection settings for one TypeDB server.
type Config struct {
	Addr            string
	Database        string
	Username        string
	DefaultPassword string
	NewPassword     string
	Reset           bool
	MaxAttempts     int
	InitialDelay    time.Duration
}

// Executor is the query surface repositories depend on. Session implements
// it; tests substitute a stub.
type Executor interface {
	Read(ctx context.Context, template string, params Params) ([]Document, error)
	Write(ctx context.Context, template string, params Params) error
}

// Session owns the long-lived driver handle. The client reference is set once
// by a successful Connect and treated as read-only afterwards; Close is
// expected only at process shutdown.
type Session struct {
	cfg    Config
	logger *zap.Logger

	mu           sync.Mutex
	client       *Client
	resetPending bool
	seeded       bool
}

// NewSession builds an unconnected session.
func NewSession(cfg Config, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = defaultInitialDelay
	}
	return &Session{cfg: cfg, logger: logger, resetPending: cfg.Reset}
}

// Connect establishes the driver connection, retrying transport failures with
// exponential backoff. Credential rejections inside the bootstrap branch are
// terminal: retrying a wrong password does not make it right.
func (s *Session) Connect(ctx context.Context) error {
	attempts := 0
	var lastErr error

	backoff := retry.WithMaxRetries(uint64(s.cfg.MaxAttempts-1), growingBackoff(s.cfg.InitialDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		if err := s.bootstrap(ctx); err != nil {
			lastErr = err
			if _, ok := err.(*AuthBootstrapError); ok {
				return err
			}
			s.logger.Warn("typedb connect attempt failed",
				zap.Int("attempt", attempts),
				zap.Error(err))
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		if _, ok := err.(*AuthBootstrapError); ok {
			return err
		}
		return &ConnectionExhaustedError{Attempts: attempts, Err: lastErr}
	}

	s.logger.Info("typedb session ready",
		zap.String("addr", s.cfg.Addr),
		zap.Int("attempts", attempts))
	return nil
}

// bootstrap signs in with the rotated password first; if the server still
// only accepts the default password, it rotates and reconnects.
func (s *Session) bootstrap(ctx context.Context) error {
	client := NewClient(s.cfg.Addr)

	err := client.SignIn(ctx, s.cfg.Username, s.cfg.NewPassword)
	if err == nil {
		s.setClient(client)
		return nil
	}
	if !IsAuthError(err) {
		return err
	}

	if err := client.SignIn(ctx, s.cfg.Username, s.cfg.DefaultPassword); err != nil {
		if IsAuthError(err) {
			return &AuthBootstrapError{Err: err}
		}
		return err
	}

	if s.cfg.NewPassword != s.cfg.DefaultPassword {
		if err := client.UpdatePassword(ctx, s.cfg.Username, s.cfg.NewPassword); err != nil {
			return err
		}
		if err := client.SignIn(ctx, s.cfg.Username, s.cfg.NewPassword); err != nil {
			return err
		}
		s.logger.Info("typedb password rotated", zap.String("username", s.cfg.Username))
	}

	s.setClient(client)
	return nil
}

func (s *Session) setClient(c *Client) {
	s.mu.Lock()
	s.client = c
	s.mu.Unlock()
}

func (s *Session) getClient() *Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client
}

// EnsureDatabase creates the database on first use, installing the embedded
// schema and seed. When the reset flag is set the database is wiped and
// recreated once; the flag clears after the first successful pass so later
// calls are idempotent.
func (s *Session) EnsureDatabase(ctx context.Context) error {
	client := s.getClient()

	s.mu.Lock()
	reset := s.resetPending
	s.mu.Unlock()

	exists, err := client.DatabaseExists(ctx, s.cfg.Database)
	if err != nil {
		return err
	}

	if exists && reset {
		s.logger.Warn("resetting database", zap.String("database", s.cfg.Database))
		if err := client.DeleteDatabase(ctx, s.cfg.Database); err != nil {
			return err
		}
		exists = false
	}

	if !exists {
		if err := client.CreateDatabase(ctx, s.cfg.Database); err != nil {
			return err
		}
		if err := s.Schema(ctx, schemaTQL); err != nil {
			return err
		}
		if err := s.Write(ctx, seedTQL, nil); err != nil {
			return err
		}
		s.logger.Info("database created and seeded", zap.String("database", s.cfg.Database))
	}

	s.mu.Lock()
	s.resetPending = false
	s.mu.Unlock()
	return nil
}

// Read builds the template in strict mode and runs it in a read transaction,
// collecting every answer. Template errors surface as-is: they are programmer
// errors, not transaction failures.
func (s *Session) Read(ctx context.Context, template string, params Params) ([]Document, error) {
	query := template
	if params != nil {
		built, err := Build(template, params)
		if err != nil {
			return nil, err
		}
		query = built
	}

	client := s.getClient()
	txID, err := client.OpenTransaction(ctx, s.cfg.Database, TxRead)
	if err != nil {
		return nil, &TransactionError{Kind: TxRead, Err: err}
	}
	defer client.CloseTransaction(context.WithoutCancel(ctx), txID) //nolint:errcheck

	docs, err := client.Query(ctx, txID, query)
	if err != nil {
		return nil, &TransactionError{Kind: TxRead, Err: err}
	}
	return docs, nil
}

// Write builds the template in elide mode and commits it in a write
// transaction. A failed query aborts without commit.
func (s *Session) Write(ctx context.Context, template string, params Params) error {
	query := template
	if params != nil {
		built, err := BuildElide(template, params)
		if err != nil {
			return err
		}
		query = built
	}
	return s.commitTx(ctx, TxWrite, query)
}

// Schema runs a raw definition query in a schema transaction.
func (s *Session) Schema(ctx context.Context, query string) error {
	return s.commitTx(ctx, TxSchema, query)
}

func (s *Session) commitTx(ctx context.Context, kind TransactionKind, query string) error {
	client := s.getClient()
	txID, err := client.OpenTransaction(ctx, s.cfg.Database, kind)
	if err != nil {
		return &TransactionError{Kind: kind, Err: err}
	}

	if _, err := client.Query(ctx, txID, query); err != nil {
		_ = client.CloseTransaction(context.WithoutCancel(ctx), txID)
		return &TransactionError{Kind: kind, Err: err}
	}
	if err := client.Commit(ctx, txID); err != nil {
		return &TransactionError{Kind: kind, Err: err}
	}
	return nil
}

// Ping verifies the server still answers with this session's credentials.
// The readiness endpoint goes through it.
func (s *Session) Ping(ctx context.Context) error {
	client := s.getClient()
	if client == nil {
		return errors.New("session not connected")
	}
	_, err := client.DatabaseExists(ctx, s.cfg.Database)
	return err
}

// Close releases the driver handle. Expected only at process shutdown.
func (s *Session) Close() error {
	s.mu.Lock()
	s.client = nil
	s.mu.Unlock()
	return nil
}

// growingBackoff grows the delay by 1.5x per attempt, capped at 30s. go-retry
// ships a doubling backoff only, so the growth curve is custom.
func growingBackoff(initial time.Duration) retry.Backoff {
	delay := initial
	return retry.BackoffFunc(func() (time.Duration, bool) {
		current := delay
		next := time.Duration(float64(delay) * 1.5)
		if next > maxBackoffDelay {
			next = maxBackoffDelay
		}
		delay = next
		return current, false
	})
}
