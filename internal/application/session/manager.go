// Package session é o contêiner de estado da sessão do usuário.
//
// Não existe instância global: o Manager é criado na inicialização e injetado
// em quem precisa do token ou do usuário logado, inclusive no cliente da API,
// que chama Expire quando o servidor responde 401.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/edfisica/pe-assessment-hub/internal/application/validation"
	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
	"github.com/edfisica/pe-assessment-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDÊNCIAS
// ══════════════════════════════════════════════════════════════════════════════

// Credentials é o resultado de um login ou cadastro bem-sucedido.
type Credentials struct {
	Token string
	User  user.User
}

// Registration são os dados enviados no cadastro.
type Registration struct {
	Name     string
	Email    string
	Password string
	Role     user.Role
}

// Authenticator troca credenciais por um token.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (Credentials, error)
	Register(ctx context.Context, r Registration) (Credentials, error)
}

// Config agrupa as dependências do Manager.
type Config struct {
	Store     Store
	Auth      Authenticator
	Publisher shared.EventPublisher
	Validator *validation.Validator
	Logger    *slog.Logger
}

// ══════════════════════════════════════════════════════════════════════════════
// MANAGER
// ══════════════════════════════════════════════════════════════════════════════

// Manager guarda token e usuário em memória e no Store.
// Os dois valores são gravados e apagados sempre juntos.
type Manager struct {
	store     Store
	auth      Authenticator
	publisher shared.EventPublisher
	validator *validation.Validator
	logger    *slog.Logger

	mu      sync.RWMutex
	token   string
	user    user.User
	lastErr error
}

// NewManager cria um Manager. Sem Store a sessão vive só em memória.
func NewManager(cfg Config) *Manager {
	if cfg.Store == nil {
		cfg.Store = NewMemoryStore()
	}
	if cfg.Validator == nil {
		cfg.Validator = validation.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Manager{
		store:     cfg.Store,
		auth:      cfg.Auth,
		publisher: cfg.Publisher,
		validator: cfg.Validator,
		logger:    cfg.Logger,
	}
}

// Load restaura a sessão gravada.
// Uma sessão pela metade é descartada sem erro. Um usuário ilegível apaga as
// duas chaves e devolve shared.ErrCorruptSession.
func (m *Manager) Load(ctx context.Context) error {
	token, err := m.read(ctx, KeyToken)
	if err != nil {
		return m.discardUnreadable(ctx, err)
	}
	raw, err := m.read(ctx, KeyUser)
	if err != nil {
		return m.discardUnreadable(ctx, err)
	}

	if token == "" || raw == "" {
		m.clear(nil)
		if token != "" || raw != "" {
			return m.store.Delete(ctx, KeyToken, KeyUser)
		}
		return nil
	}

	var u user.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil || u.IsZero() {
		return m.discardCorrupt(ctx)
	}

	m.mu.Lock()
	m.token = token
	m.user = u
	m.mu.Unlock()
	return nil
}

func (m *Manager) discardUnreadable(ctx context.Context, err error) error {
	if errors.Is(err, shared.ErrInvalidFormat) {
		return m.discardCorrupt(ctx)
	}
	return err
}

func (m *Manager) discardCorrupt(ctx context.Context) error {
	m.logger.Warn("stored session is corrupt, clearing it")
	m.clear(shared.ErrCorruptSession)
	if err := m.store.Delete(ctx, KeyToken, KeyUser); err != nil {
		return errors.Join(shared.ErrCorruptSession, err)
	}
	return shared.ErrCorruptSession
}

func (m *Manager) read(ctx context.Context, key string) (string, error) {
	v, err := m.store.Get(ctx, key)
	if err != nil {
		if shared.IsNotFound(err) {
			return "", nil
		}
		return "", fmt.Errorf("session: read %s: %w", key, err)
	}
	return v, nil
}

// Login valida o formulário, autentica e grava a sessão.
func (m *Manager) Login(ctx context.Context, form validation.LoginForm) (user.User, error) {
	form = form.Normalized()
	if err := m.validator.Struct(form); err != nil {
		return user.User{}, m.fail(err)
	}
	if m.auth == nil {
		return user.User{}, m.fail(errors.New("session: no authenticator configured"))
	}

	creds, err := m.auth.Login(ctx, form.Email, form.Password)
	if err != nil {
		return user.User{}, m.fail(err)
	}
	return m.start(ctx, creds)
}

// Register valida o formulário, cria a conta e grava a sessão.
func (m *Manager) Register(ctx context.Context, form validation.RegisterForm) (user.User, error) {
	form = form.Normalized()
	if err := m.validator.Struct(form); err != nil {
		return user.User{}, m.fail(err)
	}
	if m.auth == nil {
		return user.User{}, m.fail(errors.New("session: no authenticator configured"))
	}

	creds, err := m.auth.Register(ctx, Registration{
		Name:     form.Name,
		Email:    form.Email,
		Password: form.Password,
		Role:     user.Role(form.Role),
	})
	if err != nil {
		return user.User{}, m.fail(err)
	}
	return m.start(ctx, creds)
}

func (m *Manager) start(ctx context.Context, creds Credentials) (user.User, error) {
	raw, err := json.Marshal(creds.User)
	if err != nil {
		return user.User{}, m.fail(fmt.Errorf("session: encode user: %w", err))
	}
	if err := m.store.Set(ctx, KeyToken, creds.Token); err != nil {
		return user.User{}, m.fail(fmt.Errorf("session: save token: %w", err))
	}
	if err := m.store.Set(ctx, KeyUser, string(raw)); err != nil {
		_ = m.store.Delete(ctx, KeyToken)
		return user.User{}, m.fail(fmt.Errorf("session: save user: %w", err))
	}

	m.mu.Lock()
	m.token = creds.Token
	m.user = creds.User
	m.lastErr = nil
	m.mu.Unlock()

	m.publish(shared.NewSessionStartedEvent(creds.User.ID, creds.User.Email, string(creds.User.Role)))
	m.logger.Info("session started", "user_id", creds.User.ID, "role", creds.User.Role)
	return creds.User, nil
}

// Logout apaga a sessão e publica session.ended.
func (m *Manager) Logout(ctx context.Context) error {
	userID := m.clear(nil)
	err := m.store.Delete(ctx, KeyToken, KeyUser)
	m.publish(shared.NewSessionEndedEvent(userID))
	if err != nil {
		return fmt.Errorf("session: logout: %w", err)
	}
	return nil
}

// Expire é chamado quando a API recusa o token. Apaga a sessão e publica
// session.expired, cujo assinante leva o usuário de volta ao login.
// Pode ser chamado várias vezes e de várias goroutines.
func (m *Manager) Expire(ctx context.Context, trigger string) {
	userID := m.clear(shared.WrapError("session", "Expire", shared.ErrSessionExpired,
		"sessão expirada, faça login novamente", fmt.Errorf("rejected on %s", trigger)))
	if err := m.store.Delete(ctx, KeyToken, KeyUser); err != nil {
		m.logger.Error("failed to clear expired session", "error", err)
	}
	m.logger.Warn("session expired", "trigger", trigger)
	m.publish(shared.NewSessionExpiredEvent(userID, trigger))
}

func (m *Manager) clear(cause error) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	userID := m.user.ID
	m.token = ""
	m.user = user.User{}
	m.lastErr = cause
	return userID
}

func (m *Manager) fail(err error) error {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
	return err
}

func (m *Manager) publish(event shared.Event) {
	if m.publisher == nil {
		return
	}
	if err := m.publisher.Publish(event); err != nil {
		m.logger.Error("failed to publish session event", "event", event.EventType(), "error", err)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// LEITURA
// ══════════════════════════════════════════════════════════════════════════════

// Token devolve o token atual ou "".
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// User devolve o usuário logado.
func (m *Manager) User() (user.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user, m.token != ""
}

// IsAuthenticated retorna true se há token e usuário.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token != "" && !m.user.IsZero()
}

// Require exige sessão ativa e, se informado, um dos perfis.
func (m *Manager) Require(roles ...user.Role) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.token == "" || m.user.IsZero() {
		return shared.ErrNotAuthenticated
	}
	if len(roles) == 0 {
		return nil
	}
	for _, r := range roles {
		if m.user.Has(r) {
			return nil
		}
	}
	return shared.ErrRoleRequired
}

// LastError devolve o erro da última operação de sessão que falhou.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}
