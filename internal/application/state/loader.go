// Package state guarda o resultado da carga mais recente de uma tela.
package state

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrSuperseded é devolvido a uma carga que foi substituída por outra.
	ErrSuperseded = errors.New("load superseded")

	// ErrClosed é devolvido depois de Close.
	ErrClosed = errors.New("loader closed")
)

// Loader executa cargas com escopo: iniciar uma carga cancela a anterior e
// só o resultado da carga mais recente é guardado. Depois de Close nenhum
// resultado é aceito.
type Loader[T any] struct {
	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	closed bool

	value  T
	err    error
	loaded bool
}

// NewLoader cria um Loader vazio.
func NewLoader[T any]() *Loader[T] {
	return &Loader[T]{}
}

// Load cancela a carga em andamento, executa fn e guarda o resultado se
// nenhuma carga mais nova começou nesse meio tempo.
func (l *Loader[T]) Load(ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return zero, ErrClosed
	}
	if l.cancel != nil {
		l.cancel()
	}
	l.seq++
	seq := l.seq
	loadCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.mu.Unlock()

	v, err := fn(loadCtx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		cancel()
		return zero, ErrClosed
	}
	if seq != l.seq {
		return zero, ErrSuperseded
	}
	cancel()
	l.cancel = nil
	l.value, l.err, l.loaded = v, err, true
	return v, err
}

// Value devolve o último resultado guardado.
func (l *Loader[T]) Value() (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value, l.loaded && l.err == nil
}

// Err devolve o erro da última carga guardada.
func (l *Loader[T]) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Close cancela a carga em andamento e descarta as futuras.
func (l *Loader[T]) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}

// IsDiscarded retorna true para os erros de carga descartada.
func IsDiscarded(err error) bool {
	return errors.Is(err, ErrSuperseded) || errors.Is(err, ErrClosed)
}
