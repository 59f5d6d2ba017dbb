// Package presenter formata os dados para o terminal.
// Presenters convertem DTOs das queries e resultados dos comandos em texto;
// nenhum deles chama a rede.
package presenter

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
)

// Presenter escreve as telas em um io.Writer.
type Presenter struct {
	out io.Writer
}

// New cria um Presenter.
func New(out io.Writer) *Presenter {
	return &Presenter{out: out}
}

func (p *Presenter) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

func (p *Presenter) println(s string) {
	fmt.Fprintln(p.out, s)
}

// table escreve linhas separadas por tab, alinhadas.
func (p *Presenter) table(header []string, rows [][]string) {
	tw := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	tw.Flush()
}

func (p *Presenter) title(s string) {
	p.println(s)
	p.println(strings.Repeat("─", len([]rune(s))))
}

// ─────────────────────────────────────────────────────────────────────────────
// MENSAGENS
// ─────────────────────────────────────────────────────────────────────────────

// Mensagens genéricas, usadas quando o servidor não manda texto próprio.
const (
	MsgSessionExpired     = "Sua sessão expirou. Faça login novamente com: peassess login"
	MsgNotLoggedIn        = "Você não está logado. Use: peassess login"
	MsgNetwork            = "Não foi possível falar com o servidor. Tente novamente."
	MsgPolicy             = "Operação não permitida."
	MsgForbidden          = "Acesso negado."
	MsgUnexpected         = "Erro inesperado."
	MsgDegraded           = "(servidor indisponível: lista vazia)"
	MsgInvalidCredentials = "Email ou senha inválidos."
)

// ErrorText devolve o alerta mostrado para err.
// O texto do servidor ou da regra tem prioridade sobre a mensagem genérica.
func ErrorText(err error) string {
	switch {
	case err == nil:
		return ""
	case shared.IsSessionExpired(err):
		return MsgSessionExpired
	case errors.Is(err, shared.ErrInvalidCredentials):
		return shared.UserMessage(err, MsgInvalidCredentials)
	case errors.Is(err, shared.ErrUnauthorized):
		return MsgNotLoggedIn
	case errors.Is(err, shared.ErrForbidden):
		return shared.UserMessage(err, MsgForbidden)
	case shared.IsPolicyViolation(err):
		return shared.UserMessage(err, MsgPolicy)
	case shared.IsValidation(err), shared.IsNotFound(err):
		return shared.UserMessage(err, err.Error())
	case shared.IsNetwork(err):
		return shared.UserMessage(err, MsgNetwork)
	default:
		return shared.UserMessage(err, MsgUnexpected)
	}
}

// Alert escreve o alerta de erro.
func (p *Presenter) Alert(err error) {
	if text := ErrorText(err); text != "" {
		p.printf("✖ %s\n", text)
	}
}

// Notice escreve uma linha informativa.
func (p *Presenter) Notice(format string, args ...any) {
	p.printf("• "+format+"\n", args...)
}

// Success escreve uma confirmação.
func (p *Presenter) Success(format string, args ...any) {
	p.printf("✔ "+format+"\n", args...)
}
