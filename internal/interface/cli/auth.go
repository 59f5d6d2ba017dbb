package cli

import (
	"context"
	"fmt"

	"github.com/edfisica/pe-assessment-hub/internal/application/validation"
	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION COMMANDS
// ══════════════════════════════════════════════════════════════════════════════

func (a *App) login(ctx context.Context, args []string) error {
	fs := a.newFlagSet("login")
	email := fs.String("email", "", "email da conta")
	if err := parse(fs, args, 0); err != nil {
		return err
	}

	var err error
	if *email == "" {
		if *email, err = a.ask("Email"); err != nil {
			return err
		}
	}
	password, err := a.askPassword("Senha")
	if err != nil {
		return err
	}

	u, err := a.deps.Session.Login(ctx, validation.LoginForm{Email: *email, Password: password})
	if err != nil {
		return err
	}
	a.out.Success("Bem-vindo(a), %s (%s).", u.Name, u.Role.Label())
	return nil
}

func (a *App) register(ctx context.Context, args []string) error {
	fs := a.newFlagSet("register")
	name := fs.String("name", "", "nome completo")
	email := fs.String("email", "", "email")
	role := fs.String("role", "", "perfil: professor ou coordenador")
	if err := parse(fs, args, 0); err != nil {
		return err
	}

	var err error
	if *name == "" {
		if *name, err = a.ask("Nome"); err != nil {
			return err
		}
	}
	if *email == "" {
		if *email, err = a.ask("Email"); err != nil {
			return err
		}
	}
	password, err := a.askPassword("Senha")
	if err != nil {
		return err
	}
	confirm, err := a.askPassword("Confirme a senha")
	if err != nil {
		return err
	}

	u, err := a.deps.Session.Register(ctx, validation.RegisterForm{
		Name:            *name,
		Email:           *email,
		Password:        password,
		ConfirmPassword: confirm,
		Role:            *role,
	})
	if err != nil {
		return err
	}
	a.out.Success("Conta criada. Bem-vindo(a), %s.", u.Name)
	return nil
}

func (a *App) logout(ctx context.Context, args []string) error {
	if err := parse(a.newFlagSet("logout"), args, 0); err != nil {
		return err
	}
	if _, ok := a.deps.Session.User(); !ok {
		a.out.Notice("Nenhuma sessão ativa.")
		return nil
	}
	if err := a.deps.Session.Logout(ctx); err != nil {
		return err
	}
	a.out.Success("Sessão encerrada.")
	return nil
}

func (a *App) whoami(_ context.Context, args []string) error {
	if err := parse(a.newFlagSet("whoami"), args, 0); err != nil {
		return err
	}
	u, ok := a.deps.Session.User()
	if !ok {
		return shared.ErrNotAuthenticated
	}
	a.out.WhoAmI(u)
	return nil
}

func (a *App) features(_ context.Context, args []string) error {
	if err := parse(a.newFlagSet("features"), args, 0); err != nil {
		return err
	}
	fctx := a.featureContext()
	for _, f := range a.deps.Features.All() {
		state := "desligado"
		if a.deps.Features.IsEnabled(f.Name, fctx) {
			state = "ligado"
		}
		fmt.Fprintf(a.deps.Stdout, "%-28s %-9s %s\n", f.Name, state, f.Description)
	}
	return nil
}
