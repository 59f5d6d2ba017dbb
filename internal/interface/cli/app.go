// Package cli implements the peassess command-line front-end.
//
// Every command follows the same path: parse flags, check the session, call a
// query or command handler and hand the result to the presenter. Errors are
// printed as alerts and mapped to exit codes.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/edfisica/pe-assessment-hub/config"
	"github.com/edfisica/pe-assessment-hub/internal/application/command"
	"github.com/edfisica/pe-assessment-hub/internal/application/query"
	"github.com/edfisica/pe-assessment-hub/internal/application/validation"
	"github.com/edfisica/pe-assessment-hub/internal/domain/classroom"
	"github.com/edfisica/pe-assessment-hub/internal/domain/evaluation"
	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
	"github.com/edfisica/pe-assessment-hub/internal/domain/student"
	"github.com/edfisica/pe-assessment-hub/internal/domain/user"
	"github.com/edfisica/pe-assessment-hub/internal/infrastructure/observability"
	"github.com/edfisica/pe-assessment-hub/internal/interface/cli/presenter"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitError   = 1
	ExitUsage   = 2
	ExitSession = 3
)

// errUsage marks bad command lines.
var errUsage = errors.New("usage")

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// Session is the part of session.Manager the CLI uses.
type Session interface {
	Load(ctx context.Context) error
	Login(ctx context.Context, form validation.LoginForm) (user.User, error)
	Register(ctx context.Context, form validation.RegisterForm) (user.User, error)
	Logout(ctx context.Context) error
	User() (user.User, bool)
	Require(roles ...user.Role) error
	LastError() error
}

// Subscriber registers event handlers.
type Subscriber interface {
	Subscribe(eventType shared.EventType, handler shared.EventHandler) error
}

// Bus publishes domain events and lets the CLI listen to them.
type Bus interface {
	shared.EventPublisher
	Subscriber
}

// Deps holds everything the App needs.
type Deps struct {
	Session     Session
	Students    student.Repository
	Classes     classroom.Repository
	Evaluations evaluation.Repository
	Bus         Bus

	Features *config.FeatureFlags
	Metrics  *observability.Metrics

	// Concurrency bounds the per-student fan-outs.
	Concurrency config.ConcurrencyConfig

	// ExportDir is where progress workbooks go when -xlsx has no directory.
	ExportDir string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// ReadPassword reads a password without echo. Falls back to a line from Stdin.
	ReadPassword func() (string, error)

	Logger *slog.Logger
	Now    func() time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// APP
// ══════════════════════════════════════════════════════════════════════════════

// App wires the handlers behind the CLI commands.
type App struct {
	deps Deps
	out  *presenter.Presenter
	errs *presenter.Presenter
	nav  *Navigator
	in   *lineReader

	view *query.RosterView

	students    *command.StudentHandler
	classes     *command.ClassHandler
	roster      *command.RosterHandler
	evaluations *command.EvaluationHandler

	listStudents *query.ListStudentsHandler
	listClasses  *query.ListClassesHandler
	dashboard    *query.GetDashboardHandler
	progress     *query.GetProgressHandler
	status       *query.EvaluationStatusHandler
}

type commandFunc func(ctx context.Context, args []string) error

type cliCommand struct {
	run       commandFunc
	public    bool
	summary   string
	arguments string
}

// NewApp creates the App and subscribes its navigator to session events.
func NewApp(deps Deps) (*App, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Features == nil {
		deps.Features = config.LoadFeatureFlags()
	}
	if deps.ExportDir == "" {
		deps.ExportDir = "."
	}

	a := &App{
		deps: deps,
		out:  presenter.New(deps.Stdout),
		errs: presenter.New(deps.Stderr),
		in:   newLineReader(deps.Stdin),
	}
	if a.deps.ReadPassword == nil {
		a.deps.ReadPassword = a.in.readLine
	}

	a.nav = NewNavigator(deps.Stderr)
	if deps.Bus != nil {
		if err := a.nav.Attach(deps.Bus); err != nil {
			return nil, fmt.Errorf("subscribe navigator: %w", err)
		}
	}

	v := validation.New()
	log := deps.Logger
	a.view = query.NewRosterView(deps.Students, deps.Classes, log)
	a.students = command.NewStudentHandler(deps.Students, a.view, v, log)
	a.classes = command.NewClassHandler(deps.Classes, a.view, v, log)
	a.roster = command.NewRosterHandler(deps.Classes, a.view, deps.Bus, log)
	a.evaluations = command.NewEvaluationHandler(deps.Evaluations, a.view, v, deps.Bus, log)
	a.listStudents = query.NewListStudentsHandler(a.view, log)
	a.listClasses = query.NewListClassesHandler(a.view, log)
	a.dashboard = query.NewGetDashboardHandler(a.view, deps.Session, log)
	a.progress = query.NewGetProgressHandler(deps.Evaluations, log)
	a.status = query.NewEvaluationStatusHandler(a.view, deps.Evaluations, log)
	return a, nil
}

func (a *App) commands() map[string]cliCommand {
	return map[string]cliCommand{
		"login":     {run: a.login, public: true, summary: "entrar com email e senha", arguments: "-email EMAIL"},
		"register":  {run: a.register, public: true, summary: "criar conta", arguments: "-name NOME -email EMAIL [-role professor|coordenador]"},
		"logout":    {run: a.logout, public: true, summary: "sair"},
		"features":  {run: a.features, public: true, summary: "listar recursos opcionais"},
		"whoami":    {run: a.whoami, summary: "mostrar o usuário logado"},
		"dashboard": {run: a.showDashboard, summary: "painel com totais"},
		"students":  {run: a.studentsCmd, summary: "alunos", arguments: "[list|show|create|update|delete|observe]"},
		"classes":   {run: a.classesCmd, summary: "turmas", arguments: "[list|show|create|update|delete|available [-grade N]]"},
		"enroll":    {run: a.enroll, summary: "matricular aluno", arguments: "-class ID -student ID"},
		"unenroll":  {run: a.unenroll, summary: "remover aluno da turma", arguments: "-class ID -student ID"},
		"evaluate":  {run: a.evaluate, summary: "registrar avaliação", arguments: "-student ID | -class ID [-score criterio=nota ...]"},
		"status":    {run: a.statusCmd, summary: "situação das avaliações", arguments: "[-class ID]"},
		"progress":  {run: a.progressCmd, summary: "evolução por critério", arguments: "-student ID | -class ID [-server] [-xlsx ARQUIVO]"},
	}
}

// Run executes one command line and returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	defer a.view.Close()

	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		a.usage(a.deps.Stdout)
		return ExitOK
	}
	name, rest := args[0], args[1:]
	cmd, ok := a.commands()[name]
	if !ok {
		fmt.Fprintf(a.deps.Stderr, "comando desconhecido: %s\n\n", name)
		a.usage(a.deps.Stderr)
		return ExitUsage
	}

	if err := a.deps.Session.Load(ctx); err != nil {
		if !errors.Is(err, shared.ErrCorruptSession) {
			return a.finish(name, err)
		}
		a.errs.Notice("Sessão gravada estava corrompida e foi descartada.")
	}
	if !cmd.public {
		if err := a.deps.Session.Require(); err != nil {
			return a.finish(name, err)
		}
	}

	err := a.guard(name, func() error { return cmd.run(ctx, rest) })
	return a.finish(name, err)
}

func (a *App) finish(name string, err error) int {
	if a.deps.Metrics != nil {
		a.deps.Metrics.ObserveCommand(name, err)
	}
	if err == nil {
		if a.nav.Expired() {
			return ExitSession
		}
		return ExitOK
	}
	if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
		return ExitUsage
	}
	if errors.Is(err, context.Canceled) {
		a.errs.Notice("Operação cancelada.")
		return ExitError
	}

	observability.CaptureErr(err, name)
	a.deps.Logger.Debug("command failed", "command", name, "error", err)

	// The navigator prints the expiry notice itself.
	if !a.nav.Expired() {
		a.errs.Alert(err)
	}
	if a.nav.Expired() || shared.IsSessionExpired(err) || errors.Is(err, shared.ErrUnauthorized) {
		return ExitSession
	}
	return ExitError
}

func (a *App) usage(w io.Writer) {
	fmt.Fprintln(w, "uso: peassess <comando> [opções]")
	fmt.Fprintln(w)
	cmds := a.commands()
	names := make([]string, 0, len(cmds))
	for n := range cmds {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		s := cmds[n]
		fmt.Fprintf(w, "  %-10s %s", n, s.summary)
		if s.arguments != "" {
			fmt.Fprintf(w, "  (%s)", s.arguments)
		}
		fmt.Fprintln(w)
	}
}

// featureContext describes the logged user for feature flag checks.
func (a *App) featureContext() *config.FeatureContext {
	u, ok := a.deps.Session.User()
	if !ok {
		return nil
	}
	return &config.FeatureContext{UserID: u.ID, IsCoordinator: u.Has(user.RoleCoordinator)}
}

func (a *App) enabled(feature string) bool {
	return a.deps.Features.IsEnabled(feature, a.featureContext())
}

func (a *App) requireFeature(feature string) error {
	if a.enabled(feature) {
		return nil
	}
	return shared.NewDomainError("cli", "Feature", shared.ErrPolicyViolation,
		fmt.Sprintf("recurso desativado: %s", feature))
}

// newFlagSet creates a flag set that reports errors instead of exiting.
func (a *App) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("peassess "+name, flag.ContinueOnError)
	fs.SetOutput(a.deps.Stderr)
	return fs
}

// parse parses args and rejects stray positional arguments beyond max.
func parse(fs *flag.FlagSet, args []string, max int) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() > max {
		fmt.Fprintf(fs.Output(), "argumentos inesperados: %s\n", strings.Join(fs.Args()[max:], " "))
		return errUsage
	}
	return nil
}

// setFlags returns the names of the flags given on the command line.
func setFlags(fs *flag.FlagSet) map[string]bool {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func usageError(w io.Writer, format string, args ...any) error {
	fmt.Fprintf(w, format+"\n", args...)
	return errUsage
}
