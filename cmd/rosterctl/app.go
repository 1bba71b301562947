package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/helpdesk-roster/rosterweb/internal/core/domain"
	"github.com/helpdesk-roster/rosterweb/internal/core/ports"
	"github.com/helpdesk-roster/rosterweb/internal/core/service"
	"github.com/helpdesk-roster/rosterweb/internal/core/session"
	"github.com/helpdesk-roster/rosterweb/internal/infrastructure/apiclient"
	"github.com/helpdesk-roster/rosterweb/internal/infrastructure/config"
	"github.com/helpdesk-roster/rosterweb/internal/infrastructure/retry"
)

var errUsage = errors.New("usage")

// app holds one process-wide session and the services built on it.
type app struct {
	out      io.Writer
	log      zerolog.Logger
	session  *session.Session
	schedule *service.ScheduleService
	pages    *service.DashboardService
	perf     *service.PerformanceService
	interval time.Duration
}

func newApp(cfg *config.Config, tokens ports.TokenStore, out io.Writer, log zerolog.Logger) *app {
	client := apiclient.New(apiclient.Config{
		BaseURL: cfg.API.BaseURL,
		Origin:  cfg.API.BackendOrigin,
		Timeout: cfg.API.Timeout,
		Trace:   cfg.IsDevelopment(),
	}, tokens, log.With().Str("component", "apiclient").Logger())

	policy := retry.Policy{
		MaxAttempts: cfg.Retry.Attempts,
		BaseDelay:   cfg.Retry.BaseDelay,
		MaxDelay:    cfg.Retry.MaxDelay,
		Factor:      retry.DefaultFactor,
	}

	sess := session.New(client, tokens, log, session.Options{Mock: cfg.MockAuth(), DevRole: cfg.Auth.DevRole})
	client.OnUnauthorized(sess.HandleUnauthorized)

	return &app{
		out:      out,
		log:      log,
		session:  sess,
		schedule: service.NewScheduleService(client, policy, log),
		pages:    service.NewDashboardService(client, policy),
		perf:     service.NewPerformanceService(client, policy),
		interval: service.DefaultRefreshInterval,
	}
}

func (a *app) run(ctx context.Context, args []string) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		return a.login(ctx, rest)
	case "logout":
		a.session.Logout(ctx)
		fmt.Fprintln(a.out, "signed out")
		return nil
	case "help", "-h", "--help":
		usage(a.out)
		return nil
	}

	// Everything else needs a session.
	if err := a.session.Bootstrap(ctx); err != nil || a.session.State() != session.StateAuthenticated {
		return fmt.Errorf("not signed in, run: rosterctl login -u <username>")
	}

	switch cmd {
	case "me":
		return a.print(a.session.User())
	case "dashboard":
		return a.guarded(domain.RoleAssistant, func() (any, error) { return a.pages.StudentDashboard(ctx) })
	case "courses":
		return a.guarded(domain.RoleAssistant, func() (any, error) { return a.pages.Courses(ctx) })
	case "my-schedule":
		return a.guarded(domain.RoleAssistant, func() (any, error) { return a.pages.StudentSchedule(ctx) })
	case "generate":
		return a.generate(ctx, rest)
	case "publish":
		return a.publish(ctx, rest)
	case "availability":
		return a.availability(ctx, rest)
	case "summary":
		return a.summary(ctx, rest)
	case "export":
		return a.export(ctx, rest)
	case "monitor":
		return a.monitor(ctx, rest)
	default:
		usage(a.out)
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(a.out)
	username := fs.String("u", "", "username")
	password := fs.String("p", os.Getenv("ROSTER_PASSWORD"), "password (default $ROSTER_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" || *password == "" {
		return fmt.Errorf("%w: login needs -u and -p", errUsage)
	}

	u, err := a.session.Login(ctx, *username, *password)
	if err != nil {
		var le *domain.LoginError
		if errors.As(err, &le) && le.RequestedAt != "" {
			return fmt.Errorf("%s (requested %s)", le.Message, le.RequestedAt)
		}
		return err
	}
	fmt.Fprintf(a.out, "signed in as %s (%s)\n", displayName(u), u.Role)
	return nil
}

// guarded runs fn when the session satisfies required.
func (a *app) guarded(required string, fn func() (any, error)) error {
	switch d := a.session.Authorize(required); d {
	case session.GuardAllow:
	case session.GuardUnauthorized:
		return fmt.Errorf("this command needs the %s role", required)
	default:
		return fmt.Errorf("not signed in (%s)", d)
	}
	v, err := fn()
	if err != nil {
		return err
	}
	return a.print(v)
}

func (a *app) generate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.SetOutput(a.out)
	start := fs.String("start", "", "first day, YYYY-MM-DD")
	end := fs.String("end", "", "last day, YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return a.guarded(domain.RoleAdmin, func() (any, error) {
		var req domain.GenerateScheduleRequest
		var err error
		if req.StartDate, err = parseDate("start", *start); err != nil {
			return nil, err
		}
		if req.EndDate, err = parseDate("end", *end); err != nil {
			return nil, err
		}
		return a.schedule.Generate(ctx, req)
	})
}

func (a *app) publish(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("publish", flag.ContinueOnError)
	fs.SetOutput(a.out)
	id := fs.String("id", "", "schedule id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return a.guarded(domain.RoleAdmin, func() (any, error) {
		if err := a.schedule.Publish(ctx, domain.PublishScheduleRequest{ScheduleID: *id}); err != nil {
			return nil, err
		}
		return map[string]string{"published": *id}, nil
	})
}

func (a *app) availability(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("availability", flag.ContinueOnError)
	fs.SetOutput(a.out)
	day := fs.String("day", "", "weekday")
	start := fs.String("start", "", "slot start, HH:MM")
	end := fs.String("end", "", "slot end, HH:MM")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return a.guarded(domain.RoleAdmin, func() (any, error) {
		return a.schedule.StaffAvailability(ctx, domain.AvailabilityQuery{Day: *day, StartTime: *start, EndTime: *end})
	})
}

func (a *app) summary(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	fs.SetOutput(a.out)
	id := fs.String("id", "", "schedule id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return a.guarded(domain.RoleAdmin, func() (any, error) { return a.schedule.Summary(ctx, *id) })
}

func (a *app) export(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(a.out)
	id := fs.String("id", "", "schedule id")
	file := fs.String("o", "schedule.pdf", "output file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if d := a.session.Authorize(domain.RoleAdmin); d != session.GuardAllow {
		return fmt.Errorf("export needs the admin role (%s)", d)
	}
	blob, err := a.schedule.ExportPDF(ctx, *id)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*file, blob, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", *file, err)
	}
	fmt.Fprintf(a.out, "wrote %s (%d bytes)\n", *file, len(blob))
	return nil
}

func (a *app) monitor(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("monitor", flag.ContinueOnError)
	fs.SetOutput(a.out)
	interval := fs.Duration("interval", a.interval, "refresh interval")
	once := fs.Bool("once", false, "print one snapshot and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if d := a.session.Authorize(domain.RoleAdmin); d != session.GuardAllow {
		return fmt.Errorf("monitor needs the admin role (%s)", d)
	}

	m := service.NewMonitor(a.perf, *interval, a.log, func(snap *domain.PerformanceSnapshot) {
		_ = a.print(snap)
	})
	if *once {
		_, err := m.Refresh(ctx)
		return err
	}
	m.Run(ctx)
	return nil
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseDate(field, s string) (time.Time, error) {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return time.Time{}, domain.NewValidationError(map[string]string{field + "_date": field + " date must be YYYY-MM-DD"})
	}
	return t, nil
}

func displayName(u *domain.User) string {
	for _, s := range []string{u.Name, u.Username, u.Email, u.ID} {
		if s != "" {
			return s
		}
	}
	return "unknown"
}

// splitProfile pulls a leading -profile flag off args.
func splitProfile(args []string) (string, []string) {
	profile := "default"
	if len(args) >= 2 && (args[0] == "-profile" || args[0] == "--profile") {
		return args[1], args[2:]
	}
	if len(args) >= 1 && strings.HasPrefix(args[0], "-profile=") {
		return strings.TrimPrefix(args[0], "-profile="), args[1:]
	}
	return profile, args
}

func usage(w io.Writer) {
	fmt.Fprint(w, `usage: rosterctl [-profile name] <command> [flags]

commands:
  login -u name [-p password]   sign in and keep the session
  logout                        sign out
  me                            show the signed-in user
  dashboard | my-schedule | courses
  generate -start D -end D      build a roster (admin)
  publish -id ID                publish a roster (admin)
  availability -day D -start T -end T
  summary [-id ID]
  export [-id ID] [-o file]
  monitor [-interval 30s] [-once]
`)
}
