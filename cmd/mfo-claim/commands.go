package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mfo-tools/mfo-claim/internal/accounts"
	"github.com/mfo-tools/mfo-claim/internal/captcha"
	"github.com/mfo-tools/mfo-claim/internal/config"
	"github.com/mfo-tools/mfo-claim/internal/domain"
	"github.com/mfo-tools/mfo-claim/internal/mfoapi"
	"github.com/mfo-tools/mfo-claim/internal/notify"
	"github.com/mfo-tools/mfo-claim/internal/runner"
	"github.com/mfo-tools/mfo-claim/internal/runstore"
	"github.com/mfo-tools/mfo-claim/internal/schedule"
	"github.com/mfo-tools/mfo-claim/tui"
	"github.com/mfo-tools/mfo-claim/web/api"
)

var (
	historyCount int
	servePort    int
)

func init() {
	runCmd := &cobra.Command{
		Use:   "run [ACCOUNT]",
		Short: "Run a claim for one account",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runClaim,
	}
	rootCmd.AddCommand(runCmd)

	accountsCmd := &cobra.Command{
		Use:   "accounts",
		Short: "List configured accounts",
		RunE:  runAccounts,
	}
	rootCmd.AddCommand(accountsCmd)

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent runs",
		RunE:  runHistory,
	}
	historyCmd.Flags().IntVar(&historyCount, "count", 20, "number of runs to show")
	rootCmd.AddCommand(historyCmd)

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the check-in reminder daemon",
		RunE:  runWatch,
	}
	rootCmd.AddCommand(watchCmd)

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "Launch the interactive terminal interface",
		RunE:  runTUI,
	}
	rootCmd.AddCommand(tuiCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web interface server",
		RunE:  runServe,
	}
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	return config.Load(path)
}

// stack is the wired application core shared by every command
type stack struct {
	cfg      *config.Config
	client   *mfoapi.Client
	gate     *captcha.Gate
	store    *runstore.Store
	notifier notify.Notifier
	runner   *runner.Runner
}

func buildStack() (*stack, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	client, err := mfoapi.New(cfg.General.BaseURL, cfg.General.HTTPTimeout())
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.General.DatabasePath), 0o755); err != nil {
		return nil, err
	}
	store, err := runstore.New(cfg.General.DatabasePath)
	if err != nil {
		return nil, err
	}

	var notifiers []notify.Notifier
	if cfg.Notifications.Desktop {
		notifiers = append(notifiers, notify.NewDesktopNotifier(true))
	}
	if cfg.Notifications.SlackWebhook != "" {
		notifiers = append(notifiers, notify.NewSlackNotifier(cfg.Notifications.SlackWebhook))
	}

	gate := captcha.NewGate(client)
	notifier := notify.NewMultiNotifier(notifiers...)

	return &stack{
		cfg:      cfg,
		client:   client,
		gate:     gate,
		store:    store,
		notifier: notifier,
		runner:   runner.New(client, gate, store, notifier),
	}, nil
}

func (s *stack) close() {
	s.store.Close()
}

// accountList is a watcher-refreshed view of the account file
type accountList struct {
	mu   sync.RWMutex
	list []domain.Account
}

func (a *accountList) set(list []domain.Account) {
	a.mu.Lock()
	a.list = list
	a.mu.Unlock()
}

func (a *accountList) get() []domain.Account {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.list
}

func runClaim(cmd *cobra.Command, args []string) error {
	s, err := buildStack()
	if err != nil {
		return err
	}
	defer s.close()

	list, err := accounts.Load(s.cfg.General.AccountsPath)
	if err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}
	if len(list) == 0 {
		return fmt.Errorf("no accounts in %s", s.cfg.General.AccountsPath)
	}

	account := list[0]
	if len(args) == 1 {
		found, ok := accounts.Find(list, args[0])
		if !ok {
			return fmt.Errorf("unknown account %q", args[0])
		}
		account = found
	}

	ctx := cmd.Context()
	if err := s.gate.Refresh(ctx); err != nil {
		return fmt.Errorf("fetch captcha: %w", err)
	}

	captchaPath := filepath.Join(os.TempDir(), "mfo-captcha.jpg")
	if err := os.WriteFile(captchaPath, s.gate.Image(), 0o644); err != nil {
		return fmt.Errorf("save captcha: %w", err)
	}

	fmt.Printf("Captcha image saved to %s\n", captchaPath)
	fmt.Print("Captcha answer: ")
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return err
	}
	s.gate.SetAnswer(strings.TrimSpace(answer))

	runID, err := s.runner.Start(ctx, account)
	if err != nil {
		return err
	}

	for event := range s.runner.Events() {
		if event.RunID != runID {
			continue
		}
		fmt.Printf("%s  %-14s %s\n", event.Time.Format("15:04:05"), event.Stage, event.Message)
		if event.Stage.Terminal() {
			if event.Stage == domain.StageFailed {
				return fmt.Errorf("run failed: %s", event.Message)
			}
			return nil
		}
	}
	return nil
}

func runAccounts(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	list, err := accounts.Load(cfg.General.AccountsPath)
	if err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LABEL\tUSERNAME")
	for _, a := range list {
		label := a.Label
		if label == "" {
			label = "-"
		}
		fmt.Fprintf(w, "%s\t%s\n", label, a.Username)
	}
	return w.Flush()
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := runstore.New(cfg.General.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(historyCount)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tUSERNAME\tSTATUS\tDAY\tBONUS")
	for _, r := range runs {
		day := "-"
		if r.DayNo > 0 {
			day = fmt.Sprintf("%d", r.DayNo)
		}
		bonus := ""
		if r.BonusDay {
			bonus = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.StartedAt.Format(time.DateTime), r.Username, r.Status, day, bonus)
	}
	return w.Flush()
}

func runWatch(cmd *cobra.Command, args []string) error {
	s, err := buildStack()
	if err != nil {
		return err
	}
	defer s.close()

	if !s.cfg.Schedule.Enabled {
		return fmt.Errorf("schedule is disabled, set [schedule] enabled = true")
	}

	live := &accountList{}
	if list, err := accounts.Load(s.cfg.General.AccountsPath); err == nil {
		live.set(list)
	} else {
		fmt.Fprintf(os.Stderr, "load accounts: %v\n", err)
	}

	watcher, err := accounts.NewWatcher(s.cfg.General.AccountsPath, live.set)
	if err != nil {
		return err
	}
	defer watcher.Stop()

	reminder, err := schedule.NewReminder(s.cfg.Schedule.Cron, live.get, s.store, s.notifier)
	if err != nil {
		return fmt.Errorf("bad cron expression %q: %w", s.cfg.Schedule.Cron, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher.Start(ctx)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		reminder.Start()
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		reminder.Stop()
		return ctx.Err()
	})

	fmt.Printf("Watching %s, next reminder at %s\n",
		s.cfg.General.AccountsPath, reminder.NextFiring().Format(time.DateTime))

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	s, err := buildStack()
	if err != nil {
		return err
	}
	defer s.close()

	list, err := accounts.Load(s.cfg.General.AccountsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load accounts: %v\n", err)
	}

	model := tui.NewModel(tui.ModelConfig{
		Runner:      s.runner,
		Gate:        s.gate,
		History:     s.store,
		Accounts:    list,
		CaptchaFile: filepath.Join(os.TempDir(), "mfo-captcha.jpg"),
	})

	p := tea.NewProgram(model, tea.WithAltScreen())

	watcher, err := accounts.NewWatcher(s.cfg.General.AccountsPath, func(list []domain.Account) {
		p.Send(tui.AccountsMsg(list))
	})
	if err == nil {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		watcher.Start(ctx)
		defer watcher.Stop()
	} else {
		fmt.Fprintf(os.Stderr, "accounts watcher: %v\n", err)
	}

	_, err = p.Run()
	return err
}

func runServe(cmd *cobra.Command, args []string) error {
	s, err := buildStack()
	if err != nil {
		return err
	}
	defer s.close()

	live := &accountList{}
	if list, err := accounts.Load(s.cfg.General.AccountsPath); err == nil {
		live.set(list)
	} else {
		fmt.Fprintf(os.Stderr, "load accounts: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher, err := accounts.NewWatcher(s.cfg.General.AccountsPath, live.set)
	if err == nil {
		watcher.Start(ctx)
		defer watcher.Stop()
	} else {
		fmt.Fprintf(os.Stderr, "accounts watcher: %v\n", err)
	}

	port := servePort
	if port == 0 {
		port = s.cfg.Web.Port
	}
	addr := fmt.Sprintf("%s:%d", s.cfg.Web.Host, port)

	server := api.NewServer(s.store, s.runner, s.gate, live.get, addr)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(server.Start)

	if s.cfg.Schedule.Enabled {
		reminder, err := schedule.NewReminder(s.cfg.Schedule.Cron, live.get, s.store, s.notifier)
		if err != nil {
			return fmt.Errorf("bad cron expression %q: %w", s.cfg.Schedule.Cron, err)
		}
		g.Go(func() error {
			reminder.Start()
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			reminder.Stop()
			return ctx.Err()
		})
	}

	fmt.Printf("Starting web interface at http://%s\n", addr)
	return g.Wait()
}
