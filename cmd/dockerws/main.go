// Package main provides the dockerws command-line interface: it lists
// containers and reads, writes and browses files inside them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Cyclone1070/dockerws/internal/bridge"
	"github.com/Cyclone1070/dockerws/internal/config"
	"github.com/Cyclone1070/dockerws/internal/executor"
	"github.com/Cyclone1070/dockerws/internal/filetype"
	"github.com/Cyclone1070/dockerws/internal/host"
	"github.com/Cyclone1070/dockerws/internal/logging"
	"github.com/Cyclone1070/dockerws/internal/metrics"
	"github.com/Cyclone1070/dockerws/internal/remote"
	"github.com/Cyclone1070/dockerws/internal/runtime/docker"
	"github.com/Cyclone1070/dockerws/internal/ui"
	uiservices "github.com/Cyclone1070/dockerws/internal/ui/services"
)

// Exit codes.
const (
	exitOK          = 0
	exitError       = 1
	exitUsage       = 2
	exitUnreachable = 3
)

const usage = `usage: dockerws <command> [arguments]

commands:
  containers                      list running containers
  open <container> <path>         resolve a directory to a docker:// URI
  stat <uri>                      show metadata
  ls <uri>                        list a directory
  cat <uri>                       print a file
  write [-create] [-overwrite] <uri>
                                  store stdin at uri
  mkdir <uri>                     create a directory
  rm [-r] <uri>                   delete
  mv [-overwrite] <old> <new>     rename
  cp [-overwrite] <src> <dst>     copy
  shell <uri>                     print the docker exec command for a terminal at uri
  browse <uri>                    explore interactively
`

// containerRuntime is what the CLI needs from the docker client.
type containerRuntime interface {
	executor.Runner
	EnsureReady(ctx context.Context) error
	ListContainers(ctx context.Context) ([]docker.Container, error)
	Find(ctx context.Context, ref string) (docker.Container, error)
	ShellCommand(containerID, workdir, shell string) []string
}

// Dependencies holds the components required to run the application.
type Dependencies struct {
	Config     *config.Config
	Logger     *zap.Logger
	Runtime    containerRuntime
	Bridge     *bridge.Bridge
	Dispatcher *host.Dispatcher

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// newDependencies wires the executor cache, file operations, bridge and
// dispatcher over rt.
func newDependencies(cfg *config.Config, rt containerRuntime, logger *zap.Logger, m *metrics.Metrics) *Dependencies {
	cache := executor.NewCache(rt, logger, m)
	b := bridge.New(remote.New(cache), cfg.Bridge, logger, m)
	return &Dependencies{
		Config:     cfg,
		Logger:     logger,
		Runtime:    rt,
		Bridge:     b,
		Dispatcher: host.NewDispatcher(b),
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		fmt.Fprintf(os.Stderr, "Using default configuration.\n")
		cfg = config.DefaultConfig()
	}

	args := os.Args[1:]
	logger := newLogger(cfg, args)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)
	if cfg.Metrics.Listen != "" {
		go serveMetrics(cfg.Metrics.Listen, logger)
	}

	deps := newDependencies(cfg, docker.NewClient(cfg), logger, m)
	code := run(ctx, args, deps)
	stop()
	_ = logger.Sync()
	os.Exit(code)
}

// newLogger silences logging for the explorer when it would write over the
// terminal the explorer draws on.
func newLogger(cfg *config.Config, args []string) *zap.Logger {
	if len(args) > 0 && args[0] == "browse" && logging.WritesToTerminal(cfg.Logging) {
		return zap.NewNop()
	}
	return logging.NewOrNop(cfg.Logging)
}

func serveMetrics(addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(prometheus.DefaultGatherer))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info("serving metrics", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Warn("metrics server stopped", zap.Error(err))
	}
}

// run executes one subcommand and returns the process exit code.
func run(ctx context.Context, args []string, deps *Dependencies) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "help" {
		fmt.Fprint(deps.Stderr, usage)
		return exitUsage
	}

	cmd, rest := args[0], args[1:]
	handler, ok := commands[cmd]
	if !ok {
		fmt.Fprintf(deps.Stderr, "dockerws: unknown command %q\n\n%s", cmd, usage)
		return exitUsage
	}

	if err := deps.Runtime.EnsureReady(ctx); err != nil {
		return report(deps, err)
	}

	if err := handler(ctx, deps, rest); err != nil {
		return report(deps, err)
	}
	return exitOK
}

// usageError marks bad command-line arguments.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

// report prints err and picks the exit code. Unreachable containers are kept
// apart from missing files since only the former is worth retrying.
func report(deps *Dependencies, err error) int {
	var usageErr *usageError
	var daemonErr *docker.DaemonError
	var cmdErr *docker.CommandError
	switch {
	case errors.As(err, &usageErr):
		fmt.Fprintf(deps.Stderr, "dockerws: %v\n", err)
		return exitUsage
	case executor.IsConnection(err), errors.As(err, &daemonErr), errors.As(err, &cmdErr):
		fmt.Fprintf(deps.Stderr, "dockerws: container unreachable: %v\n", err)
		return exitUnreachable
	case bridge.IsNotFound(err):
		fmt.Fprintf(deps.Stderr, "dockerws: not found: %v\n", err)
		return exitError
	case executor.IsRemote(err):
		fmt.Fprintf(deps.Stderr, "dockerws: remote command failed: %v\n", err)
		return exitError
	default:
		fmt.Fprintf(deps.Stderr, "dockerws: %v\n", err)
		return exitError
	}
}

type commandFunc func(ctx context.Context, deps *Dependencies, args []string) error

var commands map[string]commandFunc

func init() {
	commands = map[string]commandFunc{
		"containers": runContainers,
		"open":       runOpen,
		"stat":       runStat,
		"ls":         runList,
		"cat":        runCat,
		"write":      runWrite,
		"mkdir":      runMkdir,
		"rm":         runRemove,
		"mv":         runMove,
		"cp":         runCopy,
		"shell":      runShell,
		"browse":     runBrowse,
	}
}

// parseFlags parses fs and checks the number of positional arguments.
func parseFlags(fs *flag.FlagSet, args []string, want int, synopsis string) ([]string, error) {
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return nil, &usageError{msg: fmt.Sprintf("%s: %v", synopsis, err)}
	}
	if fs.NArg() != want {
		return nil, &usageError{msg: "usage: dockerws " + synopsis}
	}
	return fs.Args(), nil
}

func runContainers(ctx context.Context, deps *Dependencies, args []string) error {
	if _, err := parseFlags(flag.NewFlagSet("containers", flag.ContinueOnError), args, 0, "containers"); err != nil {
		return err
	}
	containers, err := deps.Runtime.ListContainers(ctx)
	if err != nil {
		return err
	}
	if len(containers) == 0 {
		fmt.Fprintln(deps.Stdout, "no running containers")
		return nil
	}

	t := table.New().Headers("ID", "NAMES", "IMAGE", "STATUS")
	for _, c := range containers {
		t.Row(c.ShortID(), c.Names, c.Image, c.Status)
	}
	fmt.Fprintln(deps.Stdout, t.Render())
	return nil
}

func runOpen(ctx context.Context, deps *Dependencies, args []string) error {
	pos, err := parseFlags(flag.NewFlagSet("open", flag.ContinueOnError), args, 2, "open <container> <path>")
	if err != nil {
		return err
	}
	c, err := deps.Runtime.Find(ctx, pos[0])
	if err != nil {
		return err
	}
	res, err := deps.Dispatcher.Execute(ctx, host.OpOpen, map[string]any{"container": c.ID, "path": pos[1]})
	if err != nil {
		return err
	}
	fmt.Fprintln(deps.Stdout, res.(bridge.URI).String())
	return nil
}

func runStat(ctx context.Context, deps *Dependencies, args []string) error {
	pos, err := parseFlags(flag.NewFlagSet("stat", flag.ContinueOnError), args, 1, "stat <uri>")
	if err != nil {
		return err
	}
	res, err := deps.Dispatcher.Execute(ctx, host.OpStat, map[string]any{"uri": pos[0]})
	if err != nil {
		return err
	}
	st := res.(filetype.FileStat)
	fmt.Fprintf(deps.Stdout, "path:  %s\n", st.Path)
	fmt.Fprintf(deps.Stdout, "kind:  %s\n", st.Kind)
	fmt.Fprintf(deps.Stdout, "mode:  %o\n", st.Mode)
	fmt.Fprintf(deps.Stdout, "size:  %d\n", st.Size)
	fmt.Fprintf(deps.Stdout, "ctime: %s\n", time.Unix(st.CTime, 0).UTC().Format(time.RFC3339))
	fmt.Fprintf(deps.Stdout, "mtime: %s\n", time.Unix(st.MTime, 0).UTC().Format(time.RFC3339))
	return nil
}

func runList(ctx context.Context, deps *Dependencies, args []string) error {
	pos, err := parseFlags(flag.NewFlagSet("ls", flag.ContinueOnError), args, 1, "ls <uri>")
	if err != nil {
		return err
	}
	res, err := deps.Dispatcher.Execute(ctx, host.OpReadDirectory, map[string]any{"uri": pos[0]})
	if err != nil {
		return err
	}
	for _, e := range res.([]remote.DirEntry) {
		name := e.Name[strings.LastIndexByte(e.Name, '/')+1:]
		if filetype.HasType(e.Kind, filetype.Directory) {
			name += "/"
		}
		fmt.Fprintf(deps.Stdout, "%-12s %s\n", e.Kind, name)
	}
	return nil
}

func runCat(ctx context.Context, deps *Dependencies, args []string) error {
	pos, err := parseFlags(flag.NewFlagSet("cat", flag.ContinueOnError), args, 1, "cat <uri>")
	if err != nil {
		return err
	}
	res, err := deps.Dispatcher.Execute(ctx, host.OpReadFile, map[string]any{"uri": pos[0]})
	if err != nil {
		return err
	}
	_, err = deps.Stdout.Write(res.([]byte))
	return err
}

func runWrite(ctx context.Context, deps *Dependencies, args []string) error {
	fs := flag.NewFlagSet("write", flag.ContinueOnError)
	create := fs.Bool("create", false, "create the file if it does not exist")
	overwrite := fs.Bool("overwrite", false, "replace an existing file")
	pos, err := parseFlags(fs, args, 1, "write [-create] [-overwrite] <uri>")
	if err != nil {
		return err
	}
	content, err := io.ReadAll(deps.Stdin)
	if err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}
	_, err = deps.Dispatcher.Execute(ctx, host.OpWriteFile, map[string]any{
		"uri":     pos[0],
		"content": content,
		"options": map[string]any{"create": *create, "overwrite": *overwrite},
	})
	return err
}

func runMkdir(ctx context.Context, deps *Dependencies, args []string) error {
	pos, err := parseFlags(flag.NewFlagSet("mkdir", flag.ContinueOnError), args, 1, "mkdir <uri>")
	if err != nil {
		return err
	}
	_, err = deps.Dispatcher.Execute(ctx, host.OpCreateDirectory, map[string]any{"uri": pos[0]})
	return err
}

func runRemove(ctx context.Context, deps *Dependencies, args []string) error {
	fs := flag.NewFlagSet("rm", flag.ContinueOnError)
	recursive := fs.Bool("r", false, "remove directories and their contents")
	pos, err := parseFlags(fs, args, 1, "rm [-r] <uri>")
	if err != nil {
		return err
	}
	_, err = deps.Dispatcher.Execute(ctx, host.OpDelete, map[string]any{
		"uri":     pos[0],
		"options": map[string]any{"recursive": *recursive},
	})
	return err
}

func runMove(ctx context.Context, deps *Dependencies, args []string) error {
	return runTransfer(ctx, deps, args, "mv", host.OpRename)
}

func runCopy(ctx context.Context, deps *Dependencies, args []string) error {
	return runTransfer(ctx, deps, args, "cp", host.OpCopy)
}

func runTransfer(ctx context.Context, deps *Dependencies, args []string, name, op string) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	overwrite := fs.Bool("overwrite", false, "replace an existing target")
	pos, err := parseFlags(fs, args, 2, name+" [-overwrite] <source> <target>")
	if err != nil {
		return err
	}
	_, err = deps.Dispatcher.Execute(ctx, op, map[string]any{
		"source":  pos[0],
		"target":  pos[1],
		"options": map[string]any{"overwrite": *overwrite},
	})
	return err
}

func runShell(ctx context.Context, deps *Dependencies, args []string) error {
	pos, err := parseFlags(flag.NewFlagSet("shell", flag.ContinueOnError), args, 1, "shell <uri>")
	if err != nil {
		return err
	}
	uri, err := bridge.ParseURI(pos[0])
	if err != nil {
		return &usageError{msg: err.Error()}
	}
	res, err := deps.Dispatcher.Execute(ctx, host.OpWorkingDirectory, map[string]any{"uri": pos[0]})
	if err != nil {
		return err
	}
	argv := deps.Runtime.ShellCommand(uri.Container, res.(string), deps.Config.Explorer.ShellCommand)
	fmt.Fprintln(deps.Stdout, strings.Join(argv, " "))
	return nil
}

func runBrowse(ctx context.Context, deps *Dependencies, args []string) error {
	pos, err := parseFlags(flag.NewFlagSet("browse", flag.ContinueOnError), args, 1, "browse <uri>")
	if err != nil {
		return err
	}
	// Resolves the root the same way the editor adds a folder.
	uri, err := bridge.ParseURI(pos[0])
	if err != nil {
		return &usageError{msg: err.Error()}
	}
	res, err := deps.Dispatcher.Execute(ctx, host.OpOpen, map[string]any{"container": uri.Container, "path": uri.Path})
	if err != nil {
		return err
	}
	explorer := ui.NewUI(deps.Bridge, res.(bridge.URI), deps.Config.Explorer, uiservices.GlamourRenderer{}, ui.DefaultSpinner)
	return explorer.Start(ctx)
}
