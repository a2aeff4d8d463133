package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/bizsync/internal/backup"
	"github.com/dmitrijs2005/bizsync/internal/blobstore"
	"github.com/dmitrijs2005/bizsync/internal/config"
	"github.com/dmitrijs2005/bizsync/internal/docstore"
	"github.com/dmitrijs2005/bizsync/internal/flagx"
	"github.com/dmitrijs2005/bizsync/internal/localstore"
	"github.com/dmitrijs2005/bizsync/internal/logging"
	"github.com/dmitrijs2005/bizsync/internal/media"
	"github.com/dmitrijs2005/bizsync/internal/mirror"
	"github.com/dmitrijs2005/bizsync/internal/progress"
	"github.com/dmitrijs2005/bizsync/internal/restore"
	"github.com/dmitrijs2005/bizsync/internal/session"
	"golang.org/x/sync/errgroup"
)

// Deps are the stores an App works against.
type Deps struct {
	Local    *localstore.Store
	Remote   docstore.Store
	Blobs    blobstore.Store
	Log      logging.Logger
	Progress progress.Func
	Closers  []io.Closer
}

type App struct {
	config   *config.Config
	log      logging.Logger
	local    *localstore.Store
	backup   *backup.Engine
	restore  *restore.Engine
	session  *session.Holder
	progress progress.Func
	closers  []io.Closer

	in  io.Reader
	out io.Writer
}

func NewApp(c *config.Config, d Deps, in io.Reader, out io.Writer) *App {
	syncer := mirror.NewSyncer(d.Remote, d.Log)
	images := media.NewResolver(c.ContentRoot, c.TempDir)
	return &App{
		config:   c,
		log:      d.Log,
		local:    d.Local,
		backup:   backup.NewEngine(d.Local, d.Remote, d.Blobs, images, syncer, d.Log),
		restore:  restore.NewEngine(d.Local, d.Remote, d.Log),
		session:  session.NewHolder(),
		progress: d.Progress,
		closers:  d.Closers,
		in:       in,
		out:      out,
	}
}

// Build opens every store named by c and returns a ready App.
func Build(ctx context.Context, c *config.Config, in io.Reader, out io.Writer) (*App, error) {
	log := logging.New(c.LogLevel, c.LogFormat, os.Stderr)

	local, err := localstore.Open(ctx, c.LocalDB)
	if err != nil {
		return nil, fmt.Errorf("local store init error: %w", err)
	}
	closers := []io.Closer{local}

	remote, closer, err := openRemote(ctx, c)
	if err != nil {
		closeAll(closers)
		return nil, fmt.Errorf("remote store init error: %w", err)
	}
	if closer != nil {
		closers = append(closers, closer)
	}

	blobs, err := openBlobs(ctx, c)
	if err != nil {
		closeAll(closers)
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	return NewApp(c, Deps{
		Local:    local,
		Remote:   remote,
		Blobs:    blobs,
		Log:      log,
		Progress: progress.NewReporter(out, log),
		Closers:  closers,
	}, in, out), nil
}

// Close releases the stores opened by Build.
func (a *App) Close() error {
	return closeAll(a.closers)
}

func closeAll(cs []io.Closer) error {
	var errs []error
	for i := len(cs) - 1; i >= 0; i-- {
		if err := cs[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			a.log.Info(ctx, "interrupted, stopping")
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// Run executes the command found in args, or the REPL when there is none.
func (a *App) Run(ctx context.Context, args []string) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	a.initSignalHandler(ctx, cancelFunc)

	if tok := a.config.OwnerToken; tok != "" {
		if err := a.Login(ctx, tok); err != nil {
			a.log.Warn(ctx, "configured owner token rejected", "error", err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancelFunc()
		return a.dispatch(ctx, flagx.Positional(args, config.ValueFlags))
	})
	g.Go(func() error {
		a.watchSession(ctx)
		return nil
	})
	return g.Wait()
}

func (a *App) dispatch(ctx context.Context, words []string) error {
	if len(words) == 0 {
		fmt.Fprintln(a.out, "bizsync (type 'help' for commands)")
		runREPL(ctx, a, a.statusLine, a.in, a.out)
		return nil
	}

	switch cmd := words[0]; cmd {
	case "backup":
		return a.Backup(ctx)
	case "restore":
		return a.Restore(ctx)
	case "status":
		return a.Status(ctx)
	case "whoami":
		return a.Whoami(ctx)
	case "help":
		printHelp(a.out, a.isLoggedIn())
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// watchSession logs sign-ins and sign-outs until ctx is done.
func (a *App) watchSession(ctx context.Context) {
	unsubscribe := a.session.Subscribe(func(o *session.Owner) {
		if o == nil {
			a.log.Info(ctx, "signed out")
			return
		}
		a.log.Info(ctx, "signed in", "owner_id", o.ID)
	})
	defer unsubscribe()
	<-ctx.Done()
}
