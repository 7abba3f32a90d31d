// Command oxyscene loads a glTF 2.0 document, prints what it contains and optionally keeps
// it resident in a viewer window or reloads it whenever the file changes.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Carmen-Shannon/oxy-gltf/config"
	"github.com/Carmen-Shannon/oxy-gltf/engine/loader"
	"github.com/Carmen-Shannon/oxy-gltf/engine/renderer"
	"github.com/Carmen-Shannon/oxy-gltf/engine/window"

	"github.com/charmbracelet/log"
)

func main() {
	configPath := flag.String("config", "", "TOML configuration file")
	backendName := flag.String("backend", "memory", "resource backend: memory or wgpu")
	dump := flag.Bool("dump", false, "dump the full scene structure instead of a summary")
	watch := flag.Bool("watch", false, "reload the document when the file changes")
	view := flag.Bool("view", false, "open a window cleared to viewer.background and keep the scene resident until it is closed")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <uri>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	logger := cfg.NewLogger(os.Stderr)

	if err := run(cfg, logger, options{
		uri:     flag.Arg(0),
		backend: *backendName,
		dump:    *dump,
		watch:   *watch,
		view:    *view,
	}); err != nil {
		logger.Error("oxyscene failed", "err", err)
		os.Exit(1)
	}
}

// options are the command-line switches.
type options struct {
	uri     string
	backend string
	dump    bool
	watch   bool
	view    bool
}

func run(cfg config.Config, logger *log.Logger, opts options) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var win window.Window
	rendererOpts := []renderer.RendererBuilderOption{renderer.WithLabel("oxyscene")}

	if opts.view {
		if opts.backend != "wgpu" {
			logger.Warn("the viewer needs the wgpu backend; switching", "requested", opts.backend)
			opts.backend = "wgpu"
		}
		w, err := window.NewWindow(
			window.WithTitle(cfg.Viewer.Title),
			window.WithSize(cfg.Viewer.Width, cfg.Viewer.Height),
		)
		if err != nil {
			return err
		}
		defer w.Close()
		win = w
		rendererOpts = append(rendererOpts, renderer.WithSurfaceDescriptor(w.SurfaceDescriptor()))
	}

	backendType, err := parseBackend(opts.backend)
	if err != nil {
		return err
	}
	backend, err := renderer.NewBackend(backendType, rendererOpts...)
	if err != nil {
		return fmt.Errorf("failed to create %s backend: %w", backendType, err)
	}
	defer backend.Release()

	ldr := loader.NewLoader(loader.BackendTypeGLTF,
		append(cfg.LoaderOptions(), loader.WithBackend(backend), loader.WithLogger(logger))...)
	defer ldr.Close()

	s := newSession(ldr, logger, os.Stdout, opts.dump)
	defer s.close()

	if err := s.load(ctx, opts.uri); err != nil {
		return err
	}

	var changes <-chan struct{}
	if opts.watch {
		w, err := newWatcher(s.files(), logger)
		if err != nil {
			return err
		}
		defer w.Close()
		s.follow(w)
		changes = w.Changes()
	}

	switch {
	case win != nil:
		presenter, ok := backend.(renderer.Presenter)
		if !ok {
			return fmt.Errorf("%s backend cannot present to a window", backendType)
		}
		frames := newFrameDriver(presenter, logger, cfg.Viewer.Background)
		frames.resize(win.Width(), win.Height())
		runViewer(ctx, win, s, frames, changes)
	case changes != nil:
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-changes:
				s.reload(ctx)
			}
		}
	}
	return nil
}

// runViewer drives the window's message loop. Reloads and frames run on the loop's
// goroutine, which owns the GPU device.
func runViewer(ctx context.Context, win window.Window, s *session, frames *frameDriver, changes <-chan struct{}) {
	win.SetTitle(s.title())
	win.SetResizeCallback(frames.resize)

	win.SetKeyCallback(func(key window.Key) {
		switch key {
		case window.KeyReload:
			s.reload(ctx)
			win.SetTitle(s.title())
		case window.KeyDump:
			s.print(true)
		}
	})
	win.SetDropCallback(func(paths []string) {
		if len(paths) == 0 {
			return
		}
		if err := s.replace(ctx, paths[0]); err != nil {
			s.logger.Error("failed to open dropped file", "path", paths[0], "err", err)
			return
		}
		win.SetTitle(s.title())
	})
	win.SetUpdateCallback(func() {
		select {
		case <-ctx.Done():
			_ = win.Close()
		case <-changes:
			s.reload(ctx)
			win.SetTitle(s.title())
		default:
		}
		frames.draw()
	})

	win.ProcessMessages()
}

func parseBackend(name string) (renderer.RendererBackendType, error) {
	switch name {
	case "memory":
		return renderer.BackendTypeMemory, nil
	case "wgpu":
		return renderer.BackendTypeWGPU, nil
	default:
		return 0, fmt.Errorf("unknown backend %q: want memory or wgpu", name)
	}
}
