package main

import (
	"context"
	"fmt"
	"io"
	"path"
	"text/tabwriter"

	"github.com/Carmen-Shannon/oxy-gltf/engine/loader"
	"github.com/Carmen-Shannon/oxy-gltf/engine/model"

	"github.com/charmbracelet/log"
	"github.com/davecgh/go-spew/spew"
)

// session owns the scene currently shown by the command.
type session struct {
	loader loader.Loader
	logger *log.Logger
	out    io.Writer
	dump   bool

	uri   string
	scene *model.Scene

	// watch, when set, follows the document and its dependencies after each load
	watch *watcher
}

var spewConfig = func() *spew.ConfigState {
	c := spew.NewDefaultConfig()
	c.DisableCapacities = true
	c.DisablePointerAddresses = true
	c.MaxDepth = 6
	return c
}()

func newSession(l loader.Loader, logger *log.Logger, out io.Writer, dump bool) *session {
	return &session{loader: l, logger: logger, out: out, dump: dump}
}

// load imports uri and prints it. The previous scene, if any, stays loaded.
func (s *session) load(ctx context.Context, uri string) error {
	scene, err := s.loader.Load(ctx, uri)
	if err != nil {
		return err
	}
	s.uri, s.scene = uri, scene
	s.print(s.dump)
	s.rewatch()
	return nil
}

// reload disposes the current scene and imports its document again. A failed reload
// leaves no scene loaded and is only logged, so a watcher can retry on the next change.
func (s *session) reload(ctx context.Context) {
	if s.uri == "" {
		return
	}
	s.logger.Info("reloading", "uri", s.uri)
	s.loader.Dispose(s.scene)
	s.scene = nil

	scene, err := s.loader.Load(ctx, s.uri)
	if err != nil {
		s.logger.Error("reload failed", "uri", s.uri, "err", err)
		return
	}
	s.scene = scene
	s.print(s.dump)
	s.rewatch()
}

// replace swaps the current scene for the document at uri.
func (s *session) replace(ctx context.Context, uri string) error {
	scene, err := s.loader.Load(ctx, uri)
	if err != nil {
		return err
	}
	if s.scene != scene {
		s.loader.Dispose(s.scene)
	}
	s.uri, s.scene = uri, scene
	s.print(s.dump)
	s.rewatch()
	return nil
}

// files returns the document and the external files the current scene was built from.
func (s *session) files() []string {
	if s.uri == "" {
		return nil
	}
	files := []string{s.uri}
	if s.scene != nil {
		files = append(files, s.scene.Dependencies...)
	}
	return files
}

// follow starts tracking the session's files with w.
func (s *session) follow(w *watcher) {
	s.watch = w
	s.rewatch()
}

// rewatch points the watcher at the current files. After a failed reload the previous
// set is kept so that fixing a broken dependency still triggers a reload.
func (s *session) rewatch() {
	if s.watch == nil {
		return
	}
	if err := s.watch.Watch(s.files()); err != nil {
		s.logger.Warn("failed to update watched files", "err", err)
	}
}

func (s *session) close() {
	s.loader.Dispose(s.scene)
	s.scene = nil
}

func (s *session) title() string {
	if s.scene == nil {
		return fmt.Sprintf("oxyscene - %s (not loaded)", path.Base(s.uri))
	}
	return fmt.Sprintf("oxyscene - %s", s.scene.Name)
}

func (s *session) print(full bool) {
	if s.scene == nil {
		return
	}
	if full {
		spewConfig.Fdump(s.out, s.scene)
		return
	}
	writeSummary(s.out, s.scene)
}

// writeSummary prints counts, the node tree and the animation clips of a scene.
func writeSummary(w io.Writer, scene *model.Scene) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "scene\t%s\n", scene.Name)
	fmt.Fprintf(tw, "uri\t%s\n", scene.URI)
	fmt.Fprintf(tw, "id\t%s\n", scene.ID)
	fmt.Fprintf(tw, "meshes\t%d\n", len(scene.Meshes))
	fmt.Fprintf(tw, "nodes\t%d\n", len(scene.Nodes))
	fmt.Fprintf(tw, "skins\t%d\n", len(scene.Skins))
	fmt.Fprintf(tw, "materials\t%d\n", len(scene.Materials))
	fmt.Fprintf(tw, "animations\t%d\n", len(scene.AnimationOrder))
	fmt.Fprintf(tw, "handles\t%d\n", scene.LiveHandles())
	tw.Flush()

	if len(scene.RootNodes) > 0 {
		fmt.Fprintln(w, "\nnodes:")
		scene.Traverse(func(n *model.Node, depth int) bool {
			label := n.Name
			if label == "" {
				label = fmt.Sprintf("#%d", n.ID)
			}
			if n.Mesh != nil && *n.Mesh < len(scene.Meshes) {
				m := scene.Meshes[*n.Mesh]
				label += fmt.Sprintf(" [mesh %q, %d elements]", m.Name, m.ElementCount)
			}
			if n.Skin != nil {
				label += fmt.Sprintf(" [skin %d]", *n.Skin)
			}
			fmt.Fprintf(w, "%*s%s\n", 2+depth*2, "", label)
			return true
		})
	}

	if len(scene.AnimationOrder) > 0 {
		fmt.Fprintln(w, "\nanimations:")
		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, name := range scene.AnimationOrder {
			a := scene.Animations[name]
			fmt.Fprintf(tw, "  %s\t%.3fs\t%d nodes\n", name, a.Duration, a.Len())
		}
		tw.Flush()
	}
}
