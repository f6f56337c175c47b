// Package templates resolves named shader templates: boilerplate .glsl
// files a block can opt into with @template, with the user's code
// spliced in at a marker.
package templates

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Marker is the line in a template replaced by the user's shader code.
// Templates without the marker get the code appended instead.
const Marker = "// --- shader ---"

type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Resolve reads <dir>/<name>.glsl and splices userCode in. An empty name
// returns userCode unchanged. A missing template is an error; callers
// must abort viewer creation cleanly rather than compile half a shader.
func (s *Store) Resolve(name, userCode string) (string, error) {
	if name == "" {
		return userCode, nil
	}
	if s.dir == "" {
		return "", fmt.Errorf("template %q requested but no template directory configured", name)
	}
	path := filepath.Join(s.dir, name+".glsl")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read template %q: %w", name, err)
	}
	tmpl := string(data)
	if strings.Contains(tmpl, Marker) {
		return strings.Replace(tmpl, Marker, userCode, 1), nil
	}
	return tmpl + "\n" + userCode, nil
}

// Watch invokes onChange with the template name whenever a .glsl file in
// the store directory is written or created. The returned stop function
// shuts the watcher down.
func (s *Store) Watch(onChange func(name string)) (stop func(), err error) {
	if s.dir == "" {
		return func() {}, nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create template watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch template dir: %w", err)
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				base := filepath.Base(event.Name)
				if strings.HasSuffix(base, ".glsl") {
					onChange(strings.TrimSuffix(base, ".glsl"))
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return func() { watcher.Close() }, nil
}
