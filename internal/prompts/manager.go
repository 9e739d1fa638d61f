// Package prompts loads LLM prompt templates from disk by name, with an
// in-memory cache, explicit invalidation, and optional filesystem watching.
package prompts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/tmc/langchaingo/prompts"
	"go.uber.org/zap"
)

// templateExt is the file extension for prompt templates.
const templateExt = ".tmpl"

// Sentinel errors for prompt loading.
var (
	// ErrPromptNotFound is returned when no template file exists for a name.
	// Missing prompts are a deployment configuration error, not user error.
	ErrPromptNotFound = errors.New("prompt template not found")

	// ErrInvalidPromptName rejects names that could escape the prompts dir.
	ErrInvalidPromptName = errors.New("invalid prompt name")
)

// Well-known prompt names used by the agent pipeline.
const (
	// PromptIntentAnalysis maps a shopping query to categories and budget.
	// Template variables: query, available_categories.
	PromptIntentAnalysis = "intent_analysis"

	// PromptResponseGeneration produces the final assistant reply.
	// Template variables: query, context, budget_info, relevant_category_name.
	PromptResponseGeneration = "response_generation"
)

// Manager loads and caches prompt templates from a directory.
//
// Templates are cached after first load. Invalidate or InvalidateAll force
// a reload; Watch invalidates automatically when files change on disk.
type Manager struct {
	dir    string
	logger *zap.Logger

	mu    sync.RWMutex
	cache map[string]string

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewManager creates a prompt manager rooted at dir.
//
// The directory must exist; individual templates are loaded lazily.
func NewManager(dir string, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir == "" {
		return nil, errors.New("prompts directory required")
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("prompts directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("prompts path %s is not a directory", dir)
	}

	return &Manager{
		dir:    dir,
		logger: logger,
		cache:  make(map[string]string),
	}, nil
}

// Load returns the raw template for name, reading it from disk on first
// access and from cache afterwards.
func (m *Manager) Load(name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}

	m.mu.RLock()
	cached, ok := m.cache[name]
	m.mu.RUnlock()
	if ok {
		return cached, nil
	}

	path := filepath.Join(m.dir, name+templateExt)
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s (expected %s)", ErrPromptNotFound, name, path)
		}
		return "", fmt.Errorf("reading prompt %s: %w", name, err)
	}

	text := string(content)

	m.mu.Lock()
	m.cache[name] = text
	m.mu.Unlock()

	m.logger.Debug("prompt template loaded",
		zap.String("name", name),
		zap.Int("bytes", len(text)),
	)

	return text, nil
}

// Render loads the named template and formats it with vars using Go
// template syntax.
func (m *Manager) Render(name string, vars map[string]any) (string, error) {
	raw, err := m.Load(name)
	if err != nil {
		return "", err
	}

	tpl := prompts.PromptTemplate{
		Template:       raw,
		InputVariables: keys(vars),
		TemplateFormat: prompts.TemplateFormatGoTemplate,
	}

	out, err := tpl.Format(vars)
	if err != nil {
		return "", fmt.Errorf("rendering prompt %s: %w", name, err)
	}
	return out, nil
}

// Invalidate drops a single cached template, forcing a reload on next use.
func (m *Manager) Invalidate(name string) {
	m.mu.Lock()
	delete(m.cache, name)
	m.mu.Unlock()
}

// InvalidateAll drops every cached template.
func (m *Manager) InvalidateAll() {
	m.mu.Lock()
	m.cache = make(map[string]string)
	m.mu.Unlock()
}

// Watch starts a filesystem watcher that invalidates cache entries when
// their template files are written, renamed, or removed. Call Close to
// stop watching.
func (m *Manager) Watch() error {
	if m.watcher != nil {
		return errors.New("already watching")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(m.dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watching %s: %w", m.dir, err)
	}

	m.watcher = watcher
	m.done = make(chan struct{})

	go m.watchLoop()

	m.logger.Info("watching prompt templates", zap.String("dir", m.dir))
	return nil
}

func (m *Manager) watchLoop() {
	for {
		select {
		case <-m.done:
			return
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(event.Name, templateExt) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			name := strings.TrimSuffix(filepath.Base(event.Name), templateExt)
			m.Invalidate(name)
			m.logger.Debug("prompt cache invalidated",
				zap.String("name", name),
				zap.String("op", event.Op.String()),
			)
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.logger.Warn("prompt watcher error", zap.Error(err))
		}
	}
}

// Close stops the filesystem watcher if one is running.
func (m *Manager) Close() error {
	if m.watcher == nil {
		return nil
	}
	close(m.done)
	err := m.watcher.Close()
	m.watcher = nil
	return err
}

// validateName rejects empty names and anything containing path separators.
func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidPromptName)
	}
	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidPromptName, name)
	}
	return nil
}

func keys(vars map[string]any) []string {
	out := make([]string, 0, len(vars))
	for k := range vars {
		out = append(out, k)
	}
	return out
}
