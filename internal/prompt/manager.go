package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"alphaloop/internal/logger"
)

// 中文说明：
// 提示词管理器。内置默认的 system 与 rules 文本，可由 yaml 覆盖文件
// 替换其中任意一段；文件变更后热加载，加载失败保留旧值。

type overrides struct {
	System string `yaml:"system"`
	Rules  string `yaml:"rules"`
}

type Manager struct {
	mu      sync.RWMutex
	system  string
	rules   string
	watcher *fsnotify.Watcher
}

func NewManager(overridesPath string) (*Manager, error) {
	m := &Manager{
		system: defaultSystem,
		rules:  defaultRules,
	}
	if strings.TrimSpace(overridesPath) == "" {
		return m, nil
	}
	if err := m.load(overridesPath); err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("prompt watcher init failed: %w", err)
	}
	// 监听目录而非文件本身，编辑器原子替换时文件 inode 会变。
	if err := watcher.Add(filepath.Dir(overridesPath)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("prompt watcher add failed: %w", err)
	}
	m.watcher = watcher
	go m.watch(overridesPath)
	return m, nil
}

func (m *Manager) watch(path string) {
	target := filepath.Clean(path)
	for {
		select {
		case evt, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(evt.Name) != target {
				continue
			}
			if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := m.load(path); err != nil {
				logger.Errorf("提示词覆盖文件重载失败 (%s): %v", path, err)
				continue
			}
			logger.Infof("提示词覆盖文件已重载: %s", path)
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			logger.Warnf("prompt watcher error: %v", err)
		}
	}
}

func (m *Manager) load(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading prompt overrides failed: %w", err)
	}
	var ov overrides
	if err := yaml.Unmarshal(raw, &ov); err != nil {
		return fmt.Errorf("parsing prompt overrides failed: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if strings.TrimSpace(ov.System) != "" {
		m.system = ov.System
	} else {
		m.system = defaultSystem
	}
	if strings.TrimSpace(ov.Rules) != "" {
		m.rules = ov.Rules
	} else {
		m.rules = defaultRules
	}
	return nil
}

// System 返回当前 system 提示词。
func (m *Manager) System() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.system
}

// Rules 返回决策规则段，拼接进 user 提示词尾部。
func (m *Manager) Rules() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rules
}

func (m *Manager) Close() error {
	if m.watcher == nil {
		return nil
	}
	return m.watcher.Close()
}
