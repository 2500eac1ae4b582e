package biz

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/kart-io/logger"

	"github.com/kart-io/rag-assistant/internal/pkg/rag/docutil"
)

// DefaultWatchDebounce 是合并文件事件的等待时间。
const DefaultWatchDebounce = 2 * time.Second

// FileIngester 重新导入一组文件，替换这些文件已有的块。
type FileIngester interface {
	ReplaceFiles(ctx context.Context, paths []string) (*IngestReport, error)
}

// Watcher 监听文档目录，新建、修改或删除的文件在静默期后重新导入。
type Watcher struct {
	ingester FileIngester
	dir      string
	debounce time.Duration
	watcher  *fsnotify.Watcher

	cancel context.CancelFunc
	done   chan struct{}
}

// NewWatcher 创建目录监听器并递归注册子目录。
func NewWatcher(ingester FileIngester, dir string, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w := &Watcher{ingester: ingester, dir: dir, debounce: debounce, watcher: fw}
	if err := w.addTree(dir); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// Run 处理文件事件直到 ctx 结束。
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	logger.Infow("Watching documents directory", "dir", w.dir, "debounce", w.debounce.String())

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				if err := w.addTree(event.Name); err != nil {
					logger.Warnw("Failed to watch new directory", "dir", event.Name, "error", err.Error())
				}
				continue
			}
			if !docutil.IsSupported(event.Name) {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnw("File watcher error", "error", err.Error())

		case <-timer.C:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			pending = make(map[string]struct{})

			logger.Infow("Re-ingesting changed documents", "files", len(paths))
			if _, err := w.ingester.ReplaceFiles(ctx, paths); err != nil {
				logger.Errorw("Re-ingestion failed", "files", paths, "error", err.Error())
			}
		}
	}
}

// Close 停止监听。
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Name 返回组件名称。
func (w *Watcher) Name() string {
	return "watcher"
}

// Start 在后台运行 Run，由 Stop 结束。
func (w *Watcher) Start(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(context.WithoutCancel(ctx))
	w.done = make(chan struct{})
	go func() {
		defer close(w.done)
		if err := w.Run(ctx); err != nil {
			logger.Errorw("File watcher stopped", "dir", w.dir, "error", err.Error())
		}
	}()
	return nil
}

// Stop 停止监听并等待进行中的导入结束。
func (w *Watcher) Stop(ctx context.Context) error {
	if w.cancel == nil {
		return nil
	}
	w.cancel()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
