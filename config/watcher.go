package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"go.viam.com/diagsensors/logging"
	"go.viam.com/diagsensors/utils"
)

// A Watcher is responsible for watching for changes
// to a config from some source and delivering those changes
// to some destination.
type Watcher interface {
	Config() <-chan *Config
	Close() error
}

type fsConfigWatcher struct {
	fsWatcher *fsnotify.Watcher
	configCh  chan *Config
	workers   utils.StoppableWorkers
}

// NewWatcher returns a watcher that re-reads the config file whenever it changes and emits it
// if its components differ from the last one seen. Files that fail to parse are logged and
// skipped. The containing directory is watched so editors that replace the file are handled.
func NewWatcher(initial *Config, logger logging.Logger) (Watcher, error) {
	if initial == nil || initial.ConfigFilePath == "" {
		return nil, errors.New("config watcher needs a config read from a file")
	}
	path, err := filepath.Abs(initial.ConfigFilePath)
	if err != nil {
		return nil, err
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatcher.Add(filepath.Dir(path)); err != nil {
		return nil, errors.Wrap(err, fsWatcher.Close().Error())
	}

	w := &fsConfigWatcher{
		fsWatcher: fsWatcher,
		configCh:  make(chan *Config),
	}
	last := initial
	w.workers = utils.NewStoppableWorkers(func(cancelCtx context.Context) {
		for {
			select {
			case <-cancelCtx.Done():
				return
			case err, ok := <-fsWatcher.Errors:
				if !ok {
					return
				}
				logger.Errorw("error watching config file", "path", path, "error", err)
			case event, ok := <-fsWatcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != path || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
					continue
				}
				newConfig, err := Read(cancelCtx, path, logger)
				if err != nil {
					logger.Errorw("error reading config after change", "path", path, "error", err)
					continue
				}
				diff, err := DiffConfigs(*last, *newConfig)
				if err != nil {
					logger.Errorw("error diffing config", "error", err)
					continue
				}
				if diff.ResourcesEqual && last.PollInterval == newConfig.PollInterval {
					continue
				}
				logger.Debugw("config file changed", "diff", diff.String())
				select {
				case <-cancelCtx.Done():
					return
				case w.configCh <- newConfig:
					last = newConfig
				}
			}
		}
	})
	return w, nil
}

func (w *fsConfigWatcher) Config() <-chan *Config {
	return w.configCh
}

func (w *fsConfigWatcher) Close() error {
	w.workers.Stop()
	return w.fsWatcher.Close()
}
