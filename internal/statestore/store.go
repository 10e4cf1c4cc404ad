package statestore

import (
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"github.com/samber/do/v2"
	"go.yaml.in/yaml/v3"

	"github.com/willie68/go_slippymap/internal/logging"
)

// ErrNotFound no state saved under this name
var ErrNotFound = errors.New("state not found")

const keyPrefix = "view/"

// Config of the view state store
type Config struct {
	Active   bool   `yaml:"active"`
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"inmemory"`
}

// State is the persisted view of one map
type State struct {
	Detached bool    `yaml:"detached"`
	Lon      float64 `yaml:"lon"`
	Lat      float64 `yaml:"lat"`
	Zoom     int     `yaml:"zoom"`
	Provider string  `yaml:"provider"`
	MapType  string  `yaml:"maptype"`
}

// Store keeps view states in badger. An inactive store loads nothing and saves nothing.
type Store struct {
	log *slog.Logger
	db  *badger.DB
}

type storeConfig interface {
	GetStateConfig() Config
}

func Init(inj do.Injector) {
	cfg := do.MustInvokeAs[storeConfig](inj).GetStateConfig()
	s, err := Open(cfg)
	if err != nil {
		// the map works without persisted state
		s.log.Error("can't open state store, state will not be saved", "path", cfg.Path, "error", err)
	}
	do.ProvideValue(inj, s)
}

// Open opens the store, on error an inactive store is returned together with the error
func Open(cfg Config) (*Store, error) {
	s := &Store{log: logging.New("statestore")}
	if !cfg.Active {
		return s, nil
	}
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLogger(&badgerLogger{log: s.log})
	db, err := badger.Open(opts)
	if err != nil {
		return s, errors.Wrap(err, "open badger")
	}
	s.db = db
	s.log.Info("state store opened", "path", cfg.Path, "inmemory", cfg.InMemory)
	return s, nil
}

// Active is true if states are persisted
func (s *Store) Active() bool {
	return s.db != nil
}

func (s *Store) Load(name string) (State, error) {
	var st State
	if s.db == nil {
		return st, ErrNotFound
	}
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + name))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return yaml.Unmarshal(val, &st)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return st, errors.Wrapf(ErrNotFound, "%q", name)
	}
	if err != nil {
		return st, errors.Wrapf(err, "load state %q", name)
	}
	return st, nil
}

func (s *Store) Save(name string, st State) error {
	if s.db == nil {
		return nil
	}
	data, err := yaml.Marshal(st)
	if err != nil {
		return errors.Wrap(err, "marshal state")
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+name), data)
	})
	return errors.Wrapf(err, "save state %q", name)
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Shutdown is called by the injector
func (s *Store) Shutdown() error {
	return s.Close()
}

// badgerLogger routes the badger log into slog
type badgerLogger struct {
	log *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, args...))
}
