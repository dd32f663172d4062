package server

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lunardb/lunar/internal/config"
	"github.com/lunardb/lunar/internal/persistence"
	"github.com/lunardb/lunar/internal/resp"
	"github.com/lunardb/lunar/internal/store"
	"go.uber.org/zap"
)

// Engine coordinates the execution of commands and manages the background tasks of the repository
type Engine struct {
	commands map[string]command // Registry of available commands (the key is the command name in uppercase)
	store    *store.Store
	cfg      *config.Config
	stop     chan struct{} // Closed once on shutdown; background loops and subscriber sessions watch it
	stopOnce sync.Once
	aof      *persistence.AOF
	rdb      *persistence.RDB
	logger   *zap.Logger
}

// NewEngine initializes the engine, builds the command table, and runs the
// startup recovery sequence: snapshot load first, then log replay, and only
// then is the log attached to the store so new mutations get recorded.
// Recovery itself never writes to the log it is reading.
func NewEngine(s *store.Store, cfg *config.Config, logger *zap.Logger) (*Engine, error) {
	engine := &Engine{
		commands: make(map[string]command),
		store:    s,
		cfg:      cfg,
		stop:     make(chan struct{}),
		logger:   logger,
	}
	engine.registerBasicCommand()

	if cfg.Persistence.RDB.Enabled {
		engine.rdb = persistence.NewRDB(cfg.Persistence.RDB.Filename, logger)

		// a corrupt snapshot header is fatal: starting empty over good
		// data on disk would be worse than refusing to start
		if err := engine.rdb.Load(s); err != nil {
			return nil, fmt.Errorf("snapshot load: %w", err)
		}

		if cfg.Persistence.RDB.SaveInterval > 0 {
			go engine.startAutoSave(cfg.Persistence.RDB.SaveInterval)
		}
	}

	if cfg.Persistence.AOF.Enabled {
		applied, err := persistence.Replay(cfg.Persistence.AOF.Filename, s, logger)
		if err != nil {
			return nil, fmt.Errorf("log replay: %w", err)
		}
		if applied > 0 {
			logger.Info("log replayed", zap.Int("records", applied))
		}

		aof, err := persistence.NewAOF(
			cfg.Persistence.AOF.Filename,
			cfg.Persistence.AOF.FlushInterval,
			logger,
		)
		if err != nil {
			return nil, err
		}
		engine.aof = aof
		s.AttachWAL(aof)
	}

	if cfg.GC.Enabled {
		go engine.startGCLoop()
	}

	return engine, nil
}

func (e *Engine) startAutoSave(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := e.rdb.Save(e.store); err != nil {
				e.logger.Error("auto-save failed", zap.Error(err))
			}
		case <-e.stop:
			return
		}
	}
}

// startGCLoop triggers the active expiration mechanism
func (e *Engine) startGCLoop() {
	ticker := time.NewTicker(e.cfg.GC.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed := e.store.DeleteExpired()
			if removed > 0 {
				e.logger.Debug("gc removed expired keys", zap.Int("removed", removed))
			}
		case <-e.stop:
			e.logger.Info("GC stopped")
			return
		}
	}
}

// register adds a new command to the engine. The command name is uppercase
func (e *Engine) register(name string, cmd command) {
	e.commands[strings.ToUpper(name)] = cmd
}

// registerBasicCommand fills the registry with standard commands
func (e *Engine) registerBasicCommand() {
	// connection
	e.register("PING", commandFunc(ping))
	e.register("ECHO", commandFunc(echo))
	e.register("COMMAND", commandFunc(cmd))

	// strings
	e.register("GET", commandFunc(get))
	e.register("SET", commandFunc(set))
	e.register("STRLEN", commandFunc(strlen))
	e.register("APPEND", commandFunc(appendCmd))
	e.register("INCR", commandFunc(incr))
	e.register("DECR", commandFunc(decr))
	e.register("INCRBY", commandFunc(incrBy))
	e.register("DECRBY", commandFunc(decrBy))
	e.register("MGET", commandFunc(mget))
	e.register("MSET", commandFunc(mset))
	e.register("MSETNX", commandFunc(msetnx))

	// generic
	e.register("DEL", commandFunc(del))
	e.register("EXISTS", commandFunc(exists))
	e.register("TTL", commandFunc(ttl))
	e.register("PTTL", commandFunc(pttl))

	// hashes
	e.register("HSET", commandFunc(hset))
	e.register("HSETNX", commandFunc(hsetnx))
	e.register("HMSET", commandFunc(hmset))
	e.register("HGET", commandFunc(hget))
	e.register("HMGET", commandFunc(hmget))
	e.register("HDEL", commandFunc(hdel))
	e.register("HGETALL", commandFunc(hgetall))
	e.register("HEXISTS", commandFunc(hexists))
	e.register("HLEN", commandFunc(hlen))
	e.register("HKEYS", commandFunc(hkeys))
	e.register("HVALS", commandFunc(hvals))

	// lists
	e.register("LPUSH", commandFunc(lpush))
	e.register("RPUSH", commandFunc(rpush))
	e.register("LPOP", commandFunc(lpop))
	e.register("RPOP", commandFunc(rpop))
	e.register("LLEN", commandFunc(llen))
	e.register("LRANGE", commandFunc(lrange))
	e.register("LINDEX", commandFunc(lindex))
	e.register("LSET", commandFunc(lset))
	e.register("LREM", commandFunc(lrem))
	e.register("LTRIM", commandFunc(ltrim))

	// pubsub (SUBSCRIBE/PSUBSCRIBE bypass the registry, see Subscribe)
	e.register("PUBLISH", commandFunc(publish))

	// persistence
	e.register("SAVE", commandFunc(func(ctx *context) resp.Value {
		if e.rdb == nil {
			return resp.MakeError("ERR snapshotting is disabled")
		}
		if err := e.rdb.Save(e.store); err != nil {
			return resp.MakeError("ERR " + err.Error())
		}
		return resp.MakeSimpleString("OK")
	}))

	e.register("BGSAVE", commandFunc(func(ctx *context) resp.Value {
		if e.rdb == nil {
			return resp.MakeError("ERR snapshotting is disabled")
		}
		go func() {
			if err := e.rdb.Save(e.store); err != nil {
				e.logger.Error("background save failed", zap.Error(err))
			}
		}()
		return resp.MakeSimpleString("Background saving started")
	}))
}

// Execute finds the command by name and executes it with the passed arguments.
// If the command is not found, returns an error in the RESP format
func (e *Engine) Execute(name string, args []resp.Value) resp.Value {
	if e.logger.Core().Enabled(zap.DebugLevel) {
		e.logger.Debug("executing command",
			zap.String("cmd", name),
			zap.Int("args_count", len(args)),
		)
	}

	cmd, ok := e.commands[strings.ToUpper(name)]
	if !ok {
		return resp.MakeError(fmt.Sprintf("ERR unknown command '%s'", name))
	}

	ctx := &context{
		args:  args,
		store: e.store,
	}

	return cmd.execute(ctx)
}

// Shutdown shuts down the engine and its background services correctly.
// Closing the log performs the final flush and fsync, so every record
// accepted before this point reaches disk.
func (e *Engine) Shutdown() {
	e.stopOnce.Do(func() {
		close(e.stop)

		if e.aof != nil {
			if err := e.aof.Close(); err != nil {
				e.logger.Error("log close failed", zap.Error(err))
			}
		}
	})
}
