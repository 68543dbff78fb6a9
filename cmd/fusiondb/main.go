// Command fusiondb is the admin tool for the player persistence store:
// it initializes a fresh store, inspects its version stamps, and manages
// accounts.
//
// Usage:
//
//	fusiondb [-config path] init
//	fusiondb [-config path] meta
//	fusiondb [-config path] account create <login> <password>
//	fusiondb [-config path] account level <login> <level>
//	fusiondb [-config path] account ban <login> <hours> <reason...>
//	fusiondb [-config path] account unban <login>
//	fusiondb [-config path] account select <login> <slot>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/crypto/bcrypt"

	"github.com/fusiongo/server/internal/config"
	"github.com/fusiongo/server/internal/persist"
	"github.com/fusiongo/server/internal/persist/mongo"
	"github.com/fusiongo/server/internal/persist/postgres"
	"github.com/fusiongo/server/internal/persist/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func usage() error {
	fmt.Fprintln(os.Stderr, `usage: fusiondb [-config path] <command>

commands:
  init                                  create the schema and stamp versions
  meta                                  print the store's version stamps
  account create <login> <password>     create an account (password is hashed)
  account level <login> <level>         change the permission level
  account ban <login> <hours> <reason>  ban for a duration
  account unban <login>                 lift a ban
  account select <login> <slot>         set the selected character slot`)
	return errors.New("no command given")
}

func run() error {
	cfgPath := flag.String("config", defaultConfigPath(), "path to config file")
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		return usage()
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	switch args[0] {
	case "init":
		return cmdInit(ctx, cfg, store)
	case "meta":
		return cmdMeta(ctx, store)
	case "account":
		return cmdAccount(ctx, cfg, store, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func defaultConfigPath() string {
	if p := os.Getenv("FUSIONGO_CONFIG"); p != "" {
		return p
	}
	return "config/server.toml"
}

// openStore selects the backend from the config. Every backend applies its
// own pending migrations during open.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (persist.Store, error) {
	switch cfg.Database.Backend {
	case "postgres":
		return postgres.Open(ctx, cfg.Database, log)
	case "sqlite":
		return sqlite.Open(ctx, cfg.Database, log)
	case "mongo":
		return mongo.Open(ctx, cfg.Database, log)
	default:
		return nil, fmt.Errorf("unknown database backend %q", cfg.Database.Backend)
	}
}

func cmdInit(ctx context.Context, cfg *config.Config, store persist.Store) error {
	err := store.InitMeta(ctx, cfg.Server.ProtocolVersion, persist.DatabaseVersion)
	if errors.Is(err, persist.ErrDuplicateKey) {
		// Re-initializing a stamped store would silently mix generations.
		return fmt.Errorf("store is already initialized: %w", err)
	}
	if err != nil {
		return err
	}
	fmt.Printf("store initialized (protocol %d, database %d)\n",
		cfg.Server.ProtocolVersion, persist.DatabaseVersion)
	return nil
}

func cmdMeta(ctx context.Context, store persist.Store) error {
	for _, key := range []string{persist.MetaKeyProtocolVersion, persist.MetaKeyDatabaseVersion} {
		v, err := store.MetaValue(ctx, key)
		if errors.Is(err, persist.ErrNotFound) {
			fmt.Printf("%s: (not stamped)\n", key)
			continue
		}
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d\n", key, v)
	}
	return nil
}

func cmdAccount(ctx context.Context, cfg *config.Config, store persist.Store, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: fusiondb account <create|level|ban|unban|select> <login> ...")
	}
	sub, login := args[0], args[1]
	rest := args[2:]

	switch sub {
	case "create":
		if len(rest) != 1 {
			return errors.New("usage: fusiondb account create <login> <password>")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(rest[0]), cfg.Account.BcryptCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		acc, err := store.CreateAccount(ctx, login, string(hash))
		if err != nil {
			return err
		}
		fmt.Printf("account %q created (id %d, level %d)\n", acc.Login, acc.ID, acc.AccountLevel)
		return nil

	case "level":
		if len(rest) != 1 {
			return errors.New("usage: fusiondb account level <login> <level>")
		}
		level, err := strconv.ParseInt(rest[0], 10, 32)
		if err != nil {
			return fmt.Errorf("bad level %q: %w", rest[0], err)
		}
		acc, err := findAccount(ctx, store, login)
		if err != nil {
			return err
		}
		if err := store.ChangeAccountLevel(ctx, acc.ID, int32(level)); err != nil {
			return err
		}
		fmt.Printf("account %q level set to %d\n", login, level)
		return nil

	case "ban":
		if len(rest) < 2 {
			return errors.New("usage: fusiondb account ban <login> <hours> <reason...>")
		}
		hours, err := strconv.ParseInt(rest[0], 10, 64)
		if err != nil {
			return fmt.Errorf("bad duration %q: %w", rest[0], err)
		}
		reason := strings.Join(rest[1:], " ")
		acc, err := findAccount(ctx, store, login)
		if err != nil {
			return err
		}
		until := time.Now().Add(time.Duration(hours) * time.Hour).Unix()
		if err := store.BanAccount(ctx, acc.ID, until, reason); err != nil {
			return err
		}
		fmt.Printf("account %q banned until %s\n", login, time.Unix(until, 0).Format(time.RFC3339))
		return nil

	case "unban":
		acc, err := findAccount(ctx, store, login)
		if err != nil {
			return err
		}
		if err := store.UnbanAccount(ctx, acc.ID); err != nil {
			return err
		}
		fmt.Printf("account %q unbanned\n", login)
		return nil

	case "select":
		if len(rest) != 1 {
			return errors.New("usage: fusiondb account select <login> <slot>")
		}
		slot, err := strconv.ParseInt(rest[0], 10, 32)
		if err != nil || slot < 1 || slot > persist.MaxPlayerSlots {
			return fmt.Errorf("bad slot %q (1-%d)", rest[0], persist.MaxPlayerSlots)
		}
		acc, err := findAccount(ctx, store, login)
		if err != nil {
			return err
		}
		if err := store.UpdateSelectedPlayer(ctx, acc.ID, int32(slot)); err != nil {
			return err
		}
		fmt.Printf("account %q selected slot %d\n", login, slot)
		return nil

	default:
		return fmt.Errorf("unknown account command %q", sub)
	}
}

func findAccount(ctx context.Context, store persist.Store, login string) (*persist.Account, error) {
	acc, err := store.FindAccount(ctx, login)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, fmt.Errorf("account %q: %w", login, persist.ErrNotFound)
	}
	return acc, nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
