package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// BuildVersion and BuildDate can be set at build time via ldflags
var (
	BuildVersion string = "0.1.0"
	BuildDate    string = "unknown"

	AppName string = "flightcore"
)

func main() {
	flags := pflag.NewFlagSet(AppName, pflag.ExitOnError)
	configDir := flags.String("config", ".", "directory containing "+AppName+".cfg.json")
	flags.Int("ticks", 1500, "fixed ticks to run, 0 runs until interrupted")
	flags.Float64("hz", 50, "fixed tick rate")
	flags.Bool("realtime", false, "pace ticks to the wall clock")
	flags.Bool("hud", false, "fly interactively on a terminal HUD")
	flags.String("storage", "memory", "storage backend: memory, sqlite or postgres")
	flags.Bool("version", false, "print the version and exit")
	_ = flags.Parse(os.Args[1:])

	if v, _ := flags.GetBool("version"); v {
		fmt.Printf("%s %s (%s)\n", AppName, BuildVersion, BuildDate)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configDir, flags); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bindFlags lets command-line flags override the config file.
func bindFlags(flags *pflag.FlagSet) error {
	for key, name := range map[string]string{
		"run.ticks":    "ticks",
		"sim.tickRate": "hz",
		"run.realtime": "realtime",
		"run.hud":      "hud",
		"storage.type": "storage",
	} {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("binding flag %s: %w", name, err)
		}
	}
	return nil
}

func run(ctx context.Context, configDir string, flags *pflag.FlagSet) error {
	configErr := loadConfig(configDir)
	if flags != nil {
		if err := bindFlags(flags); err != nil {
			return err
		}
	}

	var screen tcell.Screen
	if viper.GetBool("run.hud") {
		s, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("creating screen: %w", err)
		}
		if err := s.Init(); err != nil {
			return fmt.Errorf("initializing screen: %w", err)
		}
		defer s.Fini()
		screen = s
	}

	a, err := newApp(configErr, screen)
	if err != nil {
		return err
	}
	defer a.close()

	if screen != nil {
		return a.flyHUD(ctx)
	}

	last, err := a.fly(ctx, viper.GetInt("run.ticks"), viper.GetBool("run.realtime"))
	if err != nil {
		return err
	}
	fmt.Println(last.String())
	return nil
}
