package main

import (
	"flag"

	"github.com/aigustalabs/switchboard/internal/config"
	"github.com/aigustalabs/switchboard/internal/daemon"
	"go.uber.org/fx"
)

func main() {
	configFlag := flag.String("config", "", "config file path (default ~/.config/switchboard/config.toml)")
	flag.Parse()

	configPath := *configFlag
	if configPath == "" {
		configPath = config.DefaultPath()
	}

	app := fx.New(
		daemon.Module(daemon.Params{ConfigPath: configPath}),
	)

	app.Run()
}
