package main

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/seadrive/retaincan/bus"
)

// config holds the connection and board defaults a site keeps in a TOML
// file, overlaid by command-line flags. The same file may carry
// [boards.*] layout sections, which the board package reads separately.
type config struct {
	Channel    string `toml:"channel"`
	Bitrate    string `toml:"bitrate"`
	Board      string `toml:"board"`
	Base       uint32 `toml:"base"`
	BoardIndex int    `toml:"board_index"`
	Key        string `toml:"key"`
}

func defaultConfig() config {
	cfg := config{Bitrate: "250k"}
	if ifaces := bus.ListInterfaces(); len(ifaces) > 0 {
		cfg.Channel = ifaces[0]
	}
	return cfg
}

func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}
