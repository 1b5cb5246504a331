/*
Flux testbed: loads a world, streams its assets and renders it until the
window closes or the configured frame count is reached.
*/
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/flux/engine"
	"github.com/spaghettifunk/flux/engine/core"
	"github.com/spaghettifunk/flux/testbed"
)

func main() {
	configPath := flag.String("config", engine.DefaultConfigFile, "path to the TOML configuration")
	headless := flag.Bool("headless", false, "render without a window")
	frames := flag.Uint64("frames", 0, "stop after this many frames, 0 runs until quit")
	writeConfig := flag.Bool("write-config", false, "write the effective configuration to -config and exit")
	flag.Parse()

	config, err := engine.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *headless {
		config.Renderer.Backend = "headless"
	}
	if *frames > 0 {
		config.Application.Frames = *frames
	}

	if *writeConfig {
		data, err := config.Encode()
		if err == nil {
			err = os.WriteFile(*configPath, data, 0o644)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	logger, err := core.NewLogger(core.LoggerOptions{Level: config.Log.Level, KeepHistory: config.Log.History})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	tb := testbed.NewTestGame()
	e, err := engine.New(tb.Game, config, logger)
	if err != nil {
		os.Exit(1)
	}

	if err := e.Initialize(); err != nil {
		_ = e.Shutdown()
		os.Exit(1)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// the run loop owns the engine, so a signal only asks it to quit
	quit := make(chan struct{})
	go func() {
		<-sigCh
		close(quit)
	}()
	tb.QuitOn(quit)

	runErr := e.Run()
	if err := e.Shutdown(); err != nil || runErr != nil {
		os.Exit(1)
	}
}
