/*
This is an example of application that uses the engine package: a field of
spinning shapes under three orbiting point lights.
*/
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/avenir/engine"
	"github.com/spaghettifunk/avenir/engine/core"
	"github.com/spaghettifunk/avenir/testbed"
)

func main() {
	game, err := testbed.NewTestGame()
	if err != nil {
		core.LogFatal("failed to create the testbed: %s", err)
	}

	app, err := engine.New(game.Game)
	if err != nil {
		core.LogFatal("failed to create the engine: %s", err)
	}

	if err := app.Initialize(); err != nil {
		_ = app.Shutdown()
		core.LogFatal("failed to initialize the engine: %s", err)
	}

	// Turn SIGINT and SIGTERM into a quit event; the frame loop drains it on
	// the main thread.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigCh
		core.EventPost(core.EVENT_CODE_APPLICATION_QUIT, nil, core.EventContext{})
	}()

	if err := app.Run(); err != nil {
		core.LogFatal("engine run failed: %s", err)
	}

	if err := app.Shutdown(); err != nil {
		core.LogError("shutdown failed: %s", err)
	}
}
