package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"parley/client/api"
	"parley/client/chat"
	"parley/client/realtime"
	"parley/client/ui"
	"parley/config"
)

func main() {
	cfg := config.Load()
	serverURL := flag.String("server", cfg.ServerURL, "server base URL")
	flag.Parse()

	client, err := api.New(*serverURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	conn := realtime.New(client.WebsocketURL(), client.Jar())

	app := ui.NewApp()
	engine := chat.New(client, conn, app)
	app.SetEngine(engine)

	if err := app.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
