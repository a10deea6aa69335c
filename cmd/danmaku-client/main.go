package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli"

	"github.com/bililive/danmaku-client/internal/config"
	"github.com/bililive/danmaku-client/internal/dispatch"
	"github.com/bililive/danmaku-client/internal/serverinfo"
	"github.com/bililive/danmaku-client/pkg/danmaku"
)

func main() {
	app := cli.NewApp()
	app.Name = "danmaku-client"
	app.Usage = "connect to a live room's danmaku server and log emitted events"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Value: "config.yaml",
			Usage: "path to the YAML client configuration",
		},
		cli.Int64Flag{
			Name:  "room, r",
			Usage: "room id, overriding room_id in the config file",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("danmaku-client: %v", err)
	}
}

func run(c *cli.Context) error {
	opts, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return err
	}
	if roomID := c.Int64("room"); roomID != 0 {
		opts.RoomID = roomID
	}
	if err := opts.Validate(); err != nil {
		return err
	}
	if opts.ServerInfoURL == "" {
		return cli.NewExitError("danmaku-client: server_info_url must be set in the config file", 1)
	}

	provider := serverinfo.NewHTTPProvider(opts.ServerInfoURL)
	client := danmaku.NewClient(opts.RoomID, *opts, provider)

	dispatch.Subscribe(client.Fabric, func(ev dispatch.Connected) {
		log.Printf("connected to room %d", opts.RoomID)
	})
	dispatch.Subscribe(client.Fabric, func(ev dispatch.Disconnected) {
		if ev.Err != nil {
			log.Printf("disconnected from room %d: %v", opts.RoomID, ev.Err)
		} else {
			log.Printf("disconnected from room %d", opts.RoomID)
		}
	})
	dispatch.Subscribe(client.Fabric, func(ev dispatch.Popularity) {
		log.Printf("popularity: %d", ev.Value)
	})
	dispatch.Subscribe(client.Fabric, func(ev dispatch.RawData) {
		log.Printf("message: %s", ev.JSON)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigc
		log.Printf("shutting down...")
		cancel()
	}()

	if err := client.Connect(ctx); err != nil {
		return err
	}
	defer client.Dispose()

	log.Printf("room %d: running, press Ctrl+C to stop", opts.RoomID)
	<-ctx.Done()
	return nil
}
