package main

import (
	"context"

	"github.com/da1suk8/donation-demo/internal/bot"
	"github.com/da1suk8/donation-demo/internal/chain"
	"github.com/da1suk8/donation-demo/internal/config"
	"github.com/da1suk8/donation-demo/internal/realtime"
	"github.com/da1suk8/donation-demo/internal/server"
	"github.com/da1suk8/donation-demo/internal/starter"
	"github.com/da1suk8/donation-demo/pkg/errors"
	"github.com/da1suk8/donation-demo/pkg/log"
)

func main() {
	log.Infof("Starting app")
	startApp()
}

func startApp() {
	defer func() {
		if i := recover(); i != nil {
			log.Fatal(errors.ErrorfAndReport("%v", i))
		}
	}()
	config.Read()
	log.SetLevel(config.Global.LogLevel)
	if err := errors.NewSentryReporter(config.Global.SentryDSN); err != nil {
		log.Fatal(err)
	}
	ctx := context.Background()

	chainClient, err := chain.Dial(ctx, config.Global.Chain.RPCEndpoint)
	if err != nil {
		log.Fatal(errors.Wrap(err, "dial chain rpc"))
	}
	defer chainClient.Close()

	rt := realtime.NewClient(config.Global.Realtime.URL, config.Global.Realtime.APIKey)
	qrs := server.NewQRStore()

	starter.Start(ctx,
		bot.New(config.Global, rt, chainClient, qrs),
	)

	server.NewServer(config.Global.Server.Listen, qrs)
}
