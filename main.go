package main

import (
	"flag"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/xrpscan/tezsync/accounts"
	"github.com/xrpscan/tezsync/config"
	"github.com/xrpscan/tezsync/connections"
	"github.com/xrpscan/tezsync/logger"
	"github.com/xrpscan/tezsync/producers"
	"github.com/xrpscan/tezsync/routes"
	"github.com/xrpscan/tezsync/signals"
	"github.com/xrpscan/tezsync/socketio"
)

func main() {
	configFile := flag.String("config", ".env", "Environment config file")
	flag.Parse()

	config.EnvLoad(*configFile)
	logger.New()

	runServerMode()
}

func buildSinks(hub *socketio.Hub) []producers.ShapeSink {
	sinks := []producers.ShapeSink{producers.NewSocketIOSink(hub)}

	if config.EnvClickHouseEnabled() {
		connections.NewClickHouseConnection()
		sinks = append(sinks, producers.NewClickHouseSink(connections.ChBatchWriter, connections.WriteAccountSnapshot))
	}

	if config.EnvKafkaEnabled() {
		connections.NewWriter()
		sinks = append(sinks, producers.NewKafkaSink(connections.KafkaWriter, config.TopicAccountShapes(), config.TopicOperations()))
	}

	return sinks
}

func runServerMode() {
	indexerClient := connections.NewIndexerClient()
	builder := accounts.NewBuilder(indexerClient, accounts.WithIncremental(config.EnvSyncIncremental()))

	hub := socketio.GetHub()
	syncer := producers.NewSyncer(builder, buildSinks(hub)...)
	for _, address := range config.EnvSyncAddresses() {
		syncer.Track(address)
	}

	ctx := signals.HandleAll()
	go syncer.RunSyncLoop(ctx, config.EnvSyncInterval())

	e := echo.New()
	e.HideBanner = true
	routes.Add(e, syncer, hub)

	serverAddress := fmt.Sprintf("%s:%s", config.EnvServerHost(), config.EnvServerPort())
	logger.Log.Info().Str("address", serverAddress).Msg("Starting HTTP server")
	e.Logger.Fatal(e.Start(serverAddress))
}
