package signals

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/xrpscan/tezsync/connections"
	"github.com/xrpscan/tezsync/logger"
)

// HandleAll cancels the returned context on SIGINT or SIGTERM, closes all
// connections and exits. A second signal exits immediately.
func HandleAll() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigs
		logger.Log.Info().Str("signal", sig.String()).Msg("Shutting down")
		cancel()

		go func() {
			<-sigs
			logger.Log.Warn().Msg("Forced exit")
			os.Exit(1)
		}()

		connections.CloseAll()
		os.Exit(0)
	}()

	return ctx
}
