// Package statsd wraps the statsd methods the engine emits metrics through.
// It hides the datadog dependency so a future migration only needs to edit
// this single file; for example the
// https://pkg.go.dev/github.com/cactus/go-statsd-client/statsd package roughly
// implements datadog's ClientInterface.
package statsd

import (
	"time"

	ddstatsd "github.com/DataDog/datadog-go/v5/statsd"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
)

var client ddstatsd.ClientInterface = &ddstatsd.NoOpClient{}

// Client returns the active statsd client. Before Init it is a no-op client,
// so metric emission is always safe.
func Client() ddstatsd.ClientInterface {
	return client
}

// EmitTickStat emits the duration of one tick phase. Failures are logged and
// swallowed; metrics never interrupt the tick.
func EmitTickStat(start time.Time, stage string) {
	duration := time.Since(start)
	err := Client().Timing("tick", duration, []string{stage}, 1)
	if err != nil {
		log.Logger.Warn().Msgf("failed to emit tick stat: %v", err)
	}
}

// Init replaces the no-op client with a real one pointed at the given agent
// address.
func Init(address string, tags []string) error {
	if address == "" {
		return eris.New("address must not be empty")
	}
	opts := []ddstatsd.Option{
		// The statsd namespace is the prefix of all metrics
		ddstatsd.WithNamespace("veldt"),
	}
	if len(tags) > 0 {
		opts = append(opts, ddstatsd.WithTags(tags))
	}

	newClient, err := ddstatsd.New(address, opts...)
	if err != nil {
		return err
	}
	client = newClient
	return nil
}

// Close flushes and closes the active client and restores the no-op client.
func Close() error {
	err := client.Close()
	client = &ddstatsd.NoOpClient{}
	return err
}
