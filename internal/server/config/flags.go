package config

import (
	"flag"
	"os"
	"time"

	"github.com/medvoice/medvoice/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8000")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      session token validity, hours
//	-p string   transcription provider selector ("mock", "requestyai")
//	-k string   transcription provider API key
//	-r string   blob storage root path
//	-q int      pipeline queue capacity
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - Duration flags are accepted as integers in hours and then converted
//     to time.Duration values.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-p", "-k", "-r", "-q"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	tokenValidity := fs.Int("t", int(config.TokenValidity.Hours()), "session token validity (in hours)")

	fs.StringVar(&config.Provider, "p", config.Provider, "transcription provider")
	fs.StringVar(&config.ProviderAPIKey, "k", config.ProviderAPIKey, "transcription provider API key")
	fs.StringVar(&config.AudioStoragePath, "r", config.AudioStoragePath, "blob storage root path")
	fs.IntVar(&config.PipelineQueueSize, "q", config.PipelineQueueSize, "pipeline queue capacity")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.TokenValidity = time.Duration(*tokenValidity) * time.Hour
}
