// Package config provides configuration management for the StudioMuse backend.
//
// Configuration is loaded from environment variables using the env package,
// after an optional .env file has been applied with godotenv. Variables that
// are already set win over the file. All configuration values have sensible
// defaults for local use next to GIMP.
//
// Example usage:
//
//	cfg, err := config.Load(".env")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("HTTP server will listen on %s\n", cfg.GetHTTPAddr())
package config
