package intializers

import (
	"log/slog"

	"github.com/joho/godotenv"
)

// LoadEnvVariables reads .env into the process environment. A missing file
// is fine; real environment variables always win.
func LoadEnvVariables(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}
}
