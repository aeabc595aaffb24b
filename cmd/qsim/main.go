package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/panyam/queuesim/cmd/qsim/commands"
)

func main() {
	envfile := ".env"
	if v := os.Getenv("QSIM_ENV_FILE"); v != "" {
		envfile = v
	}
	// a missing env file is normal outside development
	if err := godotenv.Load(envfile); err != nil && !os.IsNotExist(err) {
		slog.Warn("loading env file", "file", envfile, "error", err)
	}
	commands.Execute()
}
