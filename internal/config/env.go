package config

import (
	"os"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	EnvDataDir  = "HVASIM_DATA_DIR"
	EnvLogLevel = "HVASIM_LOG_LEVEL"
	EnvWorkers  = "HVASIM_WORKERS"

	DefaultDataDir  = ".hvasim"
	DefaultLogLevel = "info"
)

// Env is the process-level configuration. Command-line flags take
// precedence over it.
type Env struct {
	DataDir  string
	LogLevel string
	Workers  int
}

// LoadEnv reads an optional .env file from the working directory and then
// the HVASIM_* variables. A missing .env file is not an error.
func LoadEnv(files ...string) Env {
	_ = godotenv.Load(files...)
	return EnvFromLookup(os.LookupEnv)
}

func EnvFromLookup(lookup func(string) (string, bool)) Env {
	env := Env{
		DataDir:  DefaultDataDir,
		LogLevel: DefaultLogLevel,
		Workers:  runtime.NumCPU(),
	}
	if v, ok := lookup(EnvDataDir); ok && v != "" {
		env.DataDir = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		env.LogLevel = v
	}
	if v, ok := lookup(EnvWorkers); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			env.Workers = n
		}
	}
	return env
}
