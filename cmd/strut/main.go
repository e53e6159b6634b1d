package main

import (
	"log"
	"os"
	"strconv"
	"syscall"

	"github.com/halfmetre/strut/internal/config"
	"github.com/halfmetre/strut/internal/core"
	"github.com/halfmetre/strut/internal/gtkbar"
)

const pidFile = "/tmp/strut.pid"

// ensureSingleInstance kills any previous bar still holding the pid file,
// then claims it.
func ensureSingleInstance() error {
	if data, err := os.ReadFile(pidFile); err == nil {
		if pid, err := strconv.Atoi(string(data)); err == nil {
			if process, err := os.FindProcess(pid); err == nil {
				if err := process.Signal(syscall.Signal(0)); err == nil {
					process.Kill()
					process.Wait()
				}
			}
		}
	}
	return os.WriteFile(pidFile, []byte(strconv.Itoa(os.Getpid())), 0644)
}

func main() {
	cfg, err := config.LoadConfig("~/.config/strut/config.toml")
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		defaults := config.DefaultConfig
		cfg = &defaults
	}

	if logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666); err == nil {
		log.SetOutput(logFile)
		defer logFile.Close()
	}

	if err := ensureSingleInstance(); err != nil {
		log.Fatalf("Failed to ensure single instance: %v", err)
	}
	defer os.Remove(pidFile)

	log.Println("strut starting...")

	display, err := gtkbar.New(cfg.Bar.Height)
	if err != nil {
		log.Fatalf("Failed to create bar: %v", err)
	}

	app, err := core.NewApp(cfg, display)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}
