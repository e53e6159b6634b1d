package main

import (
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/halfmetre/strut/internal/config"
)

var socketPath = config.DefaultConfig.SocketPath

func init() {
	configPath := filepath.Join(os.Getenv("HOME"), ".config", "strut", "config.toml")
	cfg, err := config.LoadConfig(configPath)
	if err == nil && cfg.SocketPath != "" {
		socketPath = cfg.SocketPath
	}
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "help", "-h", "--help":
		printUsage()
	default:
		sendMessage(strings.Join(os.Args[1:], " "))
	}
}

func sendMessage(message string) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		log.Fatalf("Failed to connect to strut socket: %v\nIs strut running?", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(message)); err != nil {
		log.Fatalf("Failed to send message: %v", err)
	}
}

func printUsage() {
	fmt.Println("strutctl - Control strut from the command line")
	fmt.Println()
	fmt.Println("Usage: strutctl <command> [args]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  repaint       Trigger a render pass")
	fmt.Println("  refresh       Re-reconcile battery devices now")
	fmt.Println("  tags <n>      Switch to workspace n")
	fmt.Println("  quit          Shut the bar down")
	fmt.Println("  help          Show this help message")
}
