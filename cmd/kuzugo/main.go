package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/zaddach/kuzu/internal/dblog"
	"github.com/zaddach/kuzu/internal/shell"
	"github.com/zaddach/kuzu/pkg/kuzugo"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type configuration struct {
	dataDir  string
	demoMode bool
	script   string
	logPath  string
}

func main() {
	cfg := parseArguments()

	if err := dblog.Init(dblog.Config{OutputPath: cfg.logPath, Format: "text"}); err != nil {
		log.Fatalf("failed to initialize logging: %v", err)
	}
	defer dblog.Close()

	showSplashScreen()

	conn, err := kuzugo.Connect(cfg.dataDir)
	if err != nil {
		log.Fatalf("failed to open database at %s: %v", cfg.dataDir, err)
	}
	defer conn.Close()

	if cfg.demoMode {
		if err := runDemoMode(conn); err != nil {
			log.Fatalf("demo mode failed: %v", err)
		}
	}

	if cfg.script != "" {
		if err := runScript(conn, cfg.script); err != nil {
			log.Fatalf("failed to run script: %v", err)
		}
	}

	if err := startInteractiveMode(conn); err != nil {
		log.Fatalf("shell exited with error: %v", err)
	}
}

func parseArguments() configuration {
	var cfg configuration
	flag.StringVar(&cfg.dataDir, "data", "./kuzugo-data", "database directory")
	flag.BoolVar(&cfg.demoMode, "demo", false, "create a small sample graph on startup")
	flag.StringVar(&cfg.script, "script", "", "file of ;-separated statements to run on startup")
	flag.StringVar(&cfg.logPath, "log", "", "log file path (empty for stdout)")
	flag.Parse()
	return cfg
}

func showSplashScreen() {
	splash := `
  _             _
 | | ___   _ __| |_ ___
 | |/ / | | |_  / / _ \
 | . <| |_| |/ /| | (_) |
 |_|\_\\__,_/___|_|\___/  property graphs in Go
`
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED")).Bold(true)
	fmt.Println(style.Render(splash))
	time.Sleep(500 * time.Millisecond)
}

func startInteractiveMode(conn *kuzugo.Connection) error {
	p := tea.NewProgram(
		shell.NewModel(conn),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	_, err := p.Run()
	return err
}

// runDemoMode creates a tiny Person/Knows graph so the shell has
// something to MATCH against immediately.
func runDemoMode(conn *kuzugo.Connection) error {
	fmt.Println("creating sample graph...")

	statements := []string{
		`CREATE NODE TABLE Person (name STRING, age INT64)`,
		`CREATE REL TABLE Knows FROM Person TO Person`,
	}
	for _, stmt := range statements {
		if _, err := conn.Query(stmt); err != nil {
			return fmt.Errorf("demo setup: %w", err)
		}
	}

	people := "name,age\nAlice,30\nBob,35\nCarol,28\n"
	if _, err := conn.CopyCSV("Person", strings.NewReader(people)); err != nil {
		return fmt.Errorf("demo load: %w", err)
	}

	fmt.Println("sample queries you can try:")
	fmt.Println("  MATCH (p:Person) RETURN p.name, p.age")
	fmt.Println("  MATCH (p:Person) WHERE p.name = 'Alice' RETURN p.name")
	return nil
}

// runScript runs every ;-separated statement in path, in order, reporting
// failures without stopping.
func runScript(conn *kuzugo.Connection, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}

	statements := strings.Split(string(content), ";")
	ok, total := 0, 0
	for _, stmt := range statements {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		total++
		if _, err := conn.Query(stmt); err != nil {
			fmt.Printf("failed: %s\n  error: %v\n", truncate(stmt, 60), err)
			continue
		}
		ok++
	}
	fmt.Printf("script complete: %d/%d statements succeeded\n", ok, total)
	return nil
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
