package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Wizard asks for the handful of settings worth choosing interactively
type Wizard struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewWizard creates a configuration wizard reading answers from in
func NewWizard(in io.Reader, out io.Writer) *Wizard {
	return &Wizard{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// Run walks through the prompts, starting from base. Empty answers keep the shown value.
func (w *Wizard) Run(base *Config) (*Config, error) {
	cfg := *base
	validator := NewValidator()

	fmt.Fprintln(w.out, "=== scribe configuration ===")
	fmt.Fprintln(w.out)

	dataDir, err := w.ask("Data directory", cfg.DataDir)
	if err != nil {
		return nil, err
	}
	if dataDir != cfg.DataDir {
		cfg.DataDir = dataDir
		// Derived paths follow a new data directory.
		cfg.Store.Dir = ""
		cfg.Logging.File = ""
		cfg.Logging.AuditFile = ""
	}

	for {
		format, err := w.ask("Snapshot format (json/yaml)", cfg.Store.Format)
		if err != nil {
			return nil, err
		}
		if err := validator.ValidateFormat(format); err != nil {
			fmt.Fprintf(w.out, "Error: %v\n", err)
			continue
		}
		cfg.Store.Format = format
		break
	}

	for {
		schedule, err := w.ask("Verify schedule in watch mode (cron spec, \"off\" to disable)", cfg.Watch.VerifySchedule)
		if err != nil {
			return nil, err
		}
		if schedule == "off" {
			schedule = ""
		}
		if err := validator.ValidateSchedule(schedule); err != nil {
			fmt.Fprintf(w.out, "Error: %v\n", err)
			continue
		}
		cfg.Watch.VerifySchedule = schedule
		break
	}

	level, err := w.ask("Log level (debug/info/warn/error)", cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	if err := validator.ValidateLogLevel(level); err != nil {
		fmt.Fprintf(w.out, "Warning: %v, keeping %s\n", err, cfg.Logging.Level)
	} else {
		cfg.Logging.Level = level
	}

	if err := ApplyDerived(&cfg); err != nil {
		return nil, err
	}

	fmt.Fprintln(w.out)
	fmt.Fprintln(w.out, "Configuration complete!")
	return &cfg, nil
}

func (w *Wizard) ask(prompt, current string) (string, error) {
	fmt.Fprintf(w.out, "%s [%s]: ", prompt, current)
	answer, err := w.readLine()
	if err != nil {
		return "", err
	}
	if answer == "" {
		return current, nil
	}
	return answer, nil
}

func (w *Wizard) readLine() (string, error) {
	line, err := w.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}
