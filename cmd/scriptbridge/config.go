package main

import (
	"cmp"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/casualjim/scriptbridge/internal/stream"
)

type config struct {
	scriptPath  string
	varsJSON    string
	varsHCL     string
	inputPath   string
	stream      bool
	console     bool
	queueSize   int
	timeout     time.Duration
	natsURL     string
	natsSubject string
	logLevel    string
	logFormat   string
}

func parseConfig(args []string, stderr io.Writer) (config, error) {
	var cfg config
	fs := flag.NewFlagSet("scriptbridge", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: scriptbridge [flags] <script.js | ->")
		fs.PrintDefaults()
	}

	fs.StringVar(&cfg.varsJSON, "vars", "", "variables as a JSON object")
	fs.StringVar(&cfg.varsHCL, "vars-hcl", "", "path to an HCL file of variables")
	fs.StringVar(&cfg.inputPath, "input", "", "path to JSON lines fed to $input, - for stdin")
	fs.BoolVar(&cfg.stream, "stream", false, "write records while the script runs")
	fs.BoolVar(&cfg.console, "console", false, "print script errors, warnings and information to stderr")
	fs.IntVar(&cfg.queueSize, "queue-size", stream.DefaultQueueSize, "output items buffered ahead of the writer")
	fs.DurationVar(&cfg.timeout, "timeout", 0, "stop the script after this long, 0 for no limit")
	fs.StringVar(&cfg.natsURL, "nats-url", "", "NATS server url, defaults to $NATS_URL")
	fs.StringVar(&cfg.natsSubject, "nats-subject", os.Getenv("SCRIPTBRIDGE_NATS_SUBJECT"), "publish records to this NATS subject instead of stdout")
	fs.StringVar(&cfg.logLevel, "log-level", cmp.Or(os.Getenv("SCRIPTBRIDGE_LOG_LEVEL"), "info"), "debug, info, warn or error")
	fs.StringVar(&cfg.logFormat, "log-format", cmp.Or(os.Getenv("SCRIPTBRIDGE_LOG_FORMAT"), "console"), "console or json")

	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return config{}, errors.New("expected exactly one script path")
	}
	cfg.scriptPath = fs.Arg(0)

	if cfg.scriptPath == "-" && cfg.inputPath == "-" {
		return config{}, errors.New("script and input cannot both be read from stdin")
	}
	if cfg.queueSize < 1 {
		return config{}, fmt.Errorf("queue-size must be positive, got %d", cfg.queueSize)
	}
	return cfg, nil
}
