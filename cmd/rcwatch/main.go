// Command rcwatch prints the drive updates and target changes a controller publishes.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/open-teleop/rcdrive/domain/teleop"
	customlog "github.com/open-teleop/rcdrive/pkg/log"
	"github.com/open-teleop/rcdrive/pkg/zeromq"
)

type printer struct {
	logger customlog.Logger
}

func (p printer) HandleDriveUpdate(u teleop.Update) {
	p.logger.WithField("session", u.SessionID).Infof("update %d t=%s s=%s params=%s",
		u.Seq, teleop.FormatValue(u.Command.Throttle), teleop.FormatValue(u.Command.Steering), u.Params().Encode())
}

func (p printer) HandleTargetUpdated(url string) {
	p.logger.Infof("vehicle url -> %s", url)
}

func main() {
	fs := flag.NewFlagSet("rcwatch", flag.ExitOnError)
	address := fs.String("connect", "tcp://localhost:5556", "controller telemetry address")
	level := fs.String("log-level", "info", "log level")
	_ = fs.Parse(os.Args[1:])

	logger, err := customlog.NewLogrusLogger(*level, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	listener, err := zeromq.NewUpdateListener(*address, printer{logger: logger}, logger)
	if err != nil {
		logger.Fatalf("Failed to start listener: %v", err)
	}
	if err := listener.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Fatalf("Listener stopped: %v", err)
	}
}
