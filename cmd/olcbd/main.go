// Command olcbd brings up a single OpenLCB node: it loads a SegmentConfig,
// connects a CAN transport, and starts the Interface dispatcher. Modeled on
// the teacher's cmd/canopen/main.go stdlib-flag CLI.
package main

import (
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/samsamfire/go-openlcb/pkg/can"
	"github.com/samsamfire/go-openlcb/pkg/can/loopback"
	"github.com/samsamfire/go-openlcb/pkg/can/serial"
	"github.com/samsamfire/go-openlcb/pkg/config"
	"github.com/samsamfire/go-openlcb/pkg/executor"
	"github.com/samsamfire/go-openlcb/pkg/iface"
)

func main() {
	log.SetLevel(log.InfoLevel)

	configPath := flag.String("c", "", "path to segment config INI file")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	if *configPath == "" {
		log.Fatal("olcbd: -c <config.ini> is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("olcbd: failed to load config")
	}

	bus, err := connectBus(cfg.Transport, cfg.Device)
	if err != nil {
		log.WithError(err).Fatal("olcbd: failed to connect transport")
	}

	exec := newExecutor(cfg)

	olcbIface, err := iface.NewInterface(cfg.NodeID, bus, exec)
	if err != nil {
		log.WithError(err).Fatal("olcbd: failed to start interface")
	}

	log.WithField("node_id", cfg.NodeID.String()).Info("olcbd: node started")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Info("olcbd: shutting down")
	if err := olcbIface.Dispose(); err != nil {
		log.WithError(err).Error("olcbd: error during dispose")
	}
}

func connectBus(transport, device string) (can.Bus, error) {
	switch transport {
	case "loopback":
		bus, err := loopback.NewBus(device)
		if err != nil {
			return nil, err
		}
		return bus, bus.Connect()
	case "serial", "":
		serial.SetOpener(func(channel string) (io.ReadWriteCloser, error) {
			return os.OpenFile(channel, os.O_RDWR, 0)
		})
		bus, err := can.NewBus("serial", device)
		if err != nil {
			return nil, err
		}
		return bus, bus.Connect()
	default:
		return can.NewBus(transport, device)
	}
}

func newExecutor(cfg *config.SegmentConfig) executor.Executor {
	if cfg.Executor == config.ExecutorInline {
		return executor.NewInlineExecutor()
	}
	return executor.NewPoolExecutor(cfg.ExecutorQueue)
}
