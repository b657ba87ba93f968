package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nhdewitt/statfeed/internal/config"
	"github.com/nhdewitt/statfeed/internal/feeder"
	"github.com/nhdewitt/statfeed/internal/gpu"
	"github.com/nhdewitt/statfeed/internal/serialport"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}

	listPorts := flag.Bool("list-ports", false, "list serial ports and exit")
	listGPUs := flag.Bool("list-gpus", false, "list GPU devices and exit")
	hz := flag.Int("hz", config.DefaultHz, "samples per second")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.StringVar(&cfg.PortName, "port", cfg.PortName, "serial port (e.g. COM4 or /dev/ttyUSB0)")
	flag.IntVar(&cfg.BaudRate, "baud", cfg.BaudRate, "line rate")
	flag.BoolVar(&cfg.GPU, "gpu", cfg.GPU, "report GPU utilization and temperature")
	flag.IntVar(&cfg.GPUDevice, "gpu-index", cfg.GPUDevice, "GPU device index")
	flag.Float64Var(&cfg.DiskScale, "disk-scale", cfg.DiskScale, "MB/s that maps to 100% disk load")
	volumes := flag.String("volumes", "", "comma-separated volumes to report free space for")
	flag.Parse()

	if *volumes != "" {
		cfg.SetVolumes(*volumes)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *listPorts {
		ports, err := serialport.List()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 1
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return 0
	}

	if *listGPUs {
		for _, d := range gpu.Devices() {
			fmt.Printf("%d: %s\n", d.Index, d.Name)
		}
		return 0
	}

	if cfg.Port() == "" {
		fmt.Fprintln(os.Stderr, "no serial port selected (use -port or FEEDER_PORT; -list-ports shows candidates)")
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nReceived termination signal. Shutting down...")
		cancel()
	}()

	f := feeder.New(
		cfg,
		serialport.Open,
		gpu.NewResolver(logger),
		newConsoleSink(os.Stdout),
		logger,
		nil,
	)
	if *hz > 0 {
		f.Interval = time.Second / time.Duration(*hz)
	}

	if err := f.Run(ctx); err != nil {
		return 1
	}
	return 0
}
