// Command rmradar is the radar-link receiver: it reads a YAML
// configuration file, builds one DSP channel per entry in the derived
// frequency plan, and runs the acquisition loop until interrupted.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/radarwolf/rmfsk/internal/acquisition"
	"github.com/radarwolf/rmfsk/internal/config"
	"github.com/radarwolf/rmfsk/internal/discovery"
	"github.com/radarwolf/rmfsk/internal/dsp"
	"github.com/radarwolf/rmfsk/internal/feed"
	"github.com/radarwolf/rmfsk/internal/indicator"
	"github.com/radarwolf/rmfsk/internal/radio"
	"github.com/radarwolf/rmfsk/internal/radio/hamlib"
	"github.com/radarwolf/rmfsk/internal/radio/soundcard"
	"github.com/radarwolf/rmfsk/internal/reclog"
)

func main() {
	var (
		configPath = pflag.StringP("config", "c", "rmradar.yaml", "Receiver configuration file.")
		logLevel   = pflag.StringP("log-level", "l", "info", "Log level: debug, info, warn, error.")
		recordDir  = pflag.StringP("record-log", "r", "", "Directory for daily CSV record logs. Empty disables record logging.")
		feedAddr   = pflag.StringP("feed-addr", "f", "", "TCP address to serve the decoded-record feed on, e.g. :7373. Empty disables the feed.")
		dnssdName  = pflag.StringP("dns-sd-name", "n", "", "Service name to announce over mDNS/DNS-SD. Empty disables announcement.")
		gpioChip   = pflag.String("gpio-chip", "", "GPIO chip device for the channel-lock indicator, e.g. gpiochip0. Empty disables the indicator.")
		help       = pflag.BoolP("help", "h", false, "Display help text.")
	)

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "rmradar - a software-defined receiver for the radar link.\n\n")
		fmt.Fprintf(os.Stderr, "Usage: rmradar [options]\n\n")
		pflag.PrintDefaults()
	}

	pflag.Parse()
	if *help {
		pflag.Usage()
		os.Exit(0)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rmradar: invalid log level %q: %v\n", *logLevel, err)
		os.Exit(1)
	}
	logger.SetLevel(level)

	if err := run(logger, *configPath, *recordDir, *feedAddr, *dnssdName, *gpioChip); err != nil {
		logger.Error("rmradar: fatal", "err", err)
		os.Exit(1)
	}
}

func run(logger *log.Logger, configPath, recordDir, feedAddr, dnssdName, gpioChip string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	center, plans, err := config.FrequencyPlan(cfg)
	if err != nil {
		return err
	}

	lowpass := dsp.DesignLowpass(float64(cfg.SDR.SampleRateSPS), cfg.Demod.FilterBandwidthHz)
	rrc := dsp.DesignRRC(float64(cfg.SDR.SampleRateSPS)/float64(cfg.Demod.SymbolRateBPS), cfg.Demod.RRCAlpha, cfg.Demod.RRCNumTaps)
	kernels := dsp.Kernels{Lowpass: lowpass, RRC: rrc}

	channels := make([]acquisition.Channel, 0, len(plans))
	for i, plan := range plans {
		ch, err := dsp.NewChannel(float64(cfg.SDR.SampleRateSPS), float64(cfg.Demod.SymbolRateBPS), cfg.Demod.FSKDeviationHz, kernels)
		if err != nil {
			return fmt.Errorf("rmradar: building channel %q: %w", plan.Label, err)
		}

		var ind *indicator.Line
		if gpioChip != "" {
			ind, err = indicator.Open(gpioChip, i)
			if err != nil {
				return fmt.Errorf("rmradar: opening GPIO indicator for %q: %w", plan.Label, err)
			}
			defer ind.Close()
		}

		channels = append(channels, acquisition.Channel{
			Tag:          plan.Label,
			FreqOffsetHz: plan.OffsetHz,
			DSP:          ch,
			Indicator:    ind,
		})
	}

	var driver radio.Driver = soundcard.New(radio.Settings{
		CenterFreqHz:  center,
		SampleRateSPS: cfg.SDR.SampleRateSPS,
		GainDB:        cfg.SDR.GainDB,
		BandwidthHz:   cfg.Demod.FilterBandwidthHz,
		DeviceArgs:    cfg.Device.Args,
	}, cfg.Processing.BufferSize)

	if cfg.Device.Driver == "hamlib" {
		modelID, devPath, err := hamlibArgs(cfg.Device.Args)
		if err != nil {
			return err
		}
		driver = hamlib.New(modelID, devPath, radio.Settings{CenterFreqHz: center, SampleRateSPS: cfg.SDR.SampleRateSPS, GainDB: cfg.SDR.GainDB}, driver)
	}

	var sinks acquisition.Sinks

	if recordDir != "" {
		rl, err := reclog.New(true, recordDir)
		if err != nil {
			return fmt.Errorf("rmradar: opening record log: %w", err)
		}
		defer rl.Close()
		sinks.Reclog = rl
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if feedAddr != "" {
		fs, err := feed.Listen(feedAddr, logger)
		if err != nil {
			return fmt.Errorf("rmradar: starting feed server: %w", err)
		}
		defer fs.Close()
		sinks.Feed = fs

		go func() {
			if err := fs.Serve(ctx); err != nil {
				logger.Error("rmradar: feed server stopped", "err", err)
			}
		}()

		if dnssdName != "" {
			if _, err := discovery.Announce(ctx, dnssdName, feedPort(fs)); err != nil {
				logger.Warn("rmradar: dns-sd announce failed", "err", err)
			}
		}
	}

	logger.Info("rmradar: starting acquisition", "center_hz", center, "channels", len(channels))

	loop := acquisition.New(driver, channels, sinks, logger)
	return loop.Run(ctx)
}

// hamlibArgs expects device.args to be [model_id, dev_path] when
// device.driver is "hamlib".
func hamlibArgs(args []string) (modelID int, devPath string, err error) {
	if len(args) != 2 {
		return 0, "", fmt.Errorf("rmradar: device.args for hamlib driver must be [model_id, dev_path]")
	}
	if _, err := fmt.Sscanf(args[0], "%d", &modelID); err != nil {
		return 0, "", fmt.Errorf("rmradar: parsing hamlib model id %q: %w", args[0], err)
	}
	return modelID, args[1], nil
}

func feedPort(fs *feed.Server) int {
	if a, ok := fs.Addr().(*net.TCPAddr); ok {
		return a.Port
	}
	return 0
}
