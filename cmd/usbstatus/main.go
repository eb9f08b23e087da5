package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yang-ling/i3pystatus/internal/command"
	"github.com/yang-ling/i3pystatus/internal/config"
	"github.com/yang-ling/i3pystatus/internal/db"
	"github.com/yang-ling/i3pystatus/internal/log"
	"github.com/yang-ling/i3pystatus/internal/pipeline"
	"github.com/yang-ling/i3pystatus/internal/render"
	"github.com/yang-ling/i3pystatus/internal/udev"
	"github.com/yang-ling/i3pystatus/internal/version"
	"github.com/yang-ling/i3pystatus/internal/watch"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "usbstatus",
	Short: "Removable storage status for i3bar and i3blocks",
	Long: `usbstatus lists the leaf block devices of the system (USB sticks, card
readers, LUKS containers) and renders one colored Pango fragment per device:
locked and unlocked encrypted partitions, mounted partitions with their free
space, and disks without a partition table.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the status line once",
	RunE:  runStatus,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print a new status line on every device change",
	Long: `Scan on a fixed interval and whenever the kernel reports a block device
event, printing one status line per scan. Without access to udev netlink
events only the interval triggers scans.`,
	RunE: runWatch,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is /etc/usbstatus/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn, error (overrides config)")

	statusCmd.Flags().StringP("format", "f", "pango", "output format: pango, i3bar or json")
	statusCmd.Flags().Bool("record", false, "record the scan in the inventory database")

	watchCmd.Flags().StringP("format", "f", "i3bar", "output format: pango, i3bar or json")
	watchCmd.Flags().DurationP("interval", "i", watch.DefaultInterval, "rescan interval")
	watchCmd.Flags().Bool("no-udev", false, "do not listen for udev events")
	watchCmd.Flags().Bool("record", false, "record every scan in the inventory database")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(inventoryCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads the configuration and builds the logger
func setup() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}

	return cfg, log.NewLogrusLogger(level), nil
}

func newPipeline(cfg *config.Config, logger *logrus.Logger) *pipeline.Pipeline {
	entry := logrus.NewEntry(logger)
	runner := command.NewExecutor(cfg.CommandTimeout, entry)
	return pipeline.New(cfg, runner, entry)
}

// recorder stores scans in the inventory when enabled
type recorder struct {
	db  *db.DB
	log *logrus.Entry
}

func openRecorder(enabled bool, cfg *config.Config, logger *logrus.Logger) (*recorder, error) {
	if !enabled {
		return nil, nil
	}
	database, err := db.New(cfg.Database)
	if err != nil {
		return nil, err
	}
	return &recorder{db: database, log: logger.WithField("component", "inventory")}, nil
}

func (r *recorder) record(startedAt time.Time, out pipeline.Output) {
	if r == nil {
		return
	}
	scan, err := r.db.RecordScan(startedAt, out.FullText, out.Devices)
	if err != nil {
		r.log.WithError(err).Warn("record scan failed")
		return
	}
	r.log.WithField("scan", scan.ID).Debug("scan recorded")
}

func (r *recorder) Close() {
	if r != nil {
		r.db.Close()
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	formatFlag, _ := cmd.Flags().GetString("format")
	record, _ := cmd.Flags().GetBool("record")

	format, err := render.ParseFormat(formatFlag)
	if err != nil {
		return err
	}

	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	rec, err := openRecorder(record, cfg, logger)
	if err != nil {
		return err
	}
	defer rec.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startedAt := time.Now()
	out, err := newPipeline(cfg, logger).Run(ctx)
	if err != nil {
		// the bar still gets an (empty) line
		logger.WithError(err).Error("scan failed")
	} else {
		rec.record(startedAt, out)
	}

	return render.Write(os.Stdout, format, out.FullText, out.Color, out.Devices)
}

func runWatch(cmd *cobra.Command, args []string) error {
	formatFlag, _ := cmd.Flags().GetString("format")
	interval, _ := cmd.Flags().GetDuration("interval")
	noUdev, _ := cmd.Flags().GetBool("no-udev")
	record, _ := cmd.Flags().GetBool("record")

	format, err := render.ParseFormat(formatFlag)
	if err != nil {
		return err
	}

	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	rec, err := openRecorder(record, cfg, logger)
	if err != nil {
		return err
	}
	defer rec.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := &watch.Watcher{
		Scanner:  newPipeline(cfg, logger),
		Interval: interval,
		Log:      logrus.NewEntry(logger),
	}
	if !noUdev {
		w.Events = udev.Monitor
	}

	return w.Run(ctx, func(out pipeline.Output, err error) {
		if errors.Is(err, context.Canceled) {
			return
		}
		if err != nil {
			logger.WithError(err).Error("scan failed")
		} else {
			rec.record(time.Now(), out)
		}
		if err := render.Write(os.Stdout, format, out.FullText, out.Color, out.Devices); err != nil {
			logger.WithError(err).Error("write status")
		}
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
