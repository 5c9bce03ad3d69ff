package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"sunclock/config"
	"sunclock/internal/api"
	"sunclock/internal/clock"
	"sunclock/internal/geolocation"
	"sunclock/internal/log"
	"sunclock/internal/mqtt"
	"sunclock/internal/reference"
	"sunclock/internal/solar"
	"sunclock/internal/storage"
	"sunclock/internal/tracker"

	"github.com/spf13/cobra"
)

var (
	configFile string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sunclock",
		Short: "Sunrise and sunset clock",
		Long:  "Computes sunrise, sunset and day length for a location and shows a live day/night dial",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return log.Init(verbose)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(compareCmd())
	rootCmd.AddCommand(locateCmd())

	err := rootCmd.Execute()
	log.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Log.Debug && !verbose {
		if err := log.Init(true); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func newLocator(cfg *config.Config) *geolocation.Locator {
	return geolocation.NewLocator(geolocation.LocatorConfig{
		Endpoint: cfg.Geolocation.Endpoint,
		Attempts: cfg.Geolocation.Attempts,
		Delay:    cfg.Geolocation.Delay,
		Timeout:  cfg.Geolocation.Timeout,
	})
}

// resolveSite applies geolocation when enabled. A failed lookup falls back
// to the configured coordinates.
func resolveSite(ctx context.Context, cfg *config.Config) (tracker.Site, error) {
	if cfg.Location.AutoLocate {
		loc, err := newLocator(cfg).Locate(ctx)
		if err != nil {
			log.Warnf("Geolocation failed, using configured location: %v", err)
		} else {
			log.Infof("Located at %s, %s (%.4f, %.4f)", loc.City, loc.Country, loc.Latitude, loc.Longitude)
			cfg.Location.Latitude = loc.Latitude
			cfg.Location.Longitude = loc.Longitude
			if loc.City != "" {
				cfg.Location.Name = loc.City
			}
			if cfg.Location.AutoOffset() && loc.Timezone != "" {
				if tz, err := time.LoadLocation(loc.Timezone); err == nil {
					offset := clock.OffsetIn(tz, time.Now())
					cfg.Location.UTCOffset = strconv.FormatFloat(offset, 'f', -1, 64)
				}
			}
		}
	}
	return tracker.SiteFromConfig(cfg.Location, cfg.Solar)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the sun clock service",
		Long:  "Start the tracker, dashboard/API server, and MQTT publisher",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			site, err := resolveSite(ctx, cfg)
			if err != nil {
				return fmt.Errorf("invalid location: %w", err)
			}

			var (
				store tracker.Store
				db    *storage.Database
			)
			if cfg.Database.Enabled {
				db, err = storage.NewDatabase(cfg.Database.Path)
				if err != nil {
					return fmt.Errorf("failed to open database: %w", err)
				}
				log.Infof("Database opened at %s", cfg.Database.Path)
				if cfg.Database.Retention > 0 {
					if err := db.CleanOldRecords(cfg.Database.Retention); err != nil {
						log.Warnf("Failed to clean old records: %v", err)
					}
				}
				store = db
			}

			var publisher tracker.Publisher
			mqttPublisher, err := mqtt.NewPublisher(mqtt.PublisherConfig{
				Broker:      cfg.MQTT.Broker,
				ClientID:    cfg.MQTT.ClientID,
				Username:    cfg.MQTT.Username,
				Password:    cfg.MQTT.Password,
				TopicPrefix: cfg.MQTT.TopicPrefix,
				Site:        site.Name,
				Enabled:     cfg.MQTT.Enabled,
			})
			if err != nil {
				log.Warnf("MQTT connection failed: %v", err)
			} else {
				publisher = mqttPublisher
				if cfg.MQTT.Enabled {
					log.Infof("MQTT connected to %s", cfg.MQTT.Broker)
					if cfg.MQTT.Discovery {
						if err := mqttPublisher.PublishHomeAssistantDiscovery(); err != nil {
							log.Warnf("Home Assistant discovery failed: %v", err)
						}
					}
				}
			}

			tr := tracker.NewTracker(tracker.TrackerConfig{
				Site:      site,
				Clock:     clock.System{},
				Store:     store,
				Publisher: publisher,
				Interval:  cfg.Tracker.Interval,
				Enabled:   cfg.Tracker.Enabled,
			})

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

			go func() {
				if err := tr.Start(ctx); err != nil {
					log.Errorf("Tracker error: %v", err)
				}
			}()

			var server *api.Server
			if cfg.API.Enabled {
				server = api.NewServer(api.ServerConfig{
					Port:       cfg.API.Port,
					Tracker:    tr,
					Database:   db,
					Sources:    reference.Online(cfg.Reference.OpenMeteoEndpoint, cfg.Reference.OpenWeatherAPIKey),
					Config:     cfg,
					ConfigPath: configFile,
				})

				go func() {
					if err := server.Start(); err != nil {
						log.Errorf("API server error: %v", err)
					}
				}()
			}

			log.Info("Sun clock started. Press Ctrl+C to stop.")

			<-sigChan
			log.Info("Shutting down...")
			cancel()
			if server != nil {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := server.Stop(shutdownCtx); err != nil {
					log.Warnf("API server shutdown: %v", err)
				}
			}
			tr.Stop()

			return nil
		},
	}
}

// overrides are the show/compare flags that replace configured values.
type overrides struct {
	date        string
	latitude    float64
	longitude   float64
	offset      string
	zenith      string
	noLookahead bool
	locate      bool

	cfg *config.Config
}

func (o *overrides) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.date, "date", "", "date as YYYY-MM-DD (default today)")
	cmd.Flags().Float64Var(&o.latitude, "lat", 0, "latitude in degrees, north positive")
	cmd.Flags().Float64Var(&o.longitude, "lon", 0, "longitude in degrees, east positive")
	cmd.Flags().StringVar(&o.offset, "offset", "", `UTC offset in hours or "auto"`)
	cmd.Flags().StringVar(&o.zenith, "zenith", "", "official, civil, nautical, astronomical or degrees")
	cmd.Flags().BoolVar(&o.noLookahead, "no-lookahead", false, "never show the next day's sunrise")
	cmd.Flags().BoolVar(&o.locate, "locate", false, "look up the location from the public IP")
}

func (o *overrides) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("lat") {
		cfg.Location.Latitude = o.latitude
	}
	if flags.Changed("lon") {
		cfg.Location.Longitude = o.longitude
	}
	if flags.Changed("offset") {
		cfg.Location.UTCOffset = o.offset
	}
	if flags.Changed("zenith") {
		cfg.Solar.Zenith = o.zenith
	}
	if o.noLookahead {
		cfg.Solar.Lookahead = false
	}
	if o.locate {
		cfg.Location.AutoLocate = true
	}
}

// calculator builds the calculator selected by configuration and flags.
func (o *overrides) calculator(cmd *cobra.Command) (*solar.Calculator, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	o.apply(cmd, cfg)
	o.cfg = cfg

	site, err := resolveSite(cmd.Context(), cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid location: %w", err)
	}

	clk := clock.System{}
	now := clk.Now()
	offset := site.Offset(now)
	date := now.In(solar.Zone(offset))
	if o.date != "" {
		date, err = time.Parse("2006-01-02", o.date)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: %w", o.date, err)
		}
	}

	p := solar.ParamsFor(date, site.Latitude, site.Longitude, offset)
	p.Zenith = site.Zenith
	return solar.New(p, clk, site.Lookahead)
}

func showCmd() *cobra.Command {
	var (
		o      overrides
		asJSON bool
		plain  bool
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print sunrise, sunset and day length",
		RunE: func(cmd *cobra.Command, args []string) error {
			calc, err := o.calculator(cmd)
			if err != nil {
				return err
			}

			if plain {
				lines, err := calc.Summary()
				if err != nil {
					return err
				}
				fmt.Println(calc.String())
				fmt.Println()
				for _, line := range lines {
					fmt.Println(line)
				}
				return nil
			}

			report, err := calc.Report()
			if err != nil {
				return err
			}
			if asJSON {
				output, _ := json.MarshalIndent(report, "", "  ")
				fmt.Println(string(output))
				return nil
			}
			fmt.Println(renderReport(report))
			return nil
		},
	}
	o.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full report as JSON")
	cmd.Flags().BoolVar(&plain, "plain", false, "print unstyled text")
	return cmd
}

func compareCmd() *cobra.Command {
	var (
		o      overrides
		online bool
	)
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare computed times with reference implementations",
		RunE: func(cmd *cobra.Command, args []string) error {
			calc, err := o.calculator(cmd)
			if err != nil {
				return err
			}
			report, err := calc.Report()
			if err != nil {
				return err
			}

			sources := reference.Offline()
			if online {
				sources = reference.Online(o.cfg.Reference.OpenMeteoEndpoint, o.cfg.Reference.OpenWeatherAPIKey)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			results, err := reference.Compare(ctx, report, sources)
			if err != nil {
				return err
			}

			fmt.Printf("%-12s %-8s %-8s %8s %8s\n", "source", "sunrise", "sunset", "Δrise", "Δset")
			fmt.Printf("%-12s %-8s %-8s %8s %8s\n", "sunclock",
				solar.FormatTime(report.Sunrise), solar.FormatTime(report.Sunset), "", "")
			for _, r := range results {
				if r.Error != "" {
					fmt.Printf("%-12s error: %s\n", r.Source, r.Error)
					continue
				}
				fmt.Printf("%-12s %-8s %-8s %+8.1f %+8.1f\n", r.Source, r.Sunrise, r.Sunset, r.SunriseDelta, r.SunsetDelta)
			}
			return nil
		},
	}
	o.register(cmd)
	cmd.Flags().BoolVar(&online, "online", false, "also query the Open-Meteo and OpenWeather APIs")
	return cmd
}

func locateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "locate",
		Short: "Look up the host location from its public IP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			fmt.Printf("Querying %s...\n", cfg.Geolocation.Endpoint)
			loc, err := newLocator(cfg).Locate(cmd.Context())
			if err != nil {
				return err
			}

			output, _ := json.MarshalIndent(loc, "", "  ")
			fmt.Println(string(output))
			return nil
		},
	}
}
