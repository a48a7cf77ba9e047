// InterioAI - interior design analysis service
//
// Usage:
//   interioai serve [--config config.json] [--port 8080]
//   interioai analyze --in room.jpg [--room-type bedroom] [--measure --scale 2.0]
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	interioai "github.com/yogitha-jain/interio-ai"
	"github.com/yogitha-jain/interio-ai/internal/config"
	"github.com/yogitha-jain/interio-ai/internal/server"
	"github.com/yogitha-jain/interio-ai/internal/utils"
	"github.com/yogitha-jain/interio-ai/pkg/pipeline"
	"github.com/yogitha-jain/interio-ai/pkg/processing"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	app := &cli.App{
		Name:    "interioai",
		Usage:   "Interior design analysis: detection, measurement, costing, suggestions, rendering",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to JSON configuration file",
				EnvVars: []string{"INTERIOAI_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			analyzeCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "port",
				Usage:   "Listen port (overrides config)",
				EnvVars: []string{"PORT"},
			},
		},
		Action: func(c *cli.Context) error {
			logger := initLogger()

			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			if port := c.String("port"); port != "" {
				cfg.Server.Port = port
			}

			app, err := interioai.New(cfg, logger)
			if err != nil {
				return err
			}

			handler := server.NewHandler(app.Pipeline(), app.DetectorName(), cfg.Server.MaxUploadMB, logger)
			srv := server.New(cfg.Server.Port, handler, logger)

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-stop:
				logger.Info("shutting down", "signal", sig.String())
				ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				return srv.Shutdown(ctx)
			}
		},
	}
}

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Analyze a single room photo and print the report as JSON",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "in",
				Aliases:  []string{"i"},
				Usage:    "Input image path or URL",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "room-type",
				Usage: "Room type hint (living room, bedroom, kitchen, ...)",
			},
			&cli.StringFlag{
				Name:  "style",
				Usage: "Design style hint (modern, rustic, minimalist, ...)",
			},
			&cli.StringFlag{
				Name:  "palette",
				Usage: "Preferred color palette",
			},
			&cli.StringFlag{
				Name:  "budget",
				Value: "mid-range",
				Usage: "Budget tier (budget, mid-range, premium)",
			},
			&cli.BoolFlag{
				Name:  "measure",
				Usage: "Estimate physical dimensions (needs --scale or a calibration marker)",
			},
			&cli.Float64Flag{
				Name:  "scale",
				Usage: "Reference scale in cm per pixel",
			},
			&cli.BoolFlag{
				Name:  "annotate",
				Usage: "Include an annotated copy of the image with detection boxes",
			},
			&cli.BoolFlag{
				Name:  "generate",
				Usage: "Render a redesigned version of the room",
			},
			&cli.StringFlag{
				Name:  "out",
				Usage: "Write the report to this file instead of stdout",
			},
			&cli.StringFlag{
				Name:  "render-out",
				Usage: "Save the rendered redesign to this file (implies --generate)",
			},
		},
		Action: func(c *cli.Context) error {
			logger := initLogger()

			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}

			proc := processing.NewProcessor()
			image, err := readInput(proc, c.String("in"))
			if err != nil {
				return err
			}

			app, err := interioai.New(cfg, logger)
			if err != nil {
				return err
			}

			renderOut := c.String("render-out")
			report, err := app.Analyze(c.Context, pipeline.Request{
				Image:          image,
				RoomType:       c.String("room-type"),
				Style:          c.String("style"),
				Palette:        c.String("palette"),
				BudgetLevel:    c.String("budget"),
				ReferenceScale: c.Float64("scale"),
				Measure:        c.Bool("measure"),
				Annotate:       c.Bool("annotate"),
				Generate:       c.Bool("generate") || renderOut != "",
			})
			if err != nil {
				return err
			}

			if renderOut != "" && report.RenderedImage != "" {
				if err := saveDataURI(proc, report.RenderedImage, renderOut); err != nil {
					return fmt.Errorf("failed to save render: %w", err)
				}
				logger.Info("render saved", "path", renderOut)
			}

			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}

			if dest := c.String("out"); dest != "" {
				if err := os.WriteFile(dest, out, 0o644); err != nil {
					return err
				}
				logger.Info("report written", "path", dest, "size", utils.FormatFileSize(int64(len(out))))
				return nil
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

// readInput loads a room photo from a local path or a URL and returns the
// bytes handed to the pipeline.
func readInput(proc *processing.Processor, in string) ([]byte, error) {
	if strings.HasPrefix(in, "http://") || strings.HasPrefix(in, "https://") {
		img, err := proc.LoadImageSmart(in)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch input: %w", err)
		}
		return proc.Encode(img, "jpg", 92, false)
	}

	if !utils.IsImageFile(in) {
		return nil, fmt.Errorf("unsupported input file: %s", in)
	}
	data, err := os.ReadFile(in)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return data, nil
}

// saveDataURI decodes a base64 data URI and writes it as an image file, the
// format chosen by the destination extension.
func saveDataURI(proc *processing.Processor, uri, dest string) error {
	idx := strings.Index(uri, "base64,")
	if idx < 0 {
		return fmt.Errorf("not a base64 data URI")
	}
	raw, err := base64.StdEncoding.DecodeString(uri[idx+len("base64,"):])
	if err != nil {
		return err
	}
	img, err := proc.Decode(raw)
	if err != nil {
		return err
	}

	format := utils.GetFileExtension(dest)
	if format == "" {
		format = "jpg"
	}
	return proc.SaveImage(img, dest, format, 92, false)
}

func initLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}
