package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/spf13/pflag"

	"github.com/high-horse/fingerprint"
	"github.com/high-horse/fingerprint/config"
)

var version = "dev"

type options struct {
	configPath string
	trace      bool
	version    bool
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := pflag.NewFlagSet("fingerprint-server", pflag.ContinueOnError)
	fs.StringVarP(&opts.configPath, "config", "c", "", "Path to a TOML configuration file.")
	fs.BoolVarP(&opts.trace, "trace", "t", false, "Log the size of every intermediate extraction result.")
	fs.BoolVarP(&opts.version, "version", "v", false, "Print the version and exit.")
	err := fs.Parse(args)
	return opts, err
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// setupLogging sends the standard logger to stderr and to a daily rotated
// file, and returns the writer for the access log.
func setupLogging(cfg config.Log) (io.Writer, error) {
	if err := os.MkdirAll(cfg.Dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	rl, err := rotatelogs.New(
		filepath.Join(cfg.Dir, "fingerprint-server.%Y%m%d.log"),
		rotatelogs.WithLinkName(filepath.Join(cfg.Dir, "fingerprint-server.log")),
		rotatelogs.WithMaxAge(cfg.MaxAge),
		rotatelogs.WithRotationTime(cfg.RotationTime),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	w := io.MultiWriter(os.Stderr, rl)
	log.SetOutput(w)
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	return w, nil
}

func newApp(s *service, access io.Writer) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:   s.cfg.Server.BodyLimit,
		ReadTimeout: s.cfg.Server.ReadTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			switch {
			case errors.As(err, &fe):
				code = fe.Code
			case errors.Is(err, fingerprint.ErrInvalidImage), errors.Is(err, fingerprint.ErrInvalidTemplate):
				code = fiber.StatusBadRequest
			}
			if code >= fiber.StatusInternalServerError {
				log.Printf("Request %s %s failed: %v", c.Method(), c.Path(), err)
			}
			return c.Status(code).JSON(MatchResponse{
				Error: err.Error(),
			})
		},
	})

	app.Use(logger.New(logger.Config{Output: access}))
	app.Use(cors.New())

	app.Get("/health", s.health)
	app.Post("/extract", s.extract)
	app.Post("/match", s.matchImages)
	app.Post("/match/templates", s.matchTemplates)
	app.Post("/identify", s.identifyTemplates)
	return app
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatal(err)
	}
	if opts.version {
		fmt.Println("fingerprint-server", version)
		return
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		log.Fatal(err)
	}
	access, err := setupLogging(cfg.Log)
	if err != nil {
		log.Fatal(err)
	}

	s, err := newService(cfg, opts.trace)
	if err != nil {
		log.Fatal(err)
	}
	app := newApp(s, access)

	log.Println("Server starting on", cfg.Server.Addr)
	log.Fatal(app.Listen(cfg.Server.Addr))
}
