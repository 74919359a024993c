package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	log "github.com/sirupsen/logrus"

	"humanseg/config"
	"humanseg/internal/api/rest"
	telegram "humanseg/internal/api/telegram"
	app "humanseg/internal/application"
	"humanseg/internal/container"
	"humanseg/internal/infrastructure/imageio"
)

const usage = `usage: humanseg <command> [flags]

commands:
  infer    <image> [posefile]: crop, segment and render one image
  detect   <image>...: write <image>_mask.png with the most confident person for each image
  maskset  write every detected person mask of one image plus out.json
  refine   <image>...: refine <image>_mask.png with GrabCut for each image
  serve    run the HTTP API
  bot      run the Telegram bot`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	setupLogging(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Args[1], os.Args[2:]); err != nil {
		stop()
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}

func setupLogging(level string) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.Warnf("Unknown log level %q, using info", level)
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}

func run(ctx context.Context, cfg *config.Config, command string, args []string) error {
	switch command {
	case "infer":
		return runInfer(ctx, cfg, args)
	case "detect":
		return runDetect(ctx, cfg, args)
	case "maskset":
		return runMaskSet(ctx, cfg, args)
	case "refine":
		return runRefine(ctx, cfg, args)
	case "serve":
		return runServe(ctx, cfg, args)
	case "bot":
		return runBot(ctx, cfg)
	case "help", "-h", "--help":
		fmt.Println(usage)
		return nil
	}
	fmt.Fprintln(os.Stderr, usage)
	return fmt.Errorf("unknown command %q", command)
}

func runInfer(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("infer", flag.ContinueOnError)
	imagePath := fs.String("image", "", "path to the input image")
	posePath := fs.String("pose", "", "path to an OpenPose JSON file")
	person := fs.Int("person", 0, "person index in the pose file")
	outDir := fs.String("out", ".", "output directory")
	strict := fs.Bool("strict", cfg.StrictPose, "fail instead of falling back to the center crop")
	latent := fs.Bool("latent", false, "also run the feature encoder and report the latent shape")
	if err := fs.Parse(args); err != nil {
		return err
	}
	// infer <image> [posefile] без флагов
	if *imagePath == "" && fs.NArg() > 0 {
		*imagePath = fs.Arg(0)
		if *posePath == "" && fs.NArg() > 1 {
			*posePath = fs.Arg(1)
		}
	}
	if *imagePath == "" {
		return errors.New("an image is required")
	}

	c, err := container.New(cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	svc := c.SegmentationService
	svc.StrictPose = *strict

	res, err := svc.InferFile(ctx, *imagePath, *posePath, *person)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	paths, err := res.Save(*outDir, filepath.Base(*imagePath))
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"bbox":      res.BBox,
		"from_pose": res.FromPose,
		"input":     res.Input,
	}).Info("inference done")
	for _, p := range paths {
		fmt.Println(p)
	}

	if *latent {
		t, err := svc.Encode(ctx, res.Input)
		if err != nil {
			return err
		}
		fmt.Printf("latent %s\n", t)
	}
	return nil
}

// runDetect завершается с ошибкой, если хотя бы на одном изображении нет людей
func runDetect(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("detect", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("at least one image is required")
	}

	c, err := container.New(cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	var missing int
	for _, path := range fs.Args() {
		maskPath, err := c.MaskSetService.ExtractMainMask(ctx, path)
		if errors.Is(err, app.ErrNoInstances) {
			log.WithField("image", path).Error("No humans detected")
			missing++
			continue
		}
		if err != nil {
			return err
		}
		fmt.Println(maskPath)
	}
	if missing > 0 {
		return fmt.Errorf("%d image(s): %w", missing, app.ErrNoInstances)
	}
	return nil
}

func runMaskSet(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("maskset", flag.ContinueOnError)
	imagePath := fs.String("image", "", "path to the input image")
	outDir := fs.String("out", "masks", "output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *imagePath == "" {
		return errors.New("-image is required")
	}

	c, err := container.New(cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	img, err := imageio.LoadRGB(*imagePath)
	if err != nil {
		return err
	}
	manifest, err := c.MaskSetService.WriteMaskSet(ctx, img, *outDir)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"dir": *outDir, "masks": len(manifest.Files)}).Info("mask set written")
	return nil
}

func runRefine(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("refine", flag.ContinueOnError)
	iterations := fs.Int("iterations", cfg.GrabCutIterations, "GrabCut iterations")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("at least one image is required")
	}

	c, err := container.New(cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	c.RefineService.Iterations = *iterations
	n, err := c.RefineService.RefineAll(ctx, fs.Args())
	if err != nil {
		return err
	}
	log.WithField("refined", n).Info("refine done")
	return nil
}

func runServe(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", cfg.HTTPAddr, "listen address")
	staticDir := fs.String("static", cfg.StaticDir, "directory with a static web UI")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c, err := container.New(cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	srv := rest.NewServer(c.SegmentationService, c.MaskSetService, *staticDir, cfg.MaxUploadMB)
	if err := srv.Run(ctx, *addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func runBot(ctx context.Context, cfg *config.Config) error {
	if cfg.TelegramToken == "" {
		return errors.New("TELEGRAM_TOKEN is required")
	}

	// Собираем сервисы приложения
	c, err := container.New(cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	// Создаём бота
	bot, err := telegram.NewBot(cfg.TelegramToken, c.UserService, c.SegmentationService)
	if err != nil {
		return fmt.Errorf("create bot: %w", err)
	}

	log.Println("Bot is running...")
	return bot.Run(ctx)
}
