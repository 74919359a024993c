package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Имена бэкендов моделей
const (
	BackendSynthetic = "synthetic"
	BackendTFLite    = "tflite"
	BackendMaskRCNN  = "maskrcnn"
	BackendOpenCV    = "opencv"
	BackendBilinear  = "bilinear"
)

type Config struct {
	TelegramToken string
	LogLevel      string

	// Препроцессинг
	LoadSize        int
	Resizer         string
	StrictPose      bool
	BBoxRescale     float64
	BBoxPad         float64
	DetectionThresh float64
	MinKeypoints    int
	MaxAspect       float64

	// Сеть сегментации и энкодер
	Predictor       string
	PredictorModel  string
	PredictorLogits bool
	EncoderModel    string
	LatentSize      int
	Threads         int

	// Детектор экземпляров
	Detector           string
	DetectorModel      string
	DetectorConfig     string
	SyntheticInstances int

	// Уточнение масок
	GrabCutIterations int

	// HTTP
	HTTPAddr    string
	StaticDir   string
	MaxUploadMB int
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	e := &env{}
	cfg := &Config{
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		LogLevel:      e.str("HUMANSEG_LOG_LEVEL", "info"),

		LoadSize:        e.int("HUMANSEG_LOAD_SIZE", 512),
		Resizer:         e.str("HUMANSEG_RESIZER", BackendBilinear),
		StrictPose:      e.bool("HUMANSEG_STRICT_POSE", false),
		BBoxRescale:     e.float("HUMANSEG_BBOX_RESCALE", 1.3),
		BBoxPad:         e.float("HUMANSEG_BBOX_PAD", 0),
		DetectionThresh: e.float("HUMANSEG_DETECTION_THRESH", 0.2),
		MinKeypoints:    e.int("HUMANSEG_MIN_KEYPOINTS", 10),
		MaxAspect:       e.float("HUMANSEG_MAX_ASPECT", 0),

		Predictor:       e.str("HUMANSEG_PREDICTOR", BackendSynthetic),
		PredictorModel:  e.str("HUMANSEG_PREDICTOR_MODEL", ""),
		PredictorLogits: e.bool("HUMANSEG_PREDICTOR_LOGITS", false),
		EncoderModel:    e.str("HUMANSEG_ENCODER_MODEL", ""),
		LatentSize:      e.int("HUMANSEG_LATENT_SIZE", 32),
		Threads:         e.int("HUMANSEG_THREADS", 4),

		Detector:           e.str("HUMANSEG_DETECTOR", BackendSynthetic),
		DetectorModel:      e.str("HUMANSEG_DETECTOR_MODEL", ""),
		DetectorConfig:     e.str("HUMANSEG_DETECTOR_CONFIG", ""),
		SyntheticInstances: e.int("HUMANSEG_SYNTHETIC_INSTANCES", 1),

		GrabCutIterations: e.int("HUMANSEG_GRABCUT_ITERATIONS", 5),

		HTTPAddr:    e.str("HUMANSEG_HTTP_ADDR", ":8080"),
		StaticDir:   e.str("HUMANSEG_STATIC_DIR", ""),
		MaxUploadMB: e.int("HUMANSEG_MAX_UPLOAD_MB", 20),
	}
	if e.err != nil {
		return nil, e.err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет значения, которые нельзя исправить по умолчанию
func (c *Config) Validate() error {
	if c.LoadSize <= 0 {
		return fmt.Errorf("HUMANSEG_LOAD_SIZE must be positive, got %d", c.LoadSize)
	}
	if c.LatentSize <= 0 {
		return fmt.Errorf("HUMANSEG_LATENT_SIZE must be positive, got %d", c.LatentSize)
	}
	if c.MaxAspect < 0 {
		return fmt.Errorf("HUMANSEG_MAX_ASPECT must not be negative, got %g", c.MaxAspect)
	}
	switch c.Predictor {
	case BackendSynthetic, BackendTFLite:
	default:
		return fmt.Errorf("unknown predictor backend %q", c.Predictor)
	}
	switch c.Detector {
	case BackendSynthetic, BackendMaskRCNN:
	default:
		return fmt.Errorf("unknown detector backend %q", c.Detector)
	}
	switch c.Resizer {
	case BackendBilinear, BackendOpenCV:
	default:
		return fmt.Errorf("unknown resizer %q", c.Resizer)
	}
	return nil
}

// env читает переменные окружения и запоминает первую ошибку разбора
type env struct {
	err error
}

func (e *env) lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (e *env) str(key, def string) string {
	if v, ok := e.lookup(key); ok {
		return v
	}
	return def
}

func (e *env) int(key string, def int) int {
	v, ok := e.lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return n
}

func (e *env) float(key string, def float64) float64 {
	v, ok := e.lookup(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return f
}

func (e *env) bool(key string, def bool) bool {
	v, ok := e.lookup(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return b
}

func (e *env) fail(key, value string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("invalid %s=%q: %w", key, value, err)
	}
}
