// Package rest отдаёт сегментацию и детекцию по HTTP.
package rest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	app "humanseg/internal/application"
	"humanseg/internal/domain/entity"
	"humanseg/internal/infrastructure/imageio"
	"humanseg/internal/infrastructure/posefile"
	"humanseg/internal/preprocess"
)

type Server struct {
	segmentation *app.SegmentationService
	masks        *app.MaskSetService
	engine       *gin.Engine
	maxUpload    int64
}

// NewServer создаёт HTTP-сервер; staticDir может быть пустым
func NewServer(segmentation *app.SegmentationService, masks *app.MaskSetService, staticDir string, maxUploadMB int) *Server {
	s := &Server{
		segmentation: segmentation,
		masks:        masks,
		engine:       gin.New(),
		maxUpload:    int64(maxUploadMB) << 20,
	}

	s.engine.Use(gin.Recovery(), requestLogger(), s.limitBody())
	s.engine.MaxMultipartMemory = s.maxUpload

	if staticDir != "" {
		s.engine.Use(static.Serve("/", static.LocalFile(staticDir, false)))
	}

	s.engine.GET("/healthz", s.health)
	api := s.engine.Group("/api/v1")
	api.POST("/segment", s.segment)
	api.POST("/detect", s.detect)

	return s
}

// Handler возвращает http.Handler сервера
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run слушает addr до отмены контекста
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("HTTP server is running")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type bboxResponse struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type segmentResponse struct {
	BBox     bboxResponse `json:"bbox"`
	FromPose bool         `json:"from_pose"`
	Width    int          `json:"width"`
	Height   int          `json:"height"`
	Coverage float64      `json:"coverage"`
	Mean     float64      `json:"mean"`
}

// segment принимает multipart-форму: image (обязательно), pose (JSON OpenPose), person.
// ?format=png возвращает наложение маски, ?format=mask маску вероятностей.
func (s *Server) segment(c *gin.Context) {
	img, ok := s.readImage(c)
	if !ok {
		return
	}

	pose, ok := s.readPose(c)
	if !ok {
		return
	}

	res, err := s.segmentation.Segment(c.Request.Context(), img, pose)
	switch {
	case errors.Is(err, preprocess.ErrNoDetection):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	case err != nil:
		log.WithError(err).Error("segment failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	switch c.Query("format") {
	case "png":
		overlay, err := res.Overlay()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		s.writePNG(c, overlay)
	case "mask":
		s.writePNG(c, res.Mask.Gray())
	default:
		c.JSON(http.StatusOK, segmentResponse{
			BBox:     bboxResponse{X: res.BBox.X, Y: res.BBox.Y, Width: res.BBox.Width, Height: res.BBox.Height},
			FromPose: res.FromPose,
			Width:    res.Mask.Width,
			Height:   res.Mask.Height,
			Coverage: res.Mask.Coverage(0.5),
			Mean:     res.Mask.Mean(),
		})
	}
}

type instanceResponse struct {
	ClassID int     `json:"class_id"`
	Score   float32 `json:"score"`
	Area    int     `json:"area"`
}

// detect возвращает найденных людей; ?index=N отдаёт маску N-го экземпляра в PNG
func (s *Server) detect(c *gin.Context) {
	img, ok := s.readImage(c)
	if !ok {
		return
	}

	masks, err := s.masks.Detect(c.Request.Context(), img)
	if err != nil {
		log.WithError(err).Error("detect failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if raw := c.Query("index"); raw != "" {
		index, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "index must be an integer"})
			return
		}
		if index < 0 || index >= len(masks) {
			c.JSON(http.StatusNotFound, gin.H{"error": app.ErrNoInstances.Error()})
			return
		}
		s.writePNG(c, masks[index].Image())
		return
	}

	instances := make([]instanceResponse, 0, len(masks))
	for _, m := range masks {
		area := 0
		for _, v := range m.Pix {
			if v != 0 {
				area++
			}
		}
		instances = append(instances, instanceResponse{ClassID: m.ClassID, Score: m.Score, Area: area})
	}
	c.JSON(http.StatusOK, gin.H{"count": len(instances), "instances": instances})
}

func (s *Server) readImage(c *gin.Context) (*entity.Image, bool) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return nil, false
	}

	img, err := decodeUpload(file, imageio.DecodeRGB)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return img, true
}

func (s *Server) readPose(c *gin.Context) (entity.Pose, bool) {
	file, err := c.FormFile("pose")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, true
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	record, err := decodeUpload(file, posefile.Decode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	person, err := strconv.Atoi(c.DefaultPostForm("person", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "person must be an integer"})
		return nil, false
	}

	pose, err := posefile.Person(record, person)
	if err != nil {
		// Человека нет: решение о центральном кропе принимает сервис
		return entity.Pose{}, true
	}
	return pose, true
}

func (s *Server) writePNG(c *gin.Context, img *entity.Image) {
	data, err := imageio.EncodePNG(img)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", data)
}

func (s *Server) limitBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.maxUpload > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload)
		}
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
		}).Debug("request")
	}
}

func decodeUpload[T any](file *multipart.FileHeader, decode func(r io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := file.Open()
	if err != nil {
		return zero, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	return decode(f)
}
