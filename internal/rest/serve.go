// Package rest exposes the transform over HTTP.
package rest

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"spyboat/internal/fault"
	"spyboat/internal/models"
	"spyboat/pkg/analysis"
	"spyboat/pkg/config"
)

// NewRouter returns the API routes.
func NewRouter(logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	s := &server{logger: logger}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))
	api := r.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			v1.GET("/ping", getPing)
			v1.POST("/transform", s.postTransform)
		}
	}
	return r
}

// Serve listens on addr until the server fails.
func Serve(addr string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("serving API", "addr", addr)
	return NewRouter(logger).Run(addr)
}

type server struct {
	logger *slog.Logger
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func getPing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
	})
}

type maskingArgs struct {
	Mode      string   `json:"mode"`
	Frame     *int     `json:"frame"`
	Threshold string   `json:"threshold"`
	FillValue *float64 `json:"fillValue"`
}

type postTransformArgs struct {
	Movie   [][][]float64 `json:"movie" binding:"required"`
	Dt      float64       `json:"dt"`
	Tmin    *float64      `json:"tmin"`
	Tmax    float64       `json:"tmax"`
	NT      int           `json:"nT"`
	TCutoff *float64      `json:"tCutoff"`
	WinSize *float64      `json:"winSize"`
	Workers int           `json:"workers"`
	Method  string        `json:"method"`
	Masking *maskingArgs  `json:"masking"`
}

type postTransformResponse struct {
	Phase     [][][]float64    `json:"phase"`
	Period    [][][]float64    `json:"period"`
	Power     [][][]float64    `json:"power"`
	Amplitude [][][]float64    `json:"amplitude"`
	Summary   analysis.Summary `json:"summary"`
}

// config converts the request into a run configuration without output.
func (args *postTransformArgs) config() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Wavelet.Dt = args.Dt
	cfg.Wavelet.Tmin = args.Tmin
	cfg.Wavelet.Tmax = args.Tmax
	cfg.Wavelet.NT = args.NT
	cfg.Wavelet.TCutoff = args.TCutoff
	cfg.Wavelet.WinSize = args.WinSize

	cfg.Processing.NumWorkers = args.Workers
	if args.Workers == 0 {
		cfg.Processing.NumWorkers = runtime.NumCPU()
	}
	if args.Method != "" {
		cfg.Processing.Convolution = args.Method
	}

	if m := args.Masking; m != nil {
		cfg.Masking.Mode = m.Mode
		cfg.Masking.Frame = m.Frame
		if m.Threshold != "" {
			cfg.Masking.Threshold = m.Threshold
		}
		if m.FillValue != nil {
			cfg.Masking.FillValue = *m.FillValue
		}
	}
	cfg.Output.Directory = ""
	return cfg
}

func (s *server) postTransform(c *gin.Context) {
	var args postTransformArgs
	if err := c.ShouldBind(&args); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	movie, err := models.MovieFromArray(args.Movie)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	a := analysis.NewAnalyzer(&analysis.Params{
		Movie:  movie,
		Name:   "api",
		Config: args.config(),
		Logger: s.logger,
	})
	if err := a.Process(c.Request.Context()); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	res := a.Results()
	c.JSON(http.StatusOK, postTransformResponse{
		Phase:     res.Phase.Array(),
		Period:    res.Period.Array(),
		Power:     res.Power.Array(),
		Amplitude: res.Amplitude.Array(),
		Summary:   a.GetSummary(),
	})
}

// statusFor maps caller mistakes to 400 and everything else to 500.
func statusFor(err error) int {
	for _, target := range []error{
		fault.ErrMissingParameter,
		fault.ErrInvalidParameter,
		fault.ErrShapeMismatch,
		fault.ErrFrameOutOfRange,
		fault.ErrInvalidInput,
		fault.ErrInvalidWorkers,
		fault.ErrNumeric,
	} {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}
