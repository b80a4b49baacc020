// Package mask separates background from foreground pixels by intensity
// thresholds and overwrites masked pixels of result movies.
package mask

import (
	"fmt"
	"log/slog"

	"spyboat/internal/fault"
	"spyboat/internal/models"
)

// CreateFixedMask thresholds a single reference frame. The resulting (H, W)
// mask is true where the frame value lies below the threshold.
func CreateFixedMask(movie *models.Movie, frame int, th Threshold, logger *slog.Logger) (*models.Mask, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if frame < 0 || frame >= movie.Frames {
		return nil, fmt.Errorf("%w: frame %d requested, movie has %d frames", fault.ErrFrameOutOfRange, frame, movie.Frames)
	}

	m := models.NewFixedMask(movie.Height, movie.Width)
	level := threshold(m.Data, movie.Frame(frame), th)
	logger.Info("created fixed mask", "frame", frame, "threshold", level, "masked", m.Count(), "pixels", len(m.Data))
	return m, nil
}

// CreateDynamicMask thresholds every frame independently. With Auto each
// frame gets its own Otsu threshold.
func CreateDynamicMask(movie *models.Movie, th Threshold, logger *slog.Logger) (*models.Mask, error) {
	if logger == nil {
		logger = slog.Default()
	}

	m := models.NewDynamicMask(movie.Frames, movie.Height, movie.Width)
	size := movie.FrameSize()
	for t := 0; t < movie.Frames; t++ {
		level := threshold(m.Data[t*size:(t+1)*size], movie.Frame(t), th)
		logger.Debug("masked frame", "frame", t, "threshold", level)
	}
	logger.Info("created dynamic mask", "frames", movie.Frames, "threshold", th.String(), "masked", m.Count())
	return m, nil
}

func threshold(dst []bool, frame []float64, th Threshold) float64 {
	level := th.resolve(frame)
	for i, v := range frame {
		dst[i] = v < level
	}
	return level
}

// ApplyMask sets every masked element of movie to fill, in place. A fixed
// (H, W) mask is applied to every frame, a dynamic (F, H, W) mask element
// wise. Any other shape is an error and leaves the movie untouched.
func ApplyMask(movie *models.Movie, m *models.Mask, fill float64) error {
	switch {
	case m.Fixed() && m.Shape[0] == movie.Height && m.Shape[1] == movie.Width:
		size := movie.FrameSize()
		for t := 0; t < movie.Frames; t++ {
			frame := movie.Data[t*size : (t+1)*size]
			for i, masked := range m.Data {
				if masked {
					frame[i] = fill
				}
			}
		}
	case len(m.Shape) == 3 && m.Shape[0] == movie.Frames && m.Shape[1] == movie.Height && m.Shape[2] == movie.Width:
		for i, masked := range m.Data {
			if masked {
				movie.Data[i] = fill
			}
		}
	default:
		return fmt.Errorf("%w: mask %v does not fit movie %v", fault.ErrShapeMismatch, m.Shape, movie.Shape())
	}
	return nil
}

// ApplyToResults masks all four result movies with the same mask.
func ApplyToResults(res *models.ResultSet, m *models.Mask, fill float64) error {
	return res.Each(func(name string, movie *models.Movie) error {
		if err := ApplyMask(movie, m, fill); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	})
}
