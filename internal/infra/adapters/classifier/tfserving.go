package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"net/http"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"plant-advisor/internal/domain"
	"plant-advisor/internal/domain/model"
	"plant-advisor/internal/domain/ports/adapter"
)

var _ adapter.LeafClassifier = (*TFServingClassifier)(nil)

// TFServingClassifier calls a TensorFlow Serving REST endpoint hosting the
// leaf disease model. Images are resized to a fixed square input and sent
// as raw 0-255 RGB values; the model's rescaling layer does the rest.
type TFServingClassifier struct {
	endpoint string
	size     int
	labels   model.LabelTable
	client   *http.Client
}

func NewTFServingClassifier(baseURL, modelName string, size int, labels []string, timeout time.Duration) (*TFServingClassifier, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("classifier: empty base url")
	}
	if size <= 0 {
		size = 128
	}
	if len(labels) == 0 {
		labels = model.DefaultLabels
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &TFServingClassifier{
		endpoint: fmt.Sprintf("%s/v1/models/%s:predict", strings.TrimRight(baseURL, "/"), modelName),
		size:     size,
		labels:   model.LabelTable(labels),
		client:   &http.Client{Timeout: timeout},
	}, nil
}

type predictRequest struct {
	Instances [][][][3]float32 `json:"instances"`
}

type predictResponse struct {
	Predictions [][]float64 `json:"predictions"`
	Error       string      `json:"error"`
}

func (c *TFServingClassifier) Predict(ctx context.Context, img []byte) (model.Prediction, error) {
	pixels, err := Preprocess(img, c.size)
	if err != nil {
		return model.Prediction{}, fmt.Errorf("%w: %v", domain.ErrClassifierFailed, err)
	}
	body, err := json.Marshal(predictRequest{Instances: [][][][3]float32{pixels}})
	if err != nil {
		return model.Prediction{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return model.Prediction{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return model.Prediction{}, fmt.Errorf("%w: %v", domain.ErrClassifierFailed, err)
	}
	defer resp.Body.Close()

	var payload predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return model.Prediction{}, fmt.Errorf("%w: decode response (http %d): %v", domain.ErrClassifierFailed, resp.StatusCode, err)
	}
	if resp.StatusCode >= 300 || payload.Error != "" {
		return model.Prediction{}, fmt.Errorf("%w: http %d: %s", domain.ErrClassifierFailed, resp.StatusCode, payload.Error)
	}
	if len(payload.Predictions) == 0 || len(payload.Predictions[0]) == 0 {
		return model.Prediction{}, fmt.Errorf("%w: empty predictions", domain.ErrClassifierFailed)
	}

	idx, score := argmax(payload.Predictions[0])
	label, err := c.labels.Label(idx)
	if err != nil {
		return model.Prediction{}, fmt.Errorf("%w: %v", domain.ErrClassifierFailed, err)
	}
	return model.Prediction{Index: idx, Label: label, Confidence: score}, nil
}

// Preprocess decodes an image and returns it as a size x size grid of RGB
// values in [0,255].
func Preprocess(b []byte, size int) ([][][3]float32, error) {
	src, err := imaging.Decode(bytes.NewReader(b), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return toRGB(imaging.Resize(src, size, size, imaging.NearestNeighbor)), nil
}

func toRGB(img *image.NRGBA) [][][3]float32 {
	b := img.Bounds()
	out := make([][][3]float32, b.Dy())
	for y := 0; y < b.Dy(); y++ {
		row := make([][3]float32, b.Dx())
		for x := 0; x < b.Dx(); x++ {
			i := y*img.Stride + x*4
			row[x] = [3]float32{float32(img.Pix[i]), float32(img.Pix[i+1]), float32(img.Pix[i+2])}
		}
		out[y] = row
	}
	return out
}

func argmax(v []float64) (int, float64) {
	best, idx := v[0], 0
	for i, x := range v[1:] {
		if x > best {
			best, idx = x, i+1
		}
	}
	return idx, best
}
