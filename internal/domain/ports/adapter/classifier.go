package adapter

import (
	"context"

	"plant-advisor/internal/domain/model"
)

// LeafClassifier maps an uploaded leaf image to one of the known disease labels.
type LeafClassifier interface {
	Predict(ctx context.Context, image []byte) (model.Prediction, error)
}
