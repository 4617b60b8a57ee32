package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/polishcitizenship/docfill/internal/models"
)

// withTimeout runs one storage or network call under its own deadline.
// There are no retries; a timed-out call is reported as failed.
func withTimeout[T any](ctx context.Context, timeout time.Duration, call func(context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return call(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return call(callCtx)
}

// classify wraps err with sentinel unless it already carries a known kind.
func classify(err error, sentinel error) error {
	if err == nil {
		return nil
	}
	if models.KindOf(err) != models.KindInternal {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

// FailedFill converts a generation error into the response returned at the
// function boundary.
func FailedFill(err error) models.FillPDFResponse {
	resp := models.FillPDFResponse{
		Success:   false,
		Error:     err.Error(),
		ErrorKind: models.KindOf(err),
	}
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		resp.MissingFields = verr.MissingFields
	}
	return resp
}
