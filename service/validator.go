package service

import (
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"onboarding-media/constant"
)

// ValidationResult describes what an upload actually contains, decided from
// its bytes rather than a filename or a client-declared type.
type ValidationResult struct {
	MIME string
	// Legacy marks HEIC/HEIF containers that need conversion downstream.
	Legacy bool
}

var imageMIMEs = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/heic": true,
	"image/heif": true,
}

var legacyImageMIMEs = map[string]bool{
	"image/heic": true,
	"image/heif": true,
}

var videoMIMEs = map[string]bool{
	"video/mp4":       true,
	"video/webm":      true,
	"video/quicktime": true,
}

type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// Validate sniffs the upload's leading bytes and checks them against the
// allow-list for the declared category, before anything is staged to the
// storage tree or looked up in the database.
func (v *Validator) Validate(file *multipart.FileHeader, category constant.MediaType) (ValidationResult, error) {
	if category == constant.MediaTypeImage && file.Size > constant.MaxImageBytes {
		return ValidationResult{}, fmt.Errorf("%w: %d bytes over %d limit", ErrPayloadTooLarge, file.Size, constant.MaxImageBytes)
	}

	src, err := file.Open()
	if err != nil {
		return ValidationResult{}, err
	}
	defer src.Close()

	mt, err := mimetype.DetectReader(src)
	if err != nil {
		return ValidationResult{}, err
	}

	detected := mt.String()
	// mimetype appends parameters to some types; compare the bare type.
	if idx := strings.IndexByte(detected, ';'); idx >= 0 {
		detected = detected[:idx]
	}

	switch category {
	case constant.MediaTypeImage:
		if !imageMIMEs[detected] {
			return ValidationResult{}, fmt.Errorf("%w: %s", ErrInvalidMediaType, detected)
		}
	case constant.MediaTypeVideo:
		if !videoMIMEs[detected] {
			return ValidationResult{}, fmt.Errorf("%w: %s", ErrInvalidMediaType, detected)
		}
	default:
		return ValidationResult{}, errors.New("unknown media category")
	}

	return ValidationResult{
		MIME:   detected,
		Legacy: legacyImageMIMEs[detected],
	}, nil
}
