package prescription

import (
	"encoding/base64"
	"fmt"
	"strings"

	"medistore/internal/model"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MaxImageSize bounds a decoded prescription upload.
const MaxImageSize = 5 << 20

var allowedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp", "application/pdf"}

// Decode parses a prescription payload given either as a data URL
// ("data:image/png;base64,...") or as bare base64, and checks that the
// content is a supported image.
func Decode(payload string) (Image, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return Image{}, model.ErrInvalidPrescription
	}

	if strings.HasPrefix(payload, "data:") {
		comma := strings.IndexByte(payload, ',')
		if comma < 0 || !strings.HasSuffix(payload[:comma], ";base64") {
			return Image{}, model.NewDomainError(model.ErrCodeInvalidPrescription, "Prescription must be a base64 data URL")
		}
		payload = payload[comma+1:]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, model.NewDomainError(model.ErrCodeInvalidPrescription, "Prescription is not valid base64")
	}

	return Validate(data)
}

// Validate checks raw image bytes and detects their content type.
func Validate(data []byte) (Image, error) {
	if len(data) == 0 {
		return Image{}, model.ErrInvalidPrescription
	}
	if len(data) > MaxImageSize {
		return Image{}, model.NewDomainError(model.ErrCodeInvalidPrescription,
			fmt.Sprintf("Prescription exceeds %d MB", MaxImageSize>>20))
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), allowedTypes...) {
		return Image{}, model.NewDomainError(model.ErrCodeInvalidPrescription,
			fmt.Sprintf("Unsupported prescription type %s", mtype.String()))
	}

	return Image{
		Data:        data,
		ContentType: mtype.String(),
		Extension:   mtype.Extension(),
	}, nil
}

// DataURL renders img as a base64 data URL.
func DataURL(img Image) string {
	return "data:" + img.ContentType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// NewKey builds a unique storage key for an order's prescription.
func NewKey(orderID string, img Image) string {
	return orderID + "/" + uuid.Must(uuid.NewV7()).String() + img.Extension
}
