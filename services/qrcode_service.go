// services/qrcode_service.go
package services

import (
	"os"

	"github.com/skip2/go-qrcode"
)

const (
	qrMinSize     = 128
	qrMaxSize     = 1024
	qrDefaultSize = 256
)

// GenerateQRCode renders a PNG QR code pointing at the public confirmation
// page, for printing on venue signage. Sizes outside [128, 1024] pixels are
// clamped; zero selects the default.
func GenerateQRCode(size int) ([]byte, error) {
	applicationURL := os.Getenv("APPLICATION_URL")
	if applicationURL == "" {
		applicationURL = "http://localhost:8080" // Default for local testing
	}

	switch {
	case size == 0:
		size = qrDefaultSize
	case size < qrMinSize:
		size = qrMinSize
	case size > qrMaxSize:
		size = qrMaxSize
	}

	return qrcode.Encode(applicationURL, qrcode.Medium, size)
}
