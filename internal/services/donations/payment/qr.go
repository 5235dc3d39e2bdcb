package payment

import (
	"context"
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// Renderer turns a payment URI into a PNG image.
type Renderer interface {
	Render(ctx context.Context, content string, size int) ([]byte, error)
}

// QRCodeRenderer renders PNG QR codes at medium error correction.
type QRCodeRenderer struct{}

// Render encodes content as a square PNG of size pixels.
func (QRCodeRenderer) Render(ctx context.Context, content string, size int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

func pngDataURL(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}
