package avatar

import (
	"bytes"
	"errors"
	"net/textproto"
	"strings"
)

// Avatar uploads are restricted to raster image types that browsers render
// inline without script execution risk.

type ImageType string

const (
	TypeJPEG ImageType = "jpeg"
	TypePNG  ImageType = "png"
	TypeGIF  ImageType = "gif"
	TypeWEBP ImageType = "webp"
)

var ErrUnsupportedType = errors.New("unsupported avatar type")

type SniffResult struct {
	Type ImageType
	MIME string
}

// Sniff inspects the leading bytes of an upload and rejects anything that is
// not an allowed avatar format, regardless of the declared Content-Type.
func Sniff(head []byte) (SniffResult, error) {
	if len(head) == 0 {
		return SniffResult{}, ErrUnsupportedType
	}

	switch {
	case isJPEG(head):
		return SniffResult{Type: TypeJPEG, MIME: "image/jpeg"}, nil
	case isPNG(head):
		return SniffResult{Type: TypePNG, MIME: "image/png"}, nil
	case isGIF(head):
		return SniffResult{Type: TypeGIF, MIME: "image/gif"}, nil
	case isWEBP(head):
		return SniffResult{Type: TypeWEBP, MIME: "image/webp"}, nil
	}

	return SniffResult{}, ErrUnsupportedType
}

func isJPEG(head []byte) bool {
	return len(head) > 3 &&
		head[0] == 0xff &&
		head[1] == 0xd8 &&
		head[2] == 0xff
}

func isPNG(head []byte) bool {
	pngMagic := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	return len(head) >= len(pngMagic) && bytes.Equal(head[:len(pngMagic)], pngMagic)
}

func isGIF(head []byte) bool {
	return len(head) >= 6 && (bytes.Equal(head[:6], []byte("GIF87a")) || bytes.Equal(head[:6], []byte("GIF89a")))
}

func isWEBP(head []byte) bool {
	return len(head) >= 12 &&
		bytes.Equal(head[:4], []byte("RIFF")) &&
		bytes.Equal(head[8:12], []byte("WEBP"))
}

// DeclaredMIME extracts the bare media type from a multipart part's
// Content-Type header.
func DeclaredMIME(header textproto.MIMEHeader) string {
	contentType := header.Get("Content-Type")
	if contentType == "" {
		return ""
	}
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		return strings.TrimSpace(contentType[:idx])
	}
	return strings.TrimSpace(contentType)
}
