package avatar

import (
	"mime/multipart"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSniffKnownFormats(t *testing.T) {
	cases := []struct {
		name string
		head []byte
		want ImageType
		mime string
	}{
		{"jpeg", []byte{0xff, 0xd8, 0xff, 0xe0}, TypeJPEG, "image/jpeg"},
		{"png", []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0}, TypePNG, "image/png"},
		{"gif87a", []byte("GIF87a......"), TypeGIF, "image/gif"},
		{"gif89a", []byte("GIF89a......"), TypeGIF, "image/gif"},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), TypeWEBP, "image/webp"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Sniff(tc.head)
			require.NoError(t, err)
			assert.Equal(t, tc.want, res.Type)
			assert.Equal(t, tc.mime, res.MIME)
		})
	}
}

func TestSniffRejectsUnknownContent(t *testing.T) {
	for _, head := range [][]byte{
		nil,
		[]byte("<svg xmlns=\"http://www.w3.org/2000/svg\"/>"),
		[]byte("%PDF-1.7"),
		[]byte("plain text"),
	} {
		_, err := Sniff(head)
		assert.ErrorIs(t, err, ErrUnsupportedType)
	}
}

func TestDeclaredMIME(t *testing.T) {
	header := textproto.MIMEHeader{}
	assert.Equal(t, "", DeclaredMIME(header))

	header.Set("Content-Type", "image/png")
	assert.Equal(t, "image/png", DeclaredMIME(header))

	header.Set("Content-Type", "image/jpeg; charset=binary")
	assert.Equal(t, "image/jpeg", DeclaredMIME(header))
}

func TestDeclaredMIMEFromUploadHeader(t *testing.T) {
	fh := &multipart.FileHeader{
		Filename: "avatar.png",
		Header:   textproto.MIMEHeader{"Content-Type": []string{"image/png"}},
	}
	assert.Equal(t, "image/png", DeclaredMIME(fh.Header))
}
