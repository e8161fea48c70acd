package media

import (
	"testing"

	"github.com/stretchr/testify/require"

	"zonechat/domain"
	zerrors "zonechat/errors"
)

func TestClassify_Image(t *testing.T) {
	req := require.New(t)

	// Minimal PNG header
	blob := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	kind, err := Classify(blob)
	req.NoError(err)
	req.Equal(domain.KindImage, kind)
}

func TestClassify_Audio(t *testing.T) {
	req := require.New(t)

	// RIFF/WAVE header
	blob := []byte("RIFF\x24\x00\x00\x00WAVEfmt ")

	kind, err := Classify(blob)
	req.NoError(err)
	req.Equal(domain.KindAudio, kind)
}

func TestClassify_RejectsUnknown(t *testing.T) {
	req := require.New(t)

	_, err := Classify([]byte("just some text"))
	req.ErrorIs(err, zerrors.ErrUnsupportedMedia)
}
