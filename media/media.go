// Package media classifies opaque encoded blobs into the media message
// kinds. Capture and compression happen upstream; the payload is passed
// through unchanged, only its kind is derived here.
package media

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"zonechat/domain"
	zerrors "zonechat/errors"
)

// Classify sniffs the blob's content and maps it onto image, audio or
// video. Anything else is rejected rather than guessed.
func Classify(blob []byte) (domain.MessageKind, error) {
	mt := mimetype.Detect(blob)
	switch {
	case strings.HasPrefix(mt.String(), "image/"):
		return domain.KindImage, nil
	case strings.HasPrefix(mt.String(), "audio/"):
		return domain.KindAudio, nil
	case strings.HasPrefix(mt.String(), "video/"):
		return domain.KindVideo, nil
	default:
		return "", zerrors.ErrUnsupportedMedia
	}
}
