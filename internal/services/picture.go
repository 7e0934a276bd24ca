package services

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const MaxPictureSize = 5 << 20

// Upload is a picture received from a form.
type Upload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// checkImage sniffs the upload. It returns a reader that replays the sniffed
// bytes, or a user facing message when the file is not an acceptable image.
func checkImage(u *Upload) (io.Reader, string, error) {
	if u.Size > MaxPictureSize {
		return nil, fmt.Sprintf("Image file too large (max %d MB).", MaxPictureSize>>20), nil
	}
	head := make([]byte, 512)
	n, err := io.ReadFull(u.Content, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	if n == 0 {
		return nil, "The submitted file is empty.", nil
	}
	head = head[:n]
	if !strings.HasPrefix(http.DetectContentType(head), "image/") {
		return nil, "Upload a valid image. The file you uploaded was either not an image or a corrupted image.", nil
	}
	return io.MultiReader(bytes.NewReader(head), io.LimitReader(u.Content, MaxPictureSize)), "", nil
}
