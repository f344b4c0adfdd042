// Package captcha reads the portal's 4 digit numeric captcha with
// tesseract.
package captcha

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

var Unreadable = fmt.Errorf("could not read a 4 digit code out of the captcha")

// Solver wraps a tesseract client. It is not safe for concurrent use,
// one reservation run owns one Solver.
type Solver struct {
	mu     sync.Mutex
	client *gosseract.Client
}

func NewSolver() (*Solver, error) {
	client := gosseract.NewClient()
	err := client.SetWhitelist("0123456789")
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("configure tesseract: %w", err)
	}
	err = client.SetPageSegMode(gosseract.PSM_SINGLE_LINE)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("configure tesseract: %w", err)
	}
	return &Solver{client: client}, nil
}

// Preload runs a throwaway recognition so tesseract loads its
// language model before the timing-critical part of a run.
func (s *Solver) Preload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	blank := image.NewGray(image.Rect(0, 0, 60, 20))
	for i := range blank.Pix {
		blank.Pix[i] = 255
	}
	var encoded bytes.Buffer
	err := png.Encode(&encoded, blank)
	if err != nil {
		return err
	}
	err = s.client.SetImageFromBytes(encoded.Bytes())
	if err != nil {
		return fmt.Errorf("warm up tesseract: %w", err)
	}
	// a blank image reads as nothing, loading the model is the point
	_, err = s.client.Text()
	if err != nil {
		return fmt.Errorf("warm up tesseract: %w", err)
	}
	return nil
}

// Solve returns the 4 digit code, or Unreadable when the image does
// not resolve to one. The portal occasionally renders the leading
// zero so faintly it drops out entirely, so a clean 3 digit read is
// padded back up.
func (s *Solver) Solve(raw []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prepared, err := preprocess(raw)
	if err != nil {
		return "", err
	}
	err = s.client.SetImageFromBytes(prepared)
	if err != nil {
		return "", fmt.Errorf("load captcha into tesseract: %w", err)
	}
	text, err := s.client.Text()
	if err != nil {
		return "", fmt.Errorf("run tesseract: %w", err)
	}
	return normalize(text)
}

func (s *Solver) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client.Close()
}

func normalize(text string) (string, error) {
	var digits strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	switch digits.Len() {
	case 4:
		return digits.String(), nil
	case 3:
		return "0" + digits.String(), nil
	default:
		return "", Unreadable
	}
}
