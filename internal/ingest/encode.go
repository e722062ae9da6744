package ingest

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"math"
	"net/http"
	"strings"

	_ "image/gif"
	_ "image/png"

	"github.com/Kenpir/library-recommendation-system/internal/shared"
	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	// sniffLen covers both http.DetectContentType (512 bytes) and the
	// longest magic numbers mimetype looks at.
	sniffLen = 3072

	maxPasses      = 10
	initialQuality = 85
	qualityStep    = 10
	qualityFloor   = 55
	scaleStep      = 0.85
)

// encode runs the full pipeline for one file: sniff the content type, check
// the raw ceiling, read the contents, and either pass the original bytes
// through as a data URI or recompress them to fit the stored-size budget.
func (i *Ingestor) encode(cfg Config, name string, size int64, r io.Reader) (string, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("%w: %v, try again", shared.ErrReadFailed, err)
	}
	head = head[:n]

	mime := sniffMIME(head)
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("%w: %s looks like %s", shared.ErrNotAnImage, name, mime)
	}

	maxRaw := cfg.maxRawBytes()
	if size > maxRaw {
		return "", tooLargeError(name, size, cfg.MaxSizeMB)
	}

	// The +1 lets a reader that under-declared its size be caught below.
	rest, err := io.ReadAll(&io.LimitedReader{R: r, N: maxRaw - int64(len(head)) + 1})
	if err != nil {
		return "", fmt.Errorf("%w: %v, try again", shared.ErrReadFailed, err)
	}
	data := append(head, rest...)
	if int64(len(data)) > maxRaw {
		return "", tooLargeError(name, int64(len(data)), cfg.MaxSizeMB)
	}

	naive := dataURI(mime, data)
	budget := cfg.maxEncodedBytes()
	if budget == 0 || len(naive) <= budget {
		return naive, nil
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v, try again", shared.ErrReadFailed, err)
	}

	return i.fitToBudget(cfg, src, budget)
}

// fitToBudget searches for an encoding of src no larger than budget bytes.
// Quality drops first (85 down to the 55 floor in steps of 10) because it
// preserves perceived fidelity better than shrinking; once quality bottoms
// out, each remaining pass scales the dimensions down by 15%. The search
// gives up after ten passes.
func (i *Ingestor) fitToBudget(cfg Config, src image.Image, budget int) (string, error) {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	longest := w
	if h > longest {
		longest = h
	}

	scale := 1.0
	if longest > cfg.MaxDimensionPx {
		scale = float64(cfg.MaxDimensionPx) / float64(longest)
	}
	quality := initialQuality

	for pass := 1; pass <= maxPasses; pass++ {
		tw := int(math.Round(float64(w) * scale))
		th := int(math.Round(float64(h) * scale))
		if tw < 1 {
			tw = 1
		}
		if th < 1 {
			th = 1
		}

		dst := image.NewRGBA(image.Rect(0, 0, tw, th))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
			return "", fmt.Errorf("%w: %v, try again", shared.ErrReadFailed, err)
		}

		encoded := dataURI("image/jpeg", buf.Bytes())
		i.logger.Debug("compression pass",
			"pass", pass, "quality", quality, "scale", fmt.Sprintf("%.3f", scale),
			"dimensions", fmt.Sprintf("%dx%d", tw, th), "encoded", len(encoded), "budget", budget)

		if len(encoded) <= budget {
			return encoded, nil
		}

		if quality > qualityFloor {
			quality -= qualityStep
			if quality < qualityFloor {
				quality = qualityFloor
			}
		} else {
			scale *= scaleStep
		}
	}

	return "", fmt.Errorf("%w: could not fit the image within %d KB in %d passes",
		shared.ErrBudgetUnreachable, cfg.MaxEncodedKB, maxPasses)
}

// sniffMIME detects the content type of head. http.DetectContentType covers
// the common web formats; mimetype picks up what it reports as opaque
// binary, such as TIFF.
func sniffMIME(head []byte) string {
	m := http.DetectContentType(head)
	if m == "application/octet-stream" {
		m = mimetype.Detect(head).String()
	}
	return m
}

// dataURI wraps data in a self-describing base64 data URI.
func dataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func tooLargeError(name string, size int64, limitMB int) error {
	return fmt.Errorf("%w: %s is %s, the limit is %d MB",
		shared.ErrFileTooLarge, name, shared.FormatByteSize(size), limitMB)
}
