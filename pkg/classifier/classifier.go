// Package classifier scans a directory of graph images and asks a vision
// model to label each one Normal or Abnormal.
package classifier

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/meterlab/graphsight/pkg/chat"
)

// Record is the outcome for one image.
type Record struct {
	GraphName string  // file base name without extension
	Result    Verdict // Normal, Abnormal, or Unknown
}

// Classifier runs classification sweeps against a vision model. Images are
// processed strictly one at a time; a failure on one image records Unknown
// and moves on.
type Classifier struct {
	client VisionClient
	logger *zap.Logger
}

// New creates a Classifier.
func New(client VisionClient, logger *zap.Logger) *Classifier {
	return &Classifier{client: client, logger: logger}
}

// Run classifies every supported image directly inside dir, in directory
// listing order. The only fatal error is failing to list the directory.
func (c *Classifier) Run(ctx context.Context, dir string) ([]Record, error) {
	files, err := ListImages(dir)
	if err != nil {
		return nil, err
	}

	c.logger.Info("starting classification run",
		zap.String("dir", dir),
		zap.Int("images", len(files)),
	)

	records := make([]Record, 0, len(files))
	for _, path := range files {
		records = append(records, c.ClassifyFile(ctx, path))
	}
	return records, nil
}

// ClassifyFile classifies a single image file. Read failures, transport
// failures, and unparseable answers all degrade to Unknown.
func (c *Classifier) ClassifyFile(ctx context.Context, path string) Record {
	name := Stem(path)

	dataURL, err := fileDataURL(path)
	if err != nil {
		c.logger.Warn("could not read image",
			zap.String("file", path),
			zap.Error(err),
		)
		return Record{GraphName: name, Result: VerdictUnknown}
	}

	answer, err := c.client.Classify(ctx, dataURL)
	if err != nil {
		c.logger.Warn("classification request failed",
			zap.String("graph", name),
			zap.Error(err),
		)
		return Record{GraphName: name, Result: VerdictUnknown}
	}

	verdict := ParseVerdict(answer)
	if verdict == VerdictUnknown {
		c.logger.Warn("model answer did not match a verdict",
			zap.String("graph", name),
			zap.String("answer", answer),
		)
	} else {
		c.logger.Debug("classified graph",
			zap.String("graph", name),
			zap.String("verdict", string(verdict)),
		)
	}
	return Record{GraphName: name, Result: verdict}
}

// ListImages returns the supported image files directly inside dir, in
// directory listing order (ReadDir sorts by name). Subdirectories are not
// descended into.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !SupportedImage(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}

// SupportedImage reports whether the file name has a supported extension.
func SupportedImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg":
		return true
	default:
		return false
	}
}

// Stem returns the file's base name without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// fileDataURL reads an image file and encodes it as a base64 data URL, with
// the mime type taken from the extension.
func fileDataURL(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	mime := "image/png"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		mime = "image/jpeg"
	}
	return chat.DataURL(base64.StdEncoding.EncodeToString(data), mime), nil
}
