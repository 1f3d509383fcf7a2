package utils

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

const (
	uploadBaseDir = "uploads"
	baseURL       = "/uploads"
	// Multi-page contract scans run big
	maxFileSize = 15 * 1024 * 1024

	// Thumbnails feed map pin popups, keep them small
	thumbnailWidth   = 320
	thumbnailQuality = 85
)

var (
	allowedImageExts = map[string]bool{
		".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
	}
	allowedVideoExts = map[string]bool{
		".mp4": true, ".mov": true, ".avi": true, ".webm": true,
	}
	// Contracts, invoices and loss statements arrive as scans or PDFs
	allowedDocumentExts = map[string]bool{
		".pdf": true, ".jpg": true, ".jpeg": true, ".png": true,
	}

	filenameChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)
)

// cleanFilename strips path components and any character that has no
// business in a stored filename.
func cleanFilename(filename string) string {
	return filenameChars.ReplaceAllString(filepath.Base(filename), "")
}

// ValidateFileType checks the extension against the allow-list for the
// given media type.
func ValidateFileType(filename, mediaType string) error {
	ext := strings.ToLower(filepath.Ext(filename))

	switch mediaType {
	case "image":
		if !allowedImageExts[ext] {
			return fmt.Errorf("unsupported image format. Allowed formats: jpg, jpeg, png, gif, webp")
		}
	case "video":
		if !allowedVideoExts[ext] {
			return fmt.Errorf("unsupported video format. Allowed formats: mp4, mov, avi, webm")
		}
	case "document":
		if !allowedDocumentExts[ext] {
			return fmt.Errorf("unsupported document format. Allowed formats: pdf, jpg, jpeg, png")
		}
	default:
		return fmt.Errorf("invalid media type. Must be 'image', 'video' or 'document'")
	}
	return nil
}

// InitializeStorage creates the upload directory tree.
func InitializeStorage() error {
	dirs := []string{
		uploadBaseDir,
		filepath.Join(uploadBaseDir, "deals"),
		filepath.Join(uploadBaseDir, "pins"),
		filepath.Join(uploadBaseDir, "documents"),
		filepath.Join(uploadBaseDir, "reps"),
		filepath.Join(uploadBaseDir, "thumbnails"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}
	}
	return nil
}

// UploadFileToPath writes the file under uploads/<subDir> and returns the
// URL it will be served from.
func UploadFileToPath(fileData []byte, filename string, mediaType string, subDir string) (string, error) {
	if len(fileData) > maxFileSize {
		return "", fmt.Errorf("file too large. Maximum size is %d bytes", maxFileSize)
	}

	name := cleanFilename(filename)
	if err := ValidateFileType(name, mediaType); err != nil {
		return "", err
	}

	fullPath := filepath.Join(uploadBaseDir, subDir, name)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %v", filepath.Dir(fullPath), err)
	}

	if err := os.WriteFile(fullPath, fileData, 0644); err != nil {
		return "", fmt.Errorf("failed to write file %s: %v", fullPath, err)
	}

	return fmt.Sprintf("%s/%s/%s", baseURL, strings.TrimPrefix(subDir, "uploads/"), name), nil
}

// GenerateImageThumbnail produces a small JPEG preview for an uploaded roof
// photo so the canvassing map can render pins without pulling full images.
func GenerateImageThumbnail(imageURL string) (string, error) {
	rel := strings.TrimPrefix(imageURL, baseURL+"/")

	img, err := imaging.Open(filepath.Join(uploadBaseDir, rel), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("failed to open image: %v", err)
	}

	return saveThumbnail(img, filepath.Base(rel))
}

// GenerateVideoThumbnail grabs a frame one second in and stores it as the
// video's preview image. Requires ffmpeg on the host.
func GenerateVideoThumbnail(videoURL string) (string, error) {
	rel := strings.TrimPrefix(videoURL, baseURL+"/")
	// Frame file is named per source so concurrent uploads do not clobber
	// each other in the temp dir.
	framePath := filepath.Join(os.TempDir(), "frame-"+filepath.Base(rel)+".jpg")

	err := ffmpeg.Input(filepath.Join(uploadBaseDir, rel)).
		Output(framePath, ffmpeg.KwArgs{"vframes": 1, "ss": "00:00:01"}).
		OverWriteOutput().
		Run()
	if err != nil {
		return "", fmt.Errorf("failed to extract video frame: %v", err)
	}
	defer os.Remove(framePath)

	img, err := imaging.Open(framePath)
	if err != nil {
		return "", fmt.Errorf("failed to decode video frame: %v", err)
	}

	return saveThumbnail(img, filepath.Base(rel))
}

// saveThumbnail resizes img to the standard preview width and writes it
// under uploads/thumbnails named after the source file.
func saveThumbnail(img image.Image, sourceName string) (string, error) {
	resized := imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		return "", fmt.Errorf("failed to encode thumbnail: %v", err)
	}

	name := strings.TrimSuffix(sourceName, filepath.Ext(sourceName)) + ".jpg"
	fullPath := filepath.Join(uploadBaseDir, "thumbnails", name)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create thumbnail directory: %v", err)
	}
	if err := os.WriteFile(fullPath, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to save thumbnail: %v", err)
	}

	return fmt.Sprintf("%s/thumbnails/%s", baseURL, name), nil
}
