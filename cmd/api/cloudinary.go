package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

var versionSegment = regexp.MustCompile(`^v\d+$`)

func (app *application) deletePhotoFromCloudinary(ctx context.Context, photoURL string) error {
	if app.cld == nil {
		return nil
	}

	publicID, err := extractPublicIDFromURL(photoURL)
	if err != nil {
		return fmt.Errorf("failed to extract public ID: %w", err)
	}

	_, err = app.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID: publicID,
	})
	if err != nil {
		return fmt.Errorf("failed to delete photo from Cloudinary: %w", err)
	}

	return nil
}

// extractPublicIDFromURL turns
// https://res.cloudinary.com/<cloud>/image/upload/v123/products/silk.jpg
// into "products/silk".
func extractPublicIDFromURL(photoURL string) (string, error) {
	parsedURL, err := url.Parse(photoURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}

	pathParts := strings.Split(parsedURL.Path, "/")
	for i, part := range pathParts {
		if part != "upload" || i+1 >= len(pathParts) {
			continue
		}
		rest := pathParts[i+1:]
		if len(rest) > 1 && versionSegment.MatchString(rest[0]) {
			rest = rest[1:]
		}
		id := strings.Join(rest, "/")
		id = strings.TrimSuffix(id, path.Ext(id))
		if id == "" {
			break
		}
		return id, nil
	}

	return "", errors.New("failed to extract public ID from URL")
}

// cleanupPhotos deletes the given assets in the background. Failures are logged.
func (app *application) cleanupPhotos(urls []string) {
	if app.cld == nil || len(urls) == 0 {
		return
	}
	go func(urls []string) {
		for _, u := range urls {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := app.deletePhotoFromCloudinary(ctx, u); err != nil {
				app.logger.Errorw("cloudinary delete failed", "url", u, "error", err)
			}
			cancel()
		}
	}(append([]string(nil), urls...))
}

// removedURLs lists entries of before that are absent from after.
func removedURLs(before, after []string) []string {
	keep := make(map[string]struct{}, len(after))
	for _, u := range after {
		keep[u] = struct{}{}
	}
	var gone []string
	for _, u := range before {
		if _, ok := keep[u]; !ok {
			gone = append(gone, u)
		}
	}
	return gone
}
