package main

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/imkonsowa/restaurants-linebot/flex"
)

const minPhotoRefLength = 10

var photoExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}

type PhotoFetcher interface {
	Photo(ctx context.Context, ref string) ([]byte, string, error)
}

// PhotoRef extracts the photo reference from a /photo path parameter. Image
// extensions are dropped and full photo URLs are reduced to their reference.
func PhotoRef(param string) string {
	ref := strings.TrimPrefix(param, "/")

	lower := strings.ToLower(ref)
	for _, ext := range photoExtensions {
		if strings.HasSuffix(lower, ext) {
			ref = ref[:len(ref)-len(ext)]
			break
		}
	}

	if strings.HasPrefix(ref, "http") {
		if r := flex.ExtractPhotoRef(ref); r != "" {
			ref = r
		}
	}

	return ref
}

// photo proxies a place photo. Every failure answers 204 so the chat client
// simply renders the card without an image.
func (a *Agent) photo(c *gin.Context) {
	ref := PhotoRef(c.Param("ref"))
	if len(ref) < minPhotoRefLength {
		slog.Warn("invalid photo reference", "ref", c.Param("ref"))
		c.Status(http.StatusNoContent)
		return
	}

	if a.photos == nil {
		slog.Error("photo proxy has no places api key")
		c.Status(http.StatusNoContent)
		return
	}

	data, contentType, err := a.photos.Photo(c.Request.Context(), ref)
	if err != nil {
		slog.Warn("failed to fetch photo", "ref", ref, "error", err)
		c.Status(http.StatusNoContent)
		return
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}

	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, contentType, data)
}
