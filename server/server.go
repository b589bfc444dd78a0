// Package server exposes the rendered changelog over HTTP.
package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Generator produces the current changelog document.
type Generator func(ctx context.Context) (string, error)

// New returns a gin engine serving /ping and /changelog. The document is
// regenerated on every request so the served changelog tracks the repository.
func New(gen Generator, log zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	r.GET("/changelog", func(c *gin.Context) {
		doc, err := gen(c.Request.Context())
		if err != nil {
			log.Error().Err(err).Msg("changelog generation failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(doc))
	})
	return r
}
