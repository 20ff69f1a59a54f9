package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/da1suk8/donation-demo/pkg/log"
)

// NewServer serves the health endpoint and pairing QR images.
func NewServer(listen string, qrs *QRStore) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSONP(http.StatusOK, map[string]interface{}{
			"status": "ok",
		})
	})
	router.GET("/qr/:id", func(ctx *gin.Context) {
		png, ok := qrs.Get(ctx.Param("id"))
		if !ok {
			ctx.Status(http.StatusNotFound)
			return
		}
		ctx.Data(http.StatusOK, "image/png", png)
	})
	if err := router.Run(listen); err != nil {
		log.Fatal(err)
	}
}
