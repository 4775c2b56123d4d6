package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
)

// MockSafePage is the default destination for rejected clicks.
func MockSafePage(c *gin.Context) {
	renderLanding(c, "Safe Page")
}

// MockOfferPage is the default destination for accepted clicks.
func MockOfferPage(c *gin.Context) {
	renderLanding(c, "Offer Page")
}

func renderLanding(c *gin.Context, title string) {
	c.Render(http.StatusOK, render.HTML{
		Template: pages,
		Name:     landingTemplate,
		Data: gin.H{
			"Title":   title,
			"ClickID": c.Query("click_id"),
		},
	})
}
