package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// LatestInsight 返回最近几周的最新得分与变化量
func (a *API) LatestInsight(c *gin.Context) {
	clientID, ok := parseUintParam(c, "id")
	if !ok || !a.authorizeClient(c, clientID) {
		return
	}

	trend, err := a.insights.Latest(clientID)
	if err != nil {
		a.respondError(c, err)
		return
	}
	if trend == nil {
		c.JSON(http.StatusOK, gin.H{"message": "No assessments yet."})
		return
	}
	c.JSON(http.StatusOK, trendJSON(trend))
}
