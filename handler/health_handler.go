package handler

import (
	"ben-bank-api/common"
	"net/http"
)

type HealthResponse struct {
	Status string `json:"status"`
}

// HealthCheck godoc
// @Summary      Show the status of server
// @Description  get the status of server
// @Tags         health
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Router       /health [get]
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	common.WriteJSON(w, http.StatusOK, HealthResponse{Status: "Ben Bank API is healthy and running"})
}
