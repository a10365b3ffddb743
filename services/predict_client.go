package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// CropPredictor proxies to the external crop recommendation service, a plain
// request/response endpoint with no relation to the forum's sync concerns.
type CropPredictor struct {
	BaseURL string
	client  *http.Client
}

func NewCropPredictor(baseURL string) *CropPredictor {
	return &CropPredictor{
		BaseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type PredictRequest struct {
	Temperature float64 `json:"temperature" binding:"required"`
	Humidity    float64 `json:"humidity" binding:"required"`
	PH          float64 `json:"ph" binding:"required"`
	Rainfall    float64 `json:"rainfall" binding:"required"`
}

func (p *CropPredictor) Recommend(req PredictRequest) (string, error) {
	if p.BaseURL == "" {
		return "", fmt.Errorf("predictor not configured")
	}

	b, _ := json.Marshal(req)
	resp, err := p.client.Post(p.BaseURL+"/predict", "application/json", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var r struct {
		Crop  string `json:"crop"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("predictor error: %s", r.Error)
	}
	return r.Crop, nil
}
