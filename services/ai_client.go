package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"

	"agriaid/config"
)

// CallGemini sends prompt to the Gemini generateContent endpoint and returns
// the first candidate's text. Without an API key it falls back to echoing
// the prompt so the rest of the app works offline.
func CallGemini(prompt string) (string, error) {
	cfg := config.AppConfig.Chat
	if cfg.GeminiAPIKey == "" {
		if len(prompt) > 1500 {
			return prompt[:1500], nil
		}
		return prompt, nil
	}

	payload := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]string{
					{"text": prompt},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"temperature":     0.7,
			"topK":            40,
			"topP":            0.95,
			"maxOutputTokens": 1024,
		},
	}

	b, _ := json.Marshal(payload)
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", cfg.GeminiBaseURL, cfg.GeminiModel, cfg.GeminiAPIKey)
	req, _ := http.NewRequest("POST", url, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := ioutil.ReadAll(resp.Body)
	var r map[string]interface{}
	if err := json.Unmarshal(body, &r); err != nil {
		return "", err
	}

	if candidates, ok := r["candidates"].([]interface{}); ok && len(candidates) > 0 {
		if cand, ok := candidates[0].(map[string]interface{}); ok {
			if content, ok := cand["content"].(map[string]interface{}); ok {
				if parts, ok := content["parts"].([]interface{}); ok && len(parts) > 0 {
					if part, ok := parts[0].(map[string]interface{}); ok {
						if text, ok := part["text"].(string); ok {
							return text, nil
						}
					}
				}
			}
		}
	}

	return fmt.Sprintf("unexpected gemini response: %s", string(body)), nil
}
