package captions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

type similarityWireResponse struct {
	Similarity float64 `json:"similarity_score"`
}

// Score queries the similarity analyzer with the caption text and
// whichever of imageURL/imageFile is set, preferring imageURL.
func (s *HTTPScorer) Score(ctx context.Context, imageURL, imageFile, caption string) (float64, error) {
	param, value := "url", imageURL
	if imageURL == "" {
		param, value = "file", imageFile
	}

	endpoint := fmt.Sprintf("http://%s:%d%s?%s=%s&caption=%s",
		s.cfg.Host, s.cfg.Port, s.cfg.Endpoint, param, url.QueryEscape(value), url.QueryEscape(caption))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("similarity analyzer returned status %d", resp.StatusCode)
	}

	var wire similarityWireResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return 0, fmt.Errorf("malformed similarity response: %w", err)
	}
	return wire.Similarity, nil
}
