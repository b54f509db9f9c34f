// Package ai scores news headlines for add candidates with Gemini.
// Sentiment is advisory only: scores are attached to the morning report
// and never change which actions are generated.
package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"
)

// Sentiment is the per-symbol verdict, score in [-1, 1].
type Sentiment struct {
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

type Client struct {
	apiKey string
	url    string
	http   *http.Client
}

func NewClient() *Client {
	apiKey := os.Getenv("GEMINI_API_KEY")
	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = "gemini-2.0-flash"
	}

	url := fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent", model)

	if apiKey == "" {
		log.Println("WARNING: GEMINI_API_KEY not found. Sentiment scoring disabled.")
	}

	return &Client{
		apiKey: apiKey,
		url:    url,
		http:   &http.Client{Timeout: 60 * time.Second},
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

const sentimentInstruction = `You are a financial news analyst. Judge the 24-72 hour sentiment
for each stock based only on its headlines. Score from -1.0 (very bearish) to 1.0 (very bullish).
A stock with no headlines scores 0.0. Respond with strict JSON only, no extra text:
{"results":[{"symbol":"AAPL","score":0.2,"reason":"max 30 words"}]}`

type sentimentInput struct {
	Symbol    string   `json:"symbol"`
	Headlines []string `json:"headlines"`
}

type sentimentResult struct {
	Symbol string  `json:"symbol"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// AnalyzeSentiment scores one batch of symbols in a single request. On any
// API failure every symbol degrades to a neutral score so the caller never
// has to branch on errors.
func (c *Client) AnalyzeSentiment(headlines map[string][]string) map[string]Sentiment {
	if len(headlines) == 0 {
		return map[string]Sentiment{}
	}
	if c.apiKey == "" {
		return neutralAll(headlines, "sentiment disabled (no API key)")
	}

	payload := make([]sentimentInput, 0, len(headlines))
	for sym, hs := range headlines {
		if len(hs) > 5 {
			hs = hs[:5]
		}
		payload = append(payload, sentimentInput{Symbol: sym, Headlines: hs})
	}

	backoff := 5 * time.Second
	for attempt := 0; attempt < 3; attempt++ {
		out, err := c.requestBatch(payload)
		if err == nil {
			// Backfill neutral for anything the model dropped.
			for sym := range headlines {
				key := strings.ToUpper(sym)
				if _, ok := out[key]; !ok {
					out[key] = Sentiment{Score: 0, Reason: "no model verdict"}
				}
			}
			return out
		}

		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "429") || strings.Contains(msg, "resource_exhausted") {
			if attempt < 2 {
				time.Sleep(backoff)
				backoff *= 2
				continue
			}
			return neutralAll(headlines, "rate limited, degraded to neutral")
		}
		log.Printf("WARN: sentiment batch failed: %v", err)
		return neutralAll(headlines, "AI error, degraded to neutral")
	}
	return neutralAll(headlines, "AI error, degraded to neutral")
}

var jsonBlockRe = regexp.MustCompile(`(?s)\{.*\}`)

func (c *Client) requestBatch(inputs []sentimentInput) (map[string]Sentiment, error) {
	inputJSON, _ := json.Marshal(inputs)

	payload := map[string]interface{}{
		"system_instruction": map[string]interface{}{
			"parts": map[string]interface{}{
				"text": sentimentInstruction,
			},
		},
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]interface{}{
					{"text": fmt.Sprintf("Input (max 5 headlines each): %s", string(inputJSON))},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"response_mime_type": "application/json",
		},
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest("POST", c.url+"?key="+c.apiKey, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("AI API error %d: %s", resp.StatusCode, string(body))
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	// candidates[0].content.parts[0].text
	candidates, ok := result["candidates"].([]interface{})
	if !ok || len(candidates) == 0 {
		return nil, fmt.Errorf("no candidates in AI response")
	}
	candidate, ok := candidates[0].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("malformed candidate in AI response")
	}
	content, ok := candidate["content"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("malformed content in AI response")
	}
	parts, ok := content["parts"].([]interface{})
	if !ok || len(parts) == 0 {
		return nil, fmt.Errorf("no parts in AI response")
	}
	part, ok := parts[0].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("malformed part in AI response")
	}
	text, _ := part["text"].(string)

	// Models sometimes wrap the JSON in prose despite the mime hint.
	block := jsonBlockRe.FindString(text)
	if block == "" {
		return nil, fmt.Errorf("no JSON object in AI output: %s", text)
	}

	var parsed struct {
		Results []sentimentResult `json:"results"`
	}
	if err := json.Unmarshal([]byte(block), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse AI JSON output: %v. Raw: %s", err, text)
	}

	out := make(map[string]Sentiment, len(parsed.Results))
	for _, r := range parsed.Results {
		sym := strings.ToUpper(strings.TrimSpace(r.Symbol))
		if sym == "" {
			continue
		}
		score := r.Score
		if score > 1 {
			score = 1
		} else if score < -1 {
			score = -1
		}
		reason := strings.TrimSpace(r.Reason)
		if len(reason) > 120 {
			reason = reason[:120]
		}
		if reason == "" {
			reason = "no reason given"
		}
		out[sym] = Sentiment{Score: score, Reason: reason}
	}
	return out, nil
}

func neutralAll(headlines map[string][]string, reason string) map[string]Sentiment {
	out := make(map[string]Sentiment, len(headlines))
	for sym := range headlines {
		out[strings.ToUpper(sym)] = Sentiment{Score: 0, Reason: reason}
	}
	return out
}
