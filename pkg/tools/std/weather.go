// Package std содержит стандартные инструменты ассистента.
//
// Реализует тонкие обёртки над внешними сервисами (погода, веб-страницы)
// и над векторной памятью. Каждый инструмент следует контракту
// "Raw In, String Out": JSON-аргументы на входе, JSON-строка на выходе.
package std

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/mkarpenko/echo-ai/pkg/config"
	"github.com/mkarpenko/echo-ai/pkg/tools"
)

const defaultWeatherEndpoint = "https://wttr.in"

// WeatherTool — инструмент получения текущей погоды через wttr.in.
type WeatherTool struct {
	client      *http.Client
	endpoint    string
	limiter     *rate.Limiter
	description string
}

var _ tools.Tool = (*WeatherTool)(nil)

// NewWeatherTool создает инструмент погоды.
//
// Endpoint, rate limit и описание берутся из YAML конфигурации инструмента;
// пустые значения заменяются дефолтами.
func NewWeatherTool(cfg config.ToolConfig) *WeatherTool {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultWeatherEndpoint
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	description := cfg.Description
	if description == "" {
		description = "Get the current weather for a location. Returns temperature, conditions, humidity and wind."
	}

	return &WeatherTool{
		client:      &http.Client{Timeout: 10 * time.Second},
		endpoint:    endpoint,
		limiter:     limiter,
		description: description,
	}
}

// Definition возвращает определение инструмента для function calling.
func (t *WeatherTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        "get_current_weather",
		Description: t.description,
		Parameters: tools.JSONSchema{
			"type": "object",
			"properties": map[string]any{
				"location": map[string]any{
					"type":        "string",
					"description": "City name, e.g. 'Boston' or 'Boston,MA'",
				},
				"unit": map[string]any{
					"type":        "string",
					"enum":        []string{"celsius", "fahrenheit"},
					"description": "Temperature unit, defaults to celsius",
				},
			},
			"required": []string{"location"},
		},
	}
}

type weatherArgs struct {
	Location string `json:"location"`
	Unit     string `json:"unit"`
}

// wttrResponse покрывает нужное подмножество JSON-ответа wttr.in (?format=j1).
type wttrResponse struct {
	CurrentCondition []struct {
		TempC       string `json:"temp_C"`
		TempF       string `json:"temp_F"`
		Humidity    string `json:"humidity"`
		WindKmph    string `json:"windspeedKmph"`
		WeatherDesc []struct {
			Value string `json:"value"`
		} `json:"weatherDesc"`
	} `json:"current_condition"`
}

// Execute выполняет инструмент согласно контракту "Raw In, String Out".
func (t *WeatherTool) Execute(ctx context.Context, argsJSON string) (string, error) {
	var args weatherArgs
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if args.Location == "" {
		return "", fmt.Errorf("location is required")
	}

	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	reqURL := fmt.Sprintf("%s/%s?format=j1", t.endpoint, url.PathEscape(args.Location))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch weather: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("weather service returned status %d", resp.StatusCode)
	}

	var wttr wttrResponse
	if err := json.NewDecoder(resp.Body).Decode(&wttr); err != nil {
		return "", fmt.Errorf("failed to decode weather response: %w", err)
	}
	if len(wttr.CurrentCondition) == 0 {
		return "", fmt.Errorf("no weather data for location '%s'", args.Location)
	}

	cur := wttr.CurrentCondition[0]
	temperature := cur.TempC
	unit := "celsius"
	if args.Unit == "fahrenheit" {
		temperature = cur.TempF
		unit = "fahrenheit"
	}

	desc := ""
	if len(cur.WeatherDesc) > 0 {
		desc = cur.WeatherDesc[0].Value
	}

	result := map[string]any{
		"location":    args.Location,
		"unit":        unit,
		"temperature": temperature,
		"description": desc,
		"humidity":    cur.Humidity,
		"wind_kmph":   cur.WindKmph,
	}

	data, err := json.Marshal(result)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
