package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"seadrift/internal/domain"
)

const DefaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

var ErrNoAPIKey = errors.New("openweather: no API key configured")

// Values substituted for fields the provider leaves out
const (
	defaultWindSpeed   = 5
	defaultWindDeg     = 180
	defaultDescription = "clear skies"
	defaultMain        = "Clear"
	defaultTemp        = 75
	defaultHumidity    = 65
	defaultPressure    = 1013
	defaultVisibility  = 10000
	defaultLocation    = "Unknown location"
)

type Client struct {
	baseURL    string
	apiKey     string
	retries    int
	backoff    time.Duration
	httpClient *http.Client
}

// New returns a client for the current-weather endpoint. retries is the
// number of extra attempts after a transport error or 5xx response.
func New(baseURL, apiKey string, timeout time.Duration, retries int) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if retries < 0 {
		retries = 0
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		retries: retries,
		backoff: 500 * time.Millisecond,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type apiResponse struct {
	Wind *struct {
		Speed *float64 `json:"speed"`
		Deg   *float64 `json:"deg"`
	} `json:"wind"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main *struct {
		Temp     *float64 `json:"temp"`
		Humidity *float64 `json:"humidity"`
		Pressure *float64 `json:"pressure"`
	} `json:"main"`
	Visibility *float64 `json:"visibility"`
	Name       string   `json:"name"`
	Message    string   `json:"message,omitempty"`
}

// statusError carries a non-200 response status
type statusError struct {
	code    int
	message string
}

func (e *statusError) Error() string {
	if e.message != "" {
		return fmt.Sprintf("unexpected status code: %d: %s", e.code, e.message)
	}
	return fmt.Sprintf("unexpected status code: %d", e.code)
}

// Current fetches conditions at pos in imperial units: wind in mph and
// temperature in °F.
func (c *Client) Current(ctx context.Context, pos domain.Coordinate) (domain.Weather, error) {
	if c.apiKey == "" {
		return domain.Weather{}, ErrNoAPIKey
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return domain.Weather{}, fmt.Errorf("waiting to retry: %w", ctx.Err())
			case <-time.After(c.backoff * time.Duration(attempt)):
			}
		}

		w, err := c.fetch(ctx, pos)
		if err == nil {
			return w, nil
		}
		lastErr = err

		var se *statusError
		if errors.As(err, &se) && se.code < 500 {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}
	return domain.Weather{}, lastErr
}

func (c *Client) fetch(ctx context.Context, pos domain.Coordinate) (domain.Weather, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(pos.Lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(pos.Lng, 'f', -1, 64))
	params.Set("appid", c.apiKey)
	params.Set("units", "imperial")

	reqURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return domain.Weather{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Weather{}, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	var apiResp apiResponse
	if resp.StatusCode != http.StatusOK {
		_ = json.NewDecoder(resp.Body).Decode(&apiResp)
		return domain.Weather{}, &statusError{code: resp.StatusCode, message: apiResp.Message}
	}

	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return domain.Weather{}, fmt.Errorf("decoding response: %w", err)
	}

	return toDomain(apiResp), nil
}

func toDomain(r apiResponse) domain.Weather {
	w := domain.Weather{
		Wind: domain.WindVector{
			SpeedMph:     defaultWindSpeed,
			DirectionDeg: defaultWindDeg,
		},
		Description: defaultDescription,
		Main:        defaultMain,
		TempF:       defaultTemp,
		Humidity:    defaultHumidity,
		PressureHpa: defaultPressure,
		VisibilityM: orDefault(r.Visibility, defaultVisibility),
		Location:    defaultLocation,
		Live:        true,
	}

	if r.Wind != nil {
		w.Wind.SpeedMph = orDefault(r.Wind.Speed, defaultWindSpeed)
		w.Wind.DirectionDeg = orDefault(r.Wind.Deg, defaultWindDeg)
	}
	if len(r.Weather) > 0 {
		if r.Weather[0].Description != "" {
			w.Description = r.Weather[0].Description
		}
		if r.Weather[0].Main != "" {
			w.Main = r.Weather[0].Main
		}
	}
	if r.Main != nil {
		w.TempF = orDefault(r.Main.Temp, defaultTemp)
		w.Humidity = orDefault(r.Main.Humidity, defaultHumidity)
		w.PressureHpa = orDefault(r.Main.Pressure, defaultPressure)
	}
	if r.Name != "" {
		w.Location = r.Name
	}
	return w
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
