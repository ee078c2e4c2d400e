package client

import (
	"fmt"
	"net/url"

	"campsite/pkg/model"
)

// BookingClient calls the bookings HTTP API.
type BookingClient struct {
	httpClient *HttpClient
}

func NewBookingClient(baseUrl string) *BookingClient {
	return &BookingClient{
		httpClient: NewHttpClient(baseUrl),
	}
}

func (c *BookingClient) Create(body any) (*Response, error) {
	return c.httpClient.POST("/api/v1/bookings", body)
}

func (c *BookingClient) CreateWithKey(body any, idempotencyKey string) (*Response, error) {
	return c.httpClient.POSTWithHeaders("/api/v1/bookings", body, map[string]string{
		"Idempotency-Key": idempotencyKey,
	})
}

func (c *BookingClient) Update(id string, body any) (*Response, error) {
	return c.httpClient.PUT("/api/v1/bookings/"+url.PathEscape(id), body)
}

func (c *BookingClient) Delete(id string) (*Response, error) {
	return c.httpClient.DELETE("/api/v1/bookings/" + url.PathEscape(id))
}

// Availabilities queries [start, end]; zero dates query the whole window.
func (c *BookingClient) Availabilities(start, end model.Date) (*Response, error) {
	path := "/api/v1/availabilities"
	if !start.IsZero() && !end.IsZero() {
		q := url.Values{}
		q.Set("startDate", start.String())
		q.Set("endDate", end.String())
		path += "?" + q.Encode()
	}
	return c.httpClient.GET(path)
}

func (c *BookingClient) History(date model.Date) (*Response, error) {
	return c.httpClient.GET("/api/v1/history/" + date.Key())
}

func (c *BookingClient) CreateRaw(rawBody []byte) (*Response, error) {
	return c.httpClient.POSTRaw("/api/v1/bookings", rawBody)
}

func (c *BookingClient) UpdateRaw(id string, rawBody []byte) (*Response, error) {
	return c.httpClient.PUTRaw("/api/v1/bookings/"+url.PathEscape(id), rawBody)
}

func (c *BookingClient) DecodeConfirmation(resp *Response) (model.BookingConfirmation, error) {
	var conf model.BookingConfirmation
	if err := resp.DecodeJSON(&conf); err != nil {
		return conf, fmt.Errorf("could not decode booking confirmation:\n%+v\n%s", resp.ToString(), err)
	}
	return conf, nil
}

func (c *BookingClient) DecodeAvailabilities(resp *Response) ([]model.Date, error) {
	var body model.Availabilities
	if err := resp.DecodeJSON(&body); err != nil {
		return nil, fmt.Errorf("could not decode availabilities:\n%+v\n%s", resp.ToString(), err)
	}
	dates := make([]model.Date, 0, len(body.Availabilities))
	for _, a := range body.Availabilities {
		dates = append(dates, a.AvailableDate)
	}
	return dates, nil
}
