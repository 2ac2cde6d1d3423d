package services

import (
	"context"
	"fmt"
	"net/url"
)

// CheckoutGateway abstracts the external payment provider: it yields a
// redirect URL and later confirms success through the payments callback.
type CheckoutGateway interface {
	CreateCheckoutSession(ctx context.Context, appointmentID int64, returnURL string) (string, error)
}

// RedirectCheckoutGateway builds hosted-checkout redirect URLs for providers
// that take the appointment reference as a query parameter.
type RedirectCheckoutGateway struct {
	baseURL string
}

func NewRedirectCheckoutGateway(baseURL string) *RedirectCheckoutGateway {
	return &RedirectCheckoutGateway{baseURL: baseURL}
}

func (g *RedirectCheckoutGateway) CreateCheckoutSession(_ context.Context, appointmentID int64, returnURL string) (string, error) {
	if g.baseURL == "" {
		return "", fmt.Errorf("checkout base URL is not configured")
	}
	checkout, err := url.Parse(g.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid checkout base URL: %w", err)
	}
	query := checkout.Query()
	query.Set("appointment", fmt.Sprintf("%d", appointmentID))
	if returnURL != "" {
		query.Set("return_url", returnURL)
	}
	checkout.RawQuery = query.Encode()
	return checkout.String(), nil
}
