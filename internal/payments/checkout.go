// Package payments is the hosted-checkout collaborator: a thin REST client
// that exchanges a (user, tour) pair for a checkout-session URL.
package payments

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type CheckoutClient interface {
	CreateSession(userID uint, tourID uint) (CheckoutSession, error)
}

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type RESTCheckoutClient struct {
	baseURL string
	client  *http.Client
}

func NewRESTCheckoutClient(baseURL string) *RESTCheckoutClient {
	return &RESTCheckoutClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (client *RESTCheckoutClient) CreateSession(userID uint, tourID uint) (CheckoutSession, error) {
	url := fmt.Sprintf("%s/v1/checkout/sessions?user=%d&tour=%d", client.baseURL, userID, tourID)
	response, err := client.client.Post(url, "application/json", nil)
	if err != nil {
		return CheckoutSession{}, err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK && response.StatusCode != http.StatusCreated {
		return CheckoutSession{}, fmt.Errorf("checkout service returned status %d", response.StatusCode)
	}

	var session CheckoutSession
	if err := json.NewDecoder(response.Body).Decode(&session); err != nil {
		return CheckoutSession{}, err
	}
	return session, nil
}
