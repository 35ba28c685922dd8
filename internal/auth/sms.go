package auth

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Sender delivers SMS messages. TwilioSender is the production
// implementation; ConsoleSender stands in when Twilio is not configured.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// ConsoleSender logs messages instead of sending them. Useful in local
// development where the OTP has to be read off the server log anyway.
type ConsoleSender struct{}

func (ConsoleSender) Send(ctx context.Context, to, body string) error {
	log.Printf("SMS to %s: %s", to, body)
	return nil
}

// TwilioSender sends SMS through the Twilio REST API.
type TwilioSender struct {
	accountSID string
	authToken  string
	from       string
	httpClient *http.Client
}

func NewTwilioSender(accountSID, authToken, from string) *TwilioSender {
	return &TwilioSender{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type twilioMessageResponse struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (s *TwilioSender) Send(ctx context.Context, to, body string) error {
	endpoint := fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json", s.accountSID)

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", s.from)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("twilio request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var msg twilioMessageResponse
		if json.Unmarshal(raw, &msg) == nil && msg.Message != "" {
			return fmt.Errorf("twilio returned HTTP %d: %s", resp.StatusCode, msg.Message)
		}
		return fmt.Errorf("twilio returned HTTP %d", resp.StatusCode)
	}

	var msg twilioMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		return fmt.Errorf("decoding twilio response: %w", err)
	}
	log.Printf("SMS sent to %s (sid %s, status %s)", to, msg.SID, msg.Status)
	return nil
}

// GenerateOTP returns a random numeric code of the given length.
func GenerateOTP(length int) (string, error) {
	if length <= 0 {
		length = 6
	}
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generating otp: %w", err)
		}
		b.WriteString(n.String())
	}
	return b.String(), nil
}
