// Package elenia pulls hourly meter readings from the Elenia Aina API.
// Authentication is a two-step dance: an AWS Cognito password grant gives a
// bearer token, which is then exchanged for the actual API token alongside
// the customer's metering point listing.
package elenia

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	defaultBaseURL    = "https://public.sgp-prod.aws.elenia.fi/api/gen"
	defaultCognitoURL = "https://cognito-idp.eu-west-1.amazonaws.com/"

	cognitoClientID = "k4s2pnm04536t1bm72bdatqct"

	// Markers the portal uses to tell metering points apart.
	consumptionPointMarker = "Liittymällä tuotannon käyttöpaikka."
	productionDeviceName   = "Tuotannon virtuaalilaite"
)

type Elenia struct {
	username   string
	password   string
	baseURL    string
	cognitoURL string
	client     *http.Client
}

func New(username, password string) *Elenia {
	return &Elenia{
		username:   username,
		password:   password,
		baseURL:    defaultBaseURL,
		cognitoURL: defaultCognitoURL,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

// GetConsumptionYear returns the raw monthly-bucket meter reading document
// for the consumption metering point, exactly as the API serves it.
func (e *Elenia) GetConsumptionYear(ctx context.Context, year int) ([]byte, error) {
	bearer, err := e.cognitoToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("cognito authentication: %w", err)
	}

	acc, err := e.accountInfo(ctx, bearer)
	if err != nil {
		return nil, fmt.Errorf("resolving account: %w", err)
	}
	if acc.ConsumptionGSRN == "" {
		return nil, fmt.Errorf("no consumption metering point for customer %s", acc.CustomerID)
	}

	return e.meterReadings(ctx, acc, acc.ConsumptionGSRN, year)
}

func (e *Elenia) cognitoToken(ctx context.Context) (string, error) {
	payload := map[string]any{
		"AuthFlow": "USER_PASSWORD_AUTH",
		"ClientId": cognitoClientID,
		"AuthParameters": map[string]string{
			"USERNAME": e.username,
			"PASSWORD": e.password,
		},
		"ClientMetadata": map[string]string{},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling auth payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cognitoURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-amz-json-1.1")
	req.Header.Set("X-Amz-Target", "AWSCognitoIdentityProviderService.InitiateAuth")

	res, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("auth request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected auth status code: %d", res.StatusCode)
	}

	var cr cognitoResponse
	if err := json.NewDecoder(res.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("decoding auth response: %w", err)
	}
	if cr.AuthenticationResult.AccessToken == "" {
		return "", fmt.Errorf("auth response carried no access token")
	}

	return cr.AuthenticationResult.AccessToken, nil
}

func (e *Elenia) accountInfo(ctx context.Context, bearer string) (account, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/customer_data_and_token", nil)
	if err != nil {
		return account{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	res, err := e.client.Do(req)
	if err != nil {
		return account{}, fmt.Errorf("fetching customer data: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return account{}, fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}

	var cdr customerDataResponse
	if err := json.NewDecoder(res.Body).Decode(&cdr); err != nil {
		return account{}, fmt.Errorf("decoding customer data: %w", err)
	}

	acc := account{APIToken: cdr.Token}
	for id, data := range cdr.CustomerDatas {
		acc.CustomerID = id
		for _, mp := range data.MeteringPoints {
			if mp.AdditionalInformation == consumptionPointMarker {
				acc.ConsumptionGSRN = mp.GSRN
			}
			if mp.Device != nil && mp.Device.Name == productionDeviceName {
				acc.ProductionGSRN = mp.GSRN
			}
		}
		break
	}
	if acc.CustomerID == "" {
		return account{}, fmt.Errorf("customer data response held no customers")
	}

	return acc, nil
}

func (e *Elenia) meterReadings(ctx context.Context, acc account, gsrn string, year int) ([]byte, error) {
	q := url.Values{}
	q.Set("gsrn", gsrn)
	q.Set("customer_ids", acc.CustomerID)
	q.Set("year", strconv.Itoa(year))

	reqURL := e.baseURL + "/meter_reading_yh?" + q.Encode()
	slog.Default().Debug("fetching meter readings", slog.String("url", reqURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+acc.APIToken)

	res, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching meter readings: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("reading meter readings response: %w", err)
	}

	return body, nil
}
