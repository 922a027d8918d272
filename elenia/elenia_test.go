package elenia

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T) (*Elenia, *httptest.Server) {
	t.Helper()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/cognito", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Amz-Target") != "AWSCognitoIdentityProviderService.InitiateAuth" {
			http.Error(w, "missing amz target", http.StatusBadRequest)
			return
		}
		var payload struct {
			AuthParameters map[string]string
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if payload.AuthParameters["USERNAME"] != "user" || payload.AuthParameters["PASSWORD"] != "pass" {
			http.Error(w, "bad credentials", http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"AuthenticationResult": {"AccessToken": "bearer-token"}}`))
	})

	mux.HandleFunc("/customer_data_and_token", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer bearer-token" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{
			"token": "api-token",
			"customer_datas": {
				"12345": {
					"meteringpoints": [
						{"gsrn": "643001", "additional_information": "Liittymällä tuotannon käyttöpaikka."},
						{"gsrn": "643002", "device": {"name": "Tuotannon virtuaalilaite"}}
					]
				}
			}
		}`))
	})

	mux.HandleFunc("/meter_reading_yh", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer api-token" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("gsrn") != "643001" || r.URL.Query().Get("year") != "2024" {
			http.Error(w, "wrong query", http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"months": [{"hourly_values": [{"t": 1704060000000, "v": 1500}]}]}`))
	})

	e := New("user", "pass")
	e.baseURL = srv.URL
	e.cognitoURL = srv.URL + "/cognito"
	return e, srv
}

func TestGetConsumptionYear(t *testing.T) {
	e, _ := newTestClient(t)

	doc, err := e.GetConsumptionYear(context.Background(), 2024)
	if err != nil {
		t.Fatalf("GetConsumptionYear() unexpected error: %v", err)
	}
	if !strings.Contains(string(doc), "hourly_values") {
		t.Errorf("expected raw meter reading document, got %q", string(doc))
	}
}

func TestGetConsumptionYearBadCredentials(t *testing.T) {
	e, _ := newTestClient(t)
	e.password = "wrong"

	if _, err := e.GetConsumptionYear(context.Background(), 2024); err == nil {
		t.Error("expected error for rejected credentials")
	}
}
