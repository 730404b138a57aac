package pdu

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func withVerifyResult(fixture, result string) string {
	return strings.Replace(fixture,
		"<userVerifyRes>0</userVerifyRes>",
		"<userVerifyRes>"+result+"</userVerifyRes>", 1)
}

func TestClientGetStatus(t *testing.T) {
	var gotUser, gotPass string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != string(EndpointStatus) {
			t.Errorf("path = %q, want %q", r.URL.Path, EndpointStatus)
		}
		gotUser, gotPass, _ = r.BasicAuth()
		// the real device labels this text/html regardless of content
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(statusFixture(defaultOutlets())))
	}))
	defer srv.Close()

	client := NewClientWithURL(srv.URL)
	defer client.Close()
	client.SetAuth("operator", "hunter2")

	status, err := client.GetStatus(context.Background())
	if err != nil {
		t.Fatalf("GetStatus() error = %v", err)
	}
	if status.OutletStates[2] != OutletOff {
		t.Errorf("OutletStates[2] = %q, want %q", status.OutletStates[2], OutletOff)
	}
	if gotUser != "operator" || gotPass != "hunter2" {
		t.Errorf("basic auth = %s:%s, want operator:hunter2", gotUser, gotPass)
	}
}

func TestClientSetThresholdsConfig(t *testing.T) {
	var gotContentType string
	var gotForm map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		gotContentType = r.Header.Get("Content-Type")
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm() error = %v", err)
		}
		gotForm = r.PostForm
	}))
	defer srv.Close()

	client := NewClientWithURL(srv.URL)
	defer client.Close()

	cfg := &ThresholdsConfig{WarningAmps: 8.5, OverloadAmps: 10, WarningVolts: 250, OverloadVolts: 260, TempUnderCelsius: 5, TempOverCelsius: 40, HumidityPercent: 85}
	if err := client.SetThresholdsConfig(context.Background(), cfg); err != nil {
		t.Fatalf("SetThresholdsConfig() error = %v", err)
	}

	if gotContentType != "application/x-www-form-urlencoded" {
		t.Errorf("Content-Type = %q", gotContentType)
	}
	if got := gotForm["wrncur"]; len(got) != 1 || got[0] != "8.5" {
		t.Errorf("wrncur = %v, want [8.5]", got)
	}
	if got := gotForm["wrntp2"]; len(got) != 1 || got[0] != "40" {
		t.Errorf("wrntp2 = %v, want [40]", got)
	}
}

func TestClientSetOutlets(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %q, want GET", r.Method)
		}
		if r.URL.Path != string(EndpointOutletControl) {
			t.Errorf("path = %q, want %q", r.URL.Path, EndpointOutletControl)
		}
		gotQuery = r.URL.Query()
	}))
	defer srv.Close()

	client := NewClientWithURL(srv.URL)
	defer client.Close()

	if err := client.SetOutlets(context.Background(), CommandCycle, 2, 5); err != nil {
		t.Fatalf("SetOutlets() error = %v", err)
	}

	for _, key := range []string{"outlet2", "outlet5"} {
		if got := gotQuery[key]; len(got) != 1 || got[0] != "1" {
			t.Errorf("%s = %v, want [1]", key, got)
		}
	}
	if got := gotQuery["op"]; len(got) != 1 || got[0] != "2" {
		t.Errorf("op = %v, want [2]", got)
	}
	if got := gotQuery["submit"]; len(got) != 1 || got[0] != submitValue {
		t.Errorf("submit = %v, want [%s]", got, submitValue)
	}
}

func TestClientSetOutletsRejectsBadIndices(t *testing.T) {
	client := NewClientWithURL("http://127.0.0.1:1") // must not be reached
	defer client.Close()

	if err := client.SetOutlets(context.Background(), CommandOn); err == nil {
		t.Error("SetOutlets() with no indices should fail")
	}
	if err := client.SetOutlets(context.Background(), CommandOn, 8); err == nil {
		t.Error("SetOutlets() with index 8 should fail")
	}
	if err := client.SetOutlets(context.Background(), CommandOn, -1); err == nil {
		t.Error("SetOutlets() with negative index should fail")
	}
}

func TestClientAuthRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClientWithURL(srv.URL)
	defer client.Close()

	_, err := client.GetStatus(context.Background())
	if !IsAuth(err) {
		t.Errorf("GetStatus() error = %v, want auth kind", err)
	}
}

func TestClientGetOutletsConfig(t *testing.T) {
	bank := bankFixture()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(renderOutletsPage(bank.Outlets[:])))
	}))
	defer srv.Close()

	client := NewClientWithURL(srv.URL)
	defer client.Close()

	cfg, err := client.GetOutletsConfig(context.Background())
	if err != nil {
		t.Fatalf("GetOutletsConfig() error = %v", err)
	}
	if *cfg != *bank {
		t.Errorf("GetOutletsConfig() = %+v, want %+v", cfg, bank)
	}
}

func TestClientChangeCredentials(t *testing.T) {
	var postedForm map[string][]string
	var statusAuthUser string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch Endpoint(r.URL.Path) {
		case EndpointUsers:
			if err := r.ParseForm(); err != nil {
				t.Fatalf("ParseForm() error = %v", err)
			}
			postedForm = r.PostForm
		case EndpointStatus:
			statusAuthUser, _, _ = r.BasicAuth()
			_, _ = w.Write([]byte(withVerifyResult(statusFixture(defaultOutlets()), "1")))
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := NewClientWithURL(srv.URL)
	defer client.Close()
	client.SetAuth("admin", "oldpass")

	next := Credentials{Username: "admin", Password: "newpass"}
	if err := client.ChangeCredentials(context.Background(), next); err != nil {
		t.Fatalf("ChangeCredentials() error = %v", err)
	}

	if got := postedForm["pwnew"]; len(got) != 1 || got[0] != "newpass" {
		t.Errorf("pwnew = %v, want [newpass]", got)
	}
	if got := postedForm["pwcfm"]; len(got) != 1 || got[0] != "newpass" {
		t.Errorf("pwcfm = %v, want [newpass]", got)
	}
	// the verification read must still use the old credentials
	if statusAuthUser != "admin" {
		t.Errorf("verification read auth user = %q, want admin", statusAuthUser)
	}
	if client.Credentials() != next {
		t.Errorf("stored credentials = %+v, want %+v", client.Credentials(), next)
	}
}

func TestClientChangeCredentialsNotConfirmed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if Endpoint(r.URL.Path) == EndpointStatus {
			_, _ = w.Write([]byte(withVerifyResult(statusFixture(defaultOutlets()), "2")))
		}
	}))
	defer srv.Close()

	client := NewClientWithURL(srv.URL)
	defer client.Close()
	old := Credentials{Username: "admin", Password: "oldpass"}
	client.SetAuth(old.Username, old.Password)

	err := client.ChangeCredentials(context.Background(), Credentials{Username: "admin", Password: "newpass"})
	if !IsCredentialVerification(err) {
		t.Fatalf("ChangeCredentials() error = %v, want credential-verification kind", err)
	}
	if client.Credentials() != old {
		t.Errorf("stored credentials = %+v, want unchanged %+v", client.Credentials(), old)
	}
}

func TestClientTransportError(t *testing.T) {
	// closed server: connection refused
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClientWithURL(srv.URL)
	defer client.Close()

	_, err := client.GetStatus(context.Background())
	if !IsTransport(err) {
		t.Errorf("GetStatus() error = %v, want transport kind", err)
	}
}
