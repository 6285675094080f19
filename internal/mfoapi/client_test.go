package mfoapi

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mfo-tools/mfo-claim/internal/domain"
	"github.com/mfo-tools/mfo-claim/internal/signin"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(srv.URL, 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	return client, srv
}

func TestFetchCaptcha(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/webapi/login/getCaptcha" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		w.Write(png)
	}))

	img, err := client.FetchCaptcha(context.Background())
	if err != nil {
		t.Fatalf("FetchCaptcha: %v", err)
	}
	if string(img) != string(png) {
		t.Errorf("image = %v, want %v", img, png)
	}
}

func TestLogin_Success(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// userId arrives as a JSON number, not a string
		w.Write([]byte(`{"state":200,"data":{"token":"tok-1","userId":42}}`))
	}))

	sess, outcome, err := client.Login(context.Background(), domain.Account{Username: "u", Password: "p"}, "abcd")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if outcome != domain.OutcomeSuccess {
		t.Errorf("outcome = %v, want success", outcome)
	}
	if sess.Token != "tok-1" || sess.UserID != "42" {
		t.Errorf("session = %+v", sess)
	}
}

func TestLogin_BadCaptcha(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"state":100002}`))
	}))

	_, outcome, err := client.Login(context.Background(), domain.Account{Username: "u"}, "wrong")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if outcome != domain.OutcomeBadCaptcha {
		t.Errorf("outcome = %v, want invalid_captcha", outcome)
	}
}

func TestLogin_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // unreachable

	client, err := New(srv.URL, time.Second)
	if err != nil {
		t.Fatal(err)
	}

	_, outcome, err := client.Login(context.Background(), domain.Account{Username: "u"}, "abcd")
	if err == nil {
		t.Fatal("Login: want error for unreachable server")
	}
	if outcome != domain.OutcomeTransport {
		t.Errorf("outcome = %v, want transport", outcome)
	}
}

func TestLogin_GarbageBody(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))

	_, outcome, err := client.Login(context.Background(), domain.Account{Username: "u"}, "abcd")
	if err == nil {
		t.Fatal("Login: want parse error")
	}
	if outcome != domain.OutcomeTransport {
		t.Errorf("outcome = %v, want transport (parse failures are not unknown)", outcome)
	}
}

func TestSignInStatus(t *testing.T) {
	var gotToken string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("token")
		w.Write([]byte(`{"state":200,"data":{"signDay":14,"signList":[]}}`))
	}))

	days, outcome, err := client.SignInStatus(context.Background(), domain.Session{Token: "tok", UserID: "7"})
	if err != nil {
		t.Fatalf("SignInStatus: %v", err)
	}
	if outcome != domain.OutcomeSuccess || days != 14 {
		t.Errorf("got (%d, %v), want (14, success)", days, outcome)
	}
	if gotToken != "tok" {
		t.Errorf("token header = %q, want tok", gotToken)
	}
}

func TestSignInStatus_MissingSignDay(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"state":200,"data":{}}`))
	}))

	_, outcome, err := client.SignInStatus(context.Background(), domain.Session{Token: "tok", UserID: "7"})
	if err != nil {
		t.Fatalf("SignInStatus: %v", err)
	}
	if outcome != domain.OutcomeUnknown {
		t.Errorf("outcome = %v, want unknown", outcome)
	}
}

func TestSignIn_AlreadyDone(t *testing.T) {
	for _, state := range []string{"100024", "10002", "100007"} {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"state":` + state + `}`))
		}))

		outcome, err := client.SignIn(context.Background(), domain.Session{Token: "t", UserID: "7"}, 12, signin.KindBackfill)
		if err != nil {
			t.Fatalf("SignIn: %v", err)
		}
		if outcome != domain.OutcomeAlreadyDone {
			t.Errorf("state %s: outcome = %v, want already_done", state, outcome)
		}
	}
}

func TestPost_ContextTimeout(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"state":200}`))
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	outcome, err := client.ClaimTaskPrize(ctx, domain.Session{Token: "t", UserID: "7"})
	if err == nil {
		t.Fatal("ClaimTaskPrize: want timeout error")
	}
	if outcome != domain.OutcomeTransport {
		t.Errorf("outcome = %v, want transport", outcome)
	}
}

func TestAuthenticatedCallsSendNumericUserID(t *testing.T) {
	bodies := map[string][]byte{}
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		bodies[r.URL.Path] = body
		w.Write([]byte(`{"state":200,"data":{}}`))
	}))

	ctx := context.Background()
	session := domain.Session{Token: "tok", UserID: "42"}

	client.SignInStatus(ctx, session)
	client.SignIn(ctx, session, 5, signin.KindToday)
	client.ClaimMonthBonus(ctx, session, "202603")
	client.ClaimTaskPrize(ctx, session)

	if len(bodies) != 4 {
		t.Fatalf("captured %d request bodies, want 4", len(bodies))
	}
	for path, body := range bodies {
		if !bytes.Contains(body, []byte(`"userId":42`)) {
			t.Errorf("%s body = %s, want userId as a bare number", path, body)
		}
		if bytes.Contains(body, []byte(`"userId":"42"`)) {
			t.Errorf("%s body = %s, userId must not be quoted", path, body)
		}
	}
}
