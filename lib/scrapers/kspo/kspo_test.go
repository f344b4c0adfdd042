package kspo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakePortal serves just enough of the portal to exercise the client.
type fakePortal struct {
	mux *http.ServeMux

	rejectLogin    bool
	queueRequests  int32
	basketValidity int
	lastBasket     basketPayload
}

func newFakePortal(t *testing.T) (*fakePortal, *Client) {
	t.Helper()
	portal := &fakePortal{mux: http.NewServeMux()}

	portal.mux.HandleFunc("/sso/usr/login.do", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<form action="/sso/usr/loginProc.do" method="post">
				<input type="hidden" name="sso_token" value="tok123"/>
				<input type="text" name="login_id"/>
				<input type="password" name="login_pwd"/>
			</form>
		</body></html>`)
	})
	portal.mux.HandleFunc("/sso/usr/loginProc.do", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "tok123", r.FormValue("sso_token"))
		if portal.rejectLogin || r.FormValue("login_pwd") != "hunter2" {
			fmt.Fprint(w, `<html><body><form action="/sso/usr/loginProc.do">
				<input name="login_id"/><input name="login_pwd"/>
			</form></body></html>`)
			return
		}
		http.Redirect(w, r, "/online/tennis", http.StatusFound)
	})
	portal.mux.HandleFunc("/online/tennis", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>member page</body></html>`)
	})
	portal.mux.HandleFunc("/online/tennis/tennis_mreserve_time.do", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&portal.queueRequests, -1) >= 0 {
			fmt.Fprint(w, `<html><body>WebGate: you are in a waiting room</body></html>`)
			return
		}
		fmt.Fprint(w, `<html><body><ul id="tab_by_date"><li>day</li></ul></body></html>`)
	})
	portal.mux.HandleFunc("/online/tennis/tennis_mcalendar_list.do", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ss_check": 1, "calendar_list": [
			{"dDay": "20260901", "xDay": "enc-0901", "checkDay": "Y"},
			{"dDay": "20260902", "xDay": "enc-0902", "checkDay": "Y"},
			{"dDay": "20260903", "xDay": "enc-0903", "checkDay": "N"}
		]}`)
	})
	portal.mux.HandleFunc("/online/tennis/tennis_mtime_list.do", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "20260902", r.FormValue("search_date"))
		require.Equal(t, "date", r.FormValue("search_gubun"))
		require.Equal(t, "enc-0902", r.FormValue("search_xdate"))
		require.Empty(t, r.FormValue("court_no"), "all-court queries leave court_no off")
		// counters deliberately mix strings and numbers
		fmt.Fprint(w, `{"ss_check": 1, "time_list": [
			{"court_no": "5", "startT": "19:00", "endT": "20:00",
			 "totCnt": 1, "endCnt": "0", "progCnt": 0, "othersCnt": "0", "useYn": "Y"},
			{"court_no": 5, "startT": "20:00", "endT": "21:00",
			 "totCnt": "1", "endCnt": 1, "progCnt": 0, "othersCnt": 0, "useYn": "Y"},
			{"court_no": 6, "startT": "19:00", "endT": "20:00",
			 "totCnt": 1, "endCnt": 0, "progCnt": 0, "othersCnt": 0, "useYn": "N"}
		]}`)
	})
	portal.mux.HandleFunc("/online/tennis/tennis_basket_ins.do", func(w http.ResponseWriter, r *http.Request) {
		err := json.NewDecoder(r.Body).Decode(&portal.lastBasket)
		require.NoError(t, err)
		fmt.Fprintf(w, `{"ss_check": 1, "validity_no": %d}`, portal.basketValidity)
	})
	portal.mux.HandleFunc("/online/tennis/tennis_mbasket_list.do", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ss_check": 1, "basket_list": [
			{"court_no": 5, "use_date": "20260902", "startT": "19:00", "endT": "21:00"}
		]}`)
	})
	portal.mux.HandleFunc("/online/captcha.do", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png-bytes"))
	})

	server := httptest.NewServer(portal.mux)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientOptions{
		BaseUrl:  server.URL,
		LoginUrl: server.URL + "/sso/usr/login.do",
	})
	require.NoError(t, err)
	return portal, client
}

func TestNormalizeBase(t *testing.T) {
	for _, raw := range []string{
		"https://portal.example.com",
		"https://portal.example.com/",
		"https://portal.example.com/online/tennis",
		"https://portal.example.com/online/tennis/tennis_mreserve_time.do",
	} {
		base, err := normalizeBase(raw)
		require.NoError(t, err)
		require.Equal(t, "https://portal.example.com/online/tennis", base.String())
	}
}

func TestLogin(t *testing.T) {
	_, client := newFakePortal(t)
	err := client.Login(context.Background(), "user", "hunter2")
	require.NoError(t, err)
}

func TestLoginRejected(t *testing.T) {
	portal, client := newFakePortal(t)
	portal.rejectLogin = true
	err := client.Login(context.Background(), "user", "wrong")
	require.ErrorIs(t, err, LoginFailed)
}

func TestEnterReservationWaitsOutQueue(t *testing.T) {
	portal, client := newFakePortal(t)
	portal.queueRequests = 2
	start := time.Now()
	err := client.EnterReservation(context.Background(), time.Second*10)
	require.NoError(t, err)
	require.GreaterOrEqual(t, time.Since(start), time.Second*2)
}

func TestCalendar(t *testing.T) {
	_, client := newFakePortal(t)
	days, err := client.Calendar(context.Background(), "20260901")
	require.NoError(t, err)
	require.Len(t, days, 3)

	latest, ok := LatestOpenDay(days)
	require.True(t, ok)
	require.Equal(t, "20260902", latest.Date)
	require.Equal(t, "enc-0902", latest.DateToken)
}

func TestTimeList(t *testing.T) {
	_, client := newFakePortal(t)
	slots, err := client.TimeList(context.Background(), "20260902", "enc-0902", 0)
	require.NoError(t, err)
	require.Len(t, slots, 3)

	require.True(t, slots[0].Open())
	require.Equal(t, 5, int(slots[0].CourtNo))
	require.Equal(t, 19, slots[0].StartHour())
	require.Equal(t, 1, slots[0].Remaining())

	// fully taken
	require.False(t, slots[1].Open())
	require.Equal(t, 0, slots[1].Remaining())

	// blocked by the portal regardless of capacity
	require.False(t, slots[2].Open())
}

func TestInsertBasket(t *testing.T) {
	portal, client := newFakePortal(t)
	err := client.InsertBasket(context.Background(), BasketRequest{
		DateToken:  "enc-0902",
		Date:       "20260902",
		CourtNo:    5,
		StartTimes: []string{"19:00", "20:00"},
		EndTimes:   []string{"20:00", "21:00"},
		Captcha:    "0423",
	})
	require.NoError(t, err)

	require.Equal(t, "enc-0902", portal.lastBasket.SearchDate)
	require.Equal(t, "20260902", portal.lastBasket.SearchDateA)
	require.Equal(t, "0423", portal.lastBasket.Captcha)
	require.Len(t, portal.lastBasket.Courts, 1)
	require.Equal(t, "5", portal.lastBasket.Courts[0].CourtNo)
	require.Equal(t, []string{"19:00", "20:00"}, portal.lastBasket.Courts[0].StartTimes)
}

func TestInsertBasketRejected(t *testing.T) {
	portal, client := newFakePortal(t)
	portal.basketValidity = 5
	err := client.InsertBasket(context.Background(), BasketRequest{
		DateToken: "enc-0902", Date: "20260902", CourtNo: 5,
		StartTimes: []string{"19:00"}, EndTimes: []string{"20:00"},
		Captcha: "1234",
	})

	var validity *ValidityError
	require.True(t, errors.As(err, &validity))
	require.Equal(t, 5, validity.Code)
	require.True(t, validity.SlotTaken())
	require.False(t, validity.Fatal())
}

func TestBasketList(t *testing.T) {
	_, client := newFakePortal(t)
	items, err := client.Basket(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, 5, int(items[0].CourtNo))
	require.Equal(t, "19:00", items[0].Start)
}

func TestCaptchaImage(t *testing.T) {
	_, client := newFakePortal(t)
	image, err := client.CaptchaImage(context.Background())
	require.NoError(t, err)
	require.Equal(t, []byte("png-bytes"), image)
}

func TestSessionExpired(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/online/tennis/tennis_mcalendar_list.do", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ss_check": -1}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := NewClient(ClientOptions{
		BaseUrl:  server.URL,
		LoginUrl: server.URL + "/login",
	})
	require.NoError(t, err)

	_, err = client.Calendar(context.Background(), "20260901")
	require.ErrorIs(t, err, SessionExpired)
}

func TestApiRejection(t *testing.T) {
	// ss_check 0 is the portal refusing the request outright, not a
	// dead session
	mux := http.NewServeMux()
	mux.HandleFunc("/online/tennis/tennis_mcalendar_list.do", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ss_check": 0}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := NewClient(ClientOptions{
		BaseUrl:  server.URL,
		LoginUrl: server.URL + "/login",
	})
	require.NoError(t, err)

	_, err = client.Calendar(context.Background(), "20260901")
	require.Error(t, err)
	require.NotErrorIs(t, err, SessionExpired)
}

func TestServerTimeOffset(t *testing.T) {
	skew := time.Minute * 3
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Date", time.Now().Add(skew).UTC().Format(http.TimeFormat))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := NewClient(ClientOptions{
		BaseUrl:  server.URL,
		LoginUrl: server.URL + "/login",
	})
	require.NoError(t, err)

	offset, err := client.ServerTimeOffset(context.Background(), 3)
	require.NoError(t, err)
	// Date headers only carry second precision
	require.InDelta(t, skew.Seconds(), offset.Seconds(), 1.5)
}

func TestServerTimeOffsetTakesSignedMinimum(t *testing.T) {
	// a portal clock behind ours must win over a closer-to-zero
	// sample, otherwise the open wait fires early
	skews := []time.Duration{time.Second * 2, -time.Minute, time.Second * 2}
	var requests int32
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		i := atomic.AddInt32(&requests, 1) - 1
		skew := skews[int(i)%len(skews)]
		w.Header().Set("Date", time.Now().Add(skew).UTC().Format(http.TimeFormat))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := NewClient(ClientOptions{
		BaseUrl:  server.URL,
		LoginUrl: server.URL + "/login",
	})
	require.NoError(t, err)

	offset, err := client.ServerTimeOffset(context.Background(), 3)
	require.NoError(t, err)
	require.InDelta(t, (-time.Minute).Seconds(), offset.Seconds(), 1.5)
}
