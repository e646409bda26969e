package buildwatch

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"mapsir/internal/diag"
)

func TestDashboardStreamsRecordedEvents(t *testing.T) {
	trace := diag.NewTrace()
	d := New(trace)
	srv := httptest.NewServer(http.HandlerFunc(d.Handler))
	defer srv.Close()
	defer d.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for d.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("dashboard never registered the client")
		}
		time.Sleep(time.Millisecond)
	}

	trace.Record(diag.Event{Kind: diag.FactoryMiss, Node: "Constant", ID: 7})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	var got eventView
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Kind != "factory-miss" || got.Node != "Constant" || got.ID != 7 {
		t.Errorf("got %+v, want factory-miss/Constant/7", got)
	}
}
