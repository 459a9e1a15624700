package webhook

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyDeliversEvent(t *testing.T) {
	received := make(chan Event, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var event Event
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
			t.Errorf("事件体解析失败: %v", err)
		}
		received <- event
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	d := NewDispatcher([]string{server.URL})
	d.Notify(EventProductCreated, map[string]interface{}{"product_id": 42})

	select {
	case event := <-received:
		assert.Equal(t, EventProductCreated, event.Type)
		assert.NotEmpty(t, event.ID)
		assert.NotZero(t, event.Timestamp)
		payload, ok := event.Payload.(map[string]interface{})
		require.True(t, ok)
		assert.EqualValues(t, 42, payload["product_id"])
	case <-time.After(3 * time.Second):
		t.Fatal("事件未送达")
	}
}

func TestNotifyFansOutToAllEndpoints(t *testing.T) {
	hits := make(chan string, 2)
	newServer := func(name string) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits <- name
		}))
	}
	s1 := newServer("s1")
	defer s1.Close()
	s2 := newServer("s2")
	defer s2.Close()

	d := NewDispatcher([]string{s1.URL, s2.URL})
	d.Notify(EventVariantCreated, nil)

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case name := <-hits:
			got[name] = true
		case <-time.After(3 * time.Second):
			t.Fatal("事件未送达全部订阅方")
		}
	}
	assert.True(t, got["s1"] && got["s2"])
}

func TestNotifyNoEndpointsIsNoop(t *testing.T) {
	d := NewDispatcher(nil)
	// 没有订阅方时不发起任何请求, 也不 panic
	d.Notify(EventProductDeleted, map[string]interface{}{"product_id": 1})
}

func TestSetEndpointsTakesEffect(t *testing.T) {
	received := make(chan struct{}, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received <- struct{}{}
	}))
	defer server.Close()

	d := NewDispatcher(nil)
	d.SetEndpoints([]string{server.URL})
	d.Notify(EventPriceRecalced, nil)

	select {
	case <-received:
	case <-time.After(3 * time.Second):
		t.Fatal("更新订阅地址后事件未送达")
	}
}
