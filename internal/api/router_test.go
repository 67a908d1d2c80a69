package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/storewatch/storewatch/internal/api"
	"github.com/stretchr/testify/assert"
)

func TestRouter_WiresReportRoutes(t *testing.T) {
	var triggered, fetched bool
	router := api.NewRouter(api.Dependencies{
		TriggerReportHandler: func(w http.ResponseWriter, r *http.Request) {
			triggered = true
			w.WriteHeader(http.StatusOK)
		},
		GetReportHandler: func(w http.ResponseWriter, r *http.Request) {
			fetched = true
			w.WriteHeader(http.StatusOK)
		},
	})

	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/trigger_report?store_id=s1")
	assert.NoError(t, err)
	resp.Body.Close()
	assert.True(t, triggered)

	resp, err = http.Get(srv.URL + "/get_report?repid=abc")
	assert.NoError(t, err)
	resp.Body.Close()
	assert.True(t, fetched)
}

func TestRouter_MissingHandlerReturns501(t *testing.T) {
	router := api.NewRouter(api.Dependencies{})

	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/trigger_report")
	assert.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
}

func TestRouter_UnknownRouteIs404(t *testing.T) {
	router := api.NewRouter(api.Dependencies{})

	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/nope")
	assert.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
