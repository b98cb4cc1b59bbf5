package client

import (
	"net/http"
	"net/url"
	nethttp "net/http"
)

func get(u string) (*http.Response, error) {
	return http.Get(u) // want `use the fetcher instead of http.Get`
}

func post(u string) (*http.Response, error) {
	return nethttp.PostForm(u, url.Values{}) // want `use the fetcher instead of http.PostForm`
}

func defaultClient() *http.Client {
	return http.DefaultClient // want `use the fetcher instead of http.DefaultClient`
}

func ownClient(u string) (*http.Response, error) {
	client := &http.Client{}
	return client.Get(u)
}

type fake struct{}

func (fake) Get(string) {}

func shadowed() {
	var http fake
	http.Get("https://friendface.test")
}
